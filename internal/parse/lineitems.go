package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"docuscan/internal/entity"
	"docuscan/internal/ocr"
)

// Line-item reconstruction is a greedy, single-pass, line-local algorithm:
// find tokens that look like item prices, then gather the description
// fragments printed on the same row. It trades recall for precision, so
// candidates pass through several redundant validation layers before
// acceptance.
//
// The thresholds below are empirically tuned, not derived; treat them as
// knobs to revisit against a labeled receipt corpus.
const (
	// Price anchors: plausible single-item price range.
	anchorMinPrice = 1.0
	anchorMaxPrice = 10000.0

	// A numeric value repeated more than this many times across the document
	// is almost certainly a recurring total or subtotal, not an item price.
	maxPriceRepeats = 2

	// Backward scan window per anchor, and the vertical distance that still
	// counts as "the same printed line" under typical receipt row spacing.
	scanWindow    = 15
	lineTolerance = 50.0

	// Description rejection thresholds.
	maxFillerRatio    = 0.40
	minDescriptionLen = 3
	maxDescriptionLen = 60
	minAlphaChars     = 3
	shortDescLen      = 10

	// Accepted-item bounds.
	minItemPrice = 0.10
	maxItemPrice = 10000.0
	maxLineItems = 20

	// Item indexes are small 1-2 digit integers.
	maxItemIndex = 50

	// Quantities are fractional values in a plausible per-line range.
	minQuantity = 0.01
	maxQuantity = 100.0
)

var (
	priceTokenPattern  = regexp.MustCompile(`^\$?\d{1,5}(?:\.\d{1,2})?$`)
	itemIndexPattern   = regexp.MustCompile(`^\d{1,2}$`)
	quantityPattern    = regexp.MustCompile(`^\d{1,3}\.\d{1,3}$`)
	productCodePattern = regexp.MustCompile(`^[A-Z]{2}\d`)
	indexPrefixPattern = regexp.MustCompile(`^\d{1,2}\s+`)
)

// reservedWords can never anchor an item even if they somehow parse.
var reservedWords = map[string]struct{}{
	"total": {}, "balance": {}, "card": {}, "cash": {},
}

// stopWords is label/footer vocabulary that never belongs in a description.
var stopWords = map[string]struct{}{
	"total": {}, "subtotal": {}, "tax": {}, "vat": {}, "gst": {},
	"cash": {}, "card": {}, "change": {}, "balance": {}, "tender": {},
	"invoice": {}, "receipt": {}, "date": {}, "time": {}, "qty": {},
	"price": {}, "amount": {}, "item": {}, "description": {}, "net": {},
	"due": {}, "paid": {}, "payment": {}, "thank": {}, "visit": {},
}

// fillerWords flag footer/boilerplate prose masquerading as an item line.
var fillerWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "and": {}, "or": {},
	"in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "by": {},
	"is": {}, "be": {}, "as": {}, "from": {}, "your": {}, "our": {},
}

// footerTerms reject whole descriptions built from footer text.
var footerTerms = []string{
	"loyalty", "points", "hotline", "please call", "customer care",
	"thank you", "www", "http",
}

// amountVocab rejects descriptions that are really total/tender rows.
var amountVocab = []string{
	"total", "subtotal", "sub total", "tax", "balance", "tender",
	"cash", "change", "card",
}

// excludedPhrases are known header/footer lines that survive the word-level
// filters.
var excludedPhrases = map[string]struct{}{
	"change due": {}, "balance due": {}, "amount due": {}, "approval code": {},
	"merchant copy": {}, "customer copy": {},
}

// ReconstructLineItems regroups the normalized token list into validated,
// deduplicated purchased items. Tokens must already be sorted by vertical
// position (ocr.NormalizeTokens).
func ReconstructLineItems(tokens []ocr.Token) []entity.LineItem {
	counts := priceOccurrences(tokens)

	var candidates []entity.LineItem
	for i, tok := range tokens {
		price, ok := anchorPrice(tok.Text, counts)
		if !ok {
			continue
		}
		if item, ok := buildCandidate(tokens, i, price); ok {
			candidates = append(candidates, item)
		}
	}
	return DedupeLineItems(candidates)
}

// priceOccurrences counts how often each normalized numeric text appears.
func priceOccurrences(tokens []ocr.Token) map[string]int {
	counts := make(map[string]int)
	for _, t := range tokens {
		txt := strings.TrimSpace(t.Text)
		if priceTokenPattern.MatchString(txt) {
			counts[normalizeNumeric(txt)]++
		}
	}
	return counts
}

func normalizeNumeric(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "$")
}

// anchorPrice decides whether a token text qualifies as a price anchor.
func anchorPrice(text string, counts map[string]int) (float64, bool) {
	txt := strings.TrimSpace(text)
	if _, reserved := reservedWords[strings.ToLower(txt)]; reserved {
		return 0, false
	}
	if !priceTokenPattern.MatchString(txt) {
		return 0, false
	}
	norm := normalizeNumeric(txt)
	v, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return 0, false
	}
	if v <= anchorMinPrice || v >= anchorMaxPrice {
		return 0, false
	}
	if counts[norm] > maxPriceRepeats {
		return 0, false
	}
	return v, true
}

// buildCandidate scans backwards from the anchor at index i, classifying
// window tokens on the same printed line, and assembles a candidate item.
func buildCandidate(tokens []ocr.Token, i int, price float64) (entity.LineItem, bool) {
	anchorY := tokens[i].Y
	quantity := 0.0
	itemIndex := 0
	var fragments []string

	scanned := 0
	for j := i - 1; j >= 0 && scanned < scanWindow; j-- {
		if anchorY-tokens[j].Y > lineTolerance {
			break // sorted by Y: everything earlier is even further away
		}
		scanned++
		txt := strings.TrimSpace(tokens[j].Text)
		if txt == "" {
			continue
		}

		if itemIndexPattern.MatchString(txt) {
			if v, err := strconv.Atoi(txt); err == nil && v < maxItemIndex {
				if itemIndex == 0 {
					itemIndex = v
				}
				continue
			}
		}
		if quantityPattern.MatchString(txt) {
			if v, err := strconv.ParseFloat(txt, 64); err == nil && v >= minQuantity && v <= maxQuantity {
				if quantity == 0 {
					quantity = v
				}
				continue
			}
		}
		if productCodePattern.MatchString(txt) {
			continue // product/SKU code, not description
		}
		if isDescriptionWord(txt) {
			fragments = append(fragments, txt)
		}
	}

	if len(fragments) == 0 {
		return entity.LineItem{}, false
	}

	// The scan walked right-to-left; restore reading order.
	for l, r := 0, len(fragments)-1; l < r; l, r = l+1, r-1 {
		fragments[l], fragments[r] = fragments[r], fragments[l]
	}
	description := strings.Join(fragments, " ")

	if fillerRatio(fragments) > maxFillerRatio {
		return entity.LineItem{}, false
	}
	if containsAny(description, footerTerms) {
		return entity.LineItem{}, false
	}
	if !isValidDescription(description) {
		return entity.LineItem{}, false
	}
	if containsAny(description, amountVocab) {
		return entity.LineItem{}, false
	}
	if price < minItemPrice || price > maxItemPrice {
		return entity.LineItem{}, false
	}
	if len(description) > maxDescriptionLen {
		return entity.LineItem{}, false
	}

	if quantity == 0 {
		quantity = 1.0
	}
	if itemIndex > 0 {
		description = fmt.Sprintf("%d %s", itemIndex, description)
	}
	return entity.LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   price / quantity,
		Total:       price,
	}, true
}

// isDescriptionWord is the per-token filter for description fragments.
func isDescriptionWord(txt string) bool {
	if len(txt) < 2 {
		return false
	}
	runes := []rune(txt)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	if _, stop := stopWords[strings.ToLower(txt)]; stop {
		return false
	}
	return alphaCount(txt) >= 2
}

func fillerRatio(fragments []string) float64 {
	if len(fragments) == 0 {
		return 0
	}
	filler := 0
	for _, f := range fragments {
		if _, ok := fillerWords[strings.ToLower(f)]; ok {
			filler++
		}
	}
	return float64(filler) / float64(len(fragments))
}

// isValidDescription applies the general validity checks to an assembled
// description.
func isValidDescription(desc string) bool {
	if len(desc) < minDescriptionLen {
		return false
	}
	runes := []rune(desc)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	if alphaCount(desc) < minAlphaChars {
		return false
	}
	if _, excluded := excludedPhrases[strings.ToLower(desc)]; excluded {
		return false
	}
	allCaps := desc == strings.ToUpper(desc)
	if allCaps && len(desc) < 5 {
		return false // likely an abbreviation or code
	}
	// A short mixed-case string without an internal space is usually a single
	// OCR-garbled stray token, not an item.
	if !allCaps && len(desc) < shortDescLen && !strings.Contains(desc, " ") {
		return false
	}
	return true
}

func alphaCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func containsAny(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// DedupeLineItems merges candidates that share a case-folded, index-stripped
// description, keeping the one with the lowest total: OCR digit insertions
// inflate prices rather than deflate them, so the minimum is the more
// trustworthy reading. Output is sorted by description and capped. The
// operation is idempotent.
func DedupeLineItems(items []entity.LineItem) []entity.LineItem {
	best := make(map[string]entity.LineItem)
	for _, item := range items {
		key := strings.ToLower(indexPrefixPattern.ReplaceAllString(item.Description, ""))
		if prev, seen := best[key]; !seen || item.Total < prev.Total {
			best[key] = item
		}
	}

	out := make([]entity.LineItem, 0, len(best))
	for _, item := range best {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	if len(out) > maxLineItems {
		out = out[:maxLineItems]
	}
	return out
}
