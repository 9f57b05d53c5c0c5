// Package parse turns recognized text back into a structured financial
// record: scalar invoice fields from the concatenated text, and line items
// from the positional token list.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"docuscan/internal/entity"
)

// Each scalar field is an ordered cascade of patterns evaluated in priority
// order; the first match's captured group wins, trimmed. A matched numeric
// that fails to parse (stray OCR symbols) discards that match only, and the
// cascade keeps going.

var vendorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:from|vendor|supplier|company)[\s:]+([A-Z][A-Za-z\s&.,]+?)(?:\n|invoice|bill)`),
	// First capitalized line near the top of the document. The class must not
	// cross newlines or the capture swallows the next line.
	regexp.MustCompile(`(?m)^([A-Z][A-Za-z &.,'-]{3,30})`),
}

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice[\s#:]+([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)\binv[\s#:]+([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)receipt[\s#:]+([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)#\s*([A-Z0-9-]{5,})`),
}

// ISO dates are tried before bare D/M/Y so "2023-11-02" is not misread as a
// two-digit-year date starting mid-number.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)date[\s:]+(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	regexp.MustCompile(`(?i)date[\s:]+(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})`),
}

// Net Total outranks the generic total/amount labels: receipts that print
// both use "Net Total" for the figure that matters.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)net\s*total[\s:]*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)net\s*total[\s:]*\n\s*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:grand\s+total|total|amount(?:\s+due)?)[\s:]+\$?\s*([\d,]+\.\d{2})`),
}

// Bare $-prefixed values are scanned last, with a look-behind guard.
var dollarAmountPattern = regexp.MustCompile(`\$\s*([\d,]+\.\d{2})`)

// Loyalty-program figures are decoys that sit right next to real money
// amounts ("$12.00 Star Points Total"); a $ match is skipped when the text
// just before it mentions them.
var loyaltyTerms = []string{"point", "loyalty", "reward", "star"}

const loyaltyLookBehind = 20

var taxPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:sales\s+)?tax[\s:]+\$?\s*([\d,]+\.?\d+)`),
	regexp.MustCompile(`(?i)vat[\s:]+\$?\s*([\d,]+\.?\d+)`),
	regexp.MustCompile(`(?i)gst[\s:]+\$?\s*([\d,]+\.?\d+)`),
}

// ExtractFields runs every scalar cascade against the full concatenated text.
// Absent fields come back nil.
func ExtractFields(text string) entity.Fields {
	return entity.Fields{
		VendorName:      extractString(text, vendorPatterns),
		InvoiceNumber:   extractString(text, invoiceNumberPatterns),
		TransactionDate: extractString(text, datePatterns),
		Amount:          extractAmount(text),
		TaxAmount:       extractNumber(text, taxPatterns),
	}
}

func extractString(text string, patterns []*regexp.Regexp) *string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			v := strings.TrimSpace(m[1])
			if v != "" {
				return &v
			}
		}
	}
	return nil
}

func extractNumber(text string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseMoney(m[1]); ok {
				return &v
			}
			// malformed numeric: discard this match, keep cascading
		}
	}
	return nil
}

func extractAmount(text string) *float64 {
	if v := extractNumber(text, amountPatterns); v != nil {
		return v
	}
	// Generic $ scan with the loyalty guard.
	for _, loc := range dollarAmountPattern.FindAllStringSubmatchIndex(text, -1) {
		start := loc[0]
		windowStart := start - loyaltyLookBehind
		if windowStart < 0 {
			windowStart = 0
		}
		if mentionsLoyalty(text[windowStart:start]) {
			continue
		}
		if v, ok := parseMoney(text[loc[2]:loc[3]]); ok {
			return &v
		}
	}
	return nil
}

func mentionsLoyalty(window string) bool {
	w := strings.ToLower(window)
	for _, term := range loyaltyTerms {
		if strings.Contains(w, term) {
			return true
		}
	}
	return false
}

// parseMoney parses a matched numeric string, tolerating thousands separators
// and a leading currency symbol.
func parseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
