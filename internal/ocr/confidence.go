package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b`)
	reCurr   = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
)

// heuristicConfidence scores recognized text by the receipt artifacts it
// contains (date-ish, currency-ish, amount-ish). Used for backends that report
// no per-token confidence of their own.
func heuristicConfidence(txt string) float64 {
	txtL := strings.ToLower(txt)
	score := 0.2 // base
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
