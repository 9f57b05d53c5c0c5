package ocr

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Token is one OCR-detected text fragment. Y is the vertical midpoint of the
// fragment's bounding box on the page; Confidence is in [0,1].
type Token struct {
	Text       string  `json:"text"`
	Y          float64 `json:"vertical_position"`
	Confidence float64 `json:"confidence"`
}

// lineGroupGap is the vertical distance that separates two printed rows when
// reassembling full text from tokens. Half the same-line tolerance used by the
// line-item reconstructor.
const lineGroupGap = 25.0

// NormalizeTokens returns the tokens sorted by vertical position. Backends do
// not guarantee reading order, so every downstream consumer works on the
// normalized order. The input slice is not modified.
func NormalizeTokens(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y < out[j].Y })
	return out
}

// MeanConfidence returns the mean per-token confidence, or 0 for no tokens.
func MeanConfidence(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	confs := make([]float64, len(tokens))
	for i, t := range tokens {
		confs[i] = t.Confidence
	}
	return stat.Mean(confs, nil)
}

// JoinText reassembles normalized tokens into full text: tokens on the same
// printed row are joined with spaces, rows with newlines. The field extractor
// runs its multi-line patterns against this string.
func JoinText(tokens []Token) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	rowY := tokens[0].Y
	for i, t := range tokens {
		if i > 0 {
			if t.Y-rowY > lineGroupGap {
				b.WriteByte('\n')
				rowY = t.Y
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
