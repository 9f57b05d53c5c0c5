package ocr

import (
	"math"
	"testing"
)

func TestNormalizeTokensSortsByVerticalPosition(t *testing.T) {
	in := []Token{
		{Text: "third", Y: 300},
		{Text: "first", Y: 100},
		{Text: "second", Y: 200},
	}
	out := NormalizeTokens(in)

	want := []string{"first", "second", "third"}
	for i, w := range want {
		if out[i].Text != w {
			t.Errorf("position %d = %q, want %q", i, out[i].Text, w)
		}
	}
	// Input must be untouched.
	if in[0].Text != "third" {
		t.Error("input slice was mutated")
	}
}

func TestNormalizeTokensStableWithinRow(t *testing.T) {
	in := []Token{
		{Text: "left", Y: 100},
		{Text: "right", Y: 100},
	}
	out := NormalizeTokens(in)
	if out[0].Text != "left" || out[1].Text != "right" {
		t.Errorf("same-row order changed: %+v", out)
	}
}

func TestMeanConfidence(t *testing.T) {
	tokens := []Token{
		{Confidence: 0.8},
		{Confidence: 0.6},
		{Confidence: 1.0},
	}
	got := MeanConfidence(tokens)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("mean = %v, want 0.8", got)
	}
	if MeanConfidence(nil) != 0 {
		t.Error("empty token list should yield 0")
	}
}

func TestJoinTextGroupsRows(t *testing.T) {
	tokens := []Token{
		{Text: "Invoice", Y: 100},
		{Text: "#:", Y: 105},
		{Text: "INV-1", Y: 102},
		{Text: "Total", Y: 200},
		{Text: "9.99", Y: 203},
	}
	// Tokens within 25 vertical units share a row; the jump to 200 starts a
	// new line.
	got := JoinText(NormalizeTokens(tokens))
	want := "Invoice INV-1 #:\nTotal 9.99"
	if got != want {
		t.Errorf("joined = %q, want %q", got, want)
	}
}

func TestJoinTextEmpty(t *testing.T) {
	if JoinText(nil) != "" {
		t.Error("empty tokens should join to empty string")
	}
}
