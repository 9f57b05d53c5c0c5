package ocr

import (
	"math"
	"testing"
)

func TestHeuristicConfidence(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"empty-ish", "hello", 0.2},
		{"date only", "visited 03/15/2024", 0.4},
		{"currency only", "price in USD", 0.35},
		{"amount only", "you owe 45.67 units", 0.35},
		{"date and dollar amount", "03/15/2024 total $45.67", 0.7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := heuristicConfidence(tc.text)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("heuristicConfidence(%q) = %v, want %v", tc.text, got, tc.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("confidence %v out of [0,1]", got)
			}
		})
	}
}
