package ocr

import "context"

// Result is one recognition run: the raw token list (backend order) and the
// mean token confidence in [0,1].
type Result struct {
	Tokens     []Token
	Confidence float64
}

// Empty reports whether the run produced no usable tokens.
func (r Result) Empty() bool {
	return len(r.Tokens) == 0
}

// Backend is one OCR recognition engine. Implementations hold their engine
// handles for the life of the process and initialize them lazily on first use;
// callers must not assume a backend is safe for concurrent recognition.
type Backend interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Result, error)
}
