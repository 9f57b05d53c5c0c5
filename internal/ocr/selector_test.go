package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"docuscan/constants"
	"docuscan/internal/common"
)

// fakeBackend returns canned results keyed by image path, or a single result
// for any path when the map has one entry with key "".
type fakeBackend struct {
	name    string
	results map[string]Result
	err     error
	calls   int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Recognize(_ context.Context, imagePath string) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	if res, ok := f.results[imagePath]; ok {
		return res, nil
	}
	return f.results[""], nil
}

// fakeEnhancer pretends to preprocess by returning a fixed artifact path.
type fakeEnhancer struct {
	outPath string
	err     error
	cleaned bool
}

func (f *fakeEnhancer) Enhance(_ context.Context, _ string) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.outPath, func() { f.cleaned = true }, nil
}

func result(conf float64, words ...string) Result {
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Text: w, Y: float64(i * 100), Confidence: conf}
	}
	return Result{Tokens: tokens, Confidence: conf}
}

func TestSelectorPrefersCloud(t *testing.T) {
	cloud := &fakeBackend{
		name:    constants.EngineAzureVision,
		results: map[string]Result{"": result(0.9, "Total", "9.99")},
	}
	local := &fakeBackend{name: constants.EngineTesseract}

	sel := NewSelector(cloud, local, nil, time.Second, nil)
	got, err := sel.Recognize(context.Background(), "r.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine != constants.EngineAzureVision {
		t.Errorf("engine = %q, want cloud", got.Engine)
	}
	if local.calls != 0 {
		t.Errorf("local ran %d times, want 0 when cloud succeeds", local.calls)
	}
}

func TestSelectorFallsBackOnCloudFailure(t *testing.T) {
	cloud := &fakeBackend{
		name: constants.EngineAzureVision,
		err:  common.ErrBackendUnavailable,
	}
	local := &fakeBackend{
		name:    constants.EngineTesseract,
		results: map[string]Result{"": result(0.7, "Total", "9.99")},
	}

	sel := NewSelector(cloud, local, nil, time.Second, nil)
	got, err := sel.Recognize(context.Background(), "r.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine != constants.EngineTesseract {
		t.Errorf("engine = %q, want local fallback", got.Engine)
	}
}

func TestSelectorFallsBackOnEmptyCloudResult(t *testing.T) {
	cloud := &fakeBackend{
		name:    constants.EngineAzureVision,
		results: map[string]Result{"": {}},
	}
	local := &fakeBackend{
		name:    constants.EngineTesseract,
		results: map[string]Result{"": result(0.7, "Total", "9.99")},
	}

	sel := NewSelector(cloud, local, nil, time.Second, nil)
	got, err := sel.Recognize(context.Background(), "r.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine != constants.EngineTesseract {
		t.Errorf("engine = %q, want local fallback on empty cloud result", got.Engine)
	}
}

func TestSelectorPicksHigherConfidenceLocalRun(t *testing.T) {
	enhancer := &fakeEnhancer{outPath: "enhanced.png"}
	local := &fakeBackend{
		name: constants.EngineTesseract,
		results: map[string]Result{
			"original.png": result(0.55, "blurry", "text"),
			"enhanced.png": result(0.85, "crisp", "text"),
		},
	}

	sel := NewSelector(nil, local, enhancer, time.Second, nil)
	got, err := sel.Recognize(context.Background(), "original.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine != constants.EngineTesseractPreprocess {
		t.Errorf("engine = %q, want preprocessed run", got.Engine)
	}
	if got.Result.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", got.Result.Confidence)
	}
	if !enhancer.cleaned {
		t.Error("enhanced artifact was not cleaned up")
	}
}

func TestSelectorKeepsOriginalWhenEnhancementFails(t *testing.T) {
	enhancer := &fakeEnhancer{err: errors.New("decode failed")}
	local := &fakeBackend{
		name:    constants.EngineTesseract,
		results: map[string]Result{"": result(0.6, "Total", "9.99")},
	}

	sel := NewSelector(nil, local, enhancer, time.Second, nil)
	got, err := sel.Recognize(context.Background(), "r.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine != constants.EngineTesseract {
		t.Errorf("engine = %q, want original-image run", got.Engine)
	}
	if local.calls != 1 {
		t.Errorf("local ran %d times, want 1 when enhancement fails", local.calls)
	}
}

func TestSelectorNoTextDetected(t *testing.T) {
	local := &fakeBackend{
		name:    constants.EngineTesseract,
		results: map[string]Result{"": {}},
	}

	sel := NewSelector(nil, local, nil, time.Second, nil)
	_, err := sel.Recognize(context.Background(), "blank.png")
	if !errors.Is(err, common.ErrNoTextDetected) {
		t.Errorf("error = %v, want ErrNoTextDetected", err)
	}
}
