package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"docuscan/constants"
	"docuscan/internal/common"
	"docuscan/internal/entity"
	"docuscan/internal/ocr"
)

type fakeRecognizer struct {
	sel ocr.Selection
	err error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (ocr.Selection, error) {
	return f.sel, f.err
}

type fakeStore struct {
	saved []*entity.ExtractionResult
	err   error
}

func (f *fakeStore) SaveExtraction(_ context.Context, _ string, res *entity.ExtractionResult) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.saved = append(f.saved, res)
	return uuid.New(), nil
}

// writeTestImage drops a small white PNG into a temp dir.
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(t.TempDir(), "receipt.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func receiptSelection() ocr.Selection {
	tokens := []ocr.Token{
		{Text: "Fresh", Y: 10, Confidence: 0.9},
		{Text: "Mart", Y: 10, Confidence: 0.9},
		{Text: "Date:", Y: 60, Confidence: 0.9},
		{Text: "2024-03-15", Y: 60, Confidence: 0.9},
		{Text: "Chicken", Y: 120, Confidence: 0.9},
		{Text: "Breast", Y: 120, Confidence: 0.9},
		{Text: "8.50", Y: 120, Confidence: 0.9},
		{Text: "Total:", Y: 200, Confidence: 0.9},
		{Text: "8.50", Y: 200, Confidence: 0.9},
	}
	return ocr.Selection{
		Engine: constants.EngineTesseract,
		Result: ocr.Result{Tokens: tokens, Confidence: 0.9},
	}
}

func TestProcessSuccess(t *testing.T) {
	path := writeTestImage(t)
	p := NewProcessor(&fakeRecognizer{sel: receiptSelection()}, nil)

	res, err := p.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Status != constants.StatusSuccess {
		t.Errorf("status = %q, want success", res.Status)
	}
	if res.Engine != constants.EngineTesseract {
		t.Errorf("engine = %q", res.Engine)
	}
	if res.Fields.TransactionDate == nil || *res.Fields.TransactionDate != "2024-03-15" {
		t.Errorf("date not extracted: %+v", res.Fields)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence %v out of [0,1]", res.Confidence)
	}
	if res.RawText == "" {
		t.Error("raw text empty")
	}
	if res.DebugTokens != nil {
		t.Error("debug tokens included without the option")
	}
}

func TestProcessNoTextIsErrorStatusNotError(t *testing.T) {
	path := writeTestImage(t)
	p := NewProcessor(&fakeRecognizer{err: common.ErrNoTextDetected}, nil)

	res, err := p.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("document-level failure must not surface as error, got %v", err)
	}
	if res.Status != constants.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
	if res.Message != "no text detected in image" {
		t.Errorf("message = %q", res.Message)
	}
	if res.LineItems == nil || len(res.LineItems) != 0 {
		t.Errorf("line items = %v, want empty", res.LineItems)
	}
}

func TestProcessUnsupportedFormat(t *testing.T) {
	p := NewProcessor(&fakeRecognizer{sel: receiptSelection()}, nil)

	res, err := p.Process(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("unsupported format must not surface as error, got %v", err)
	}
	if res.Status != constants.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
	if res.Message == "" {
		t.Error("message empty")
	}
}

func TestProcessCancelledContextSurfaces(t *testing.T) {
	path := writeTestImage(t)
	p := NewProcessor(&fakeRecognizer{err: context.Canceled}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Process(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestProcessPersistsWhenStoreConfigured(t *testing.T) {
	path := writeTestImage(t)
	store := &fakeStore{}
	p := NewProcessor(&fakeRecognizer{sel: receiptSelection()}, nil, WithStore(store))

	if _, err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d results, want 1", len(store.saved))
	}
}

func TestProcessStoreFailureSurfaces(t *testing.T) {
	path := writeTestImage(t)
	store := &fakeStore{err: errors.New("disk full")}
	p := NewProcessor(&fakeRecognizer{sel: receiptSelection()}, nil, WithStore(store))

	res, err := p.Process(context.Background(), path)
	if err == nil {
		t.Fatal("store failure must surface as an error")
	}
	if res == nil {
		t.Error("result should still be returned alongside the error")
	}
}

func TestProcessDebugTokens(t *testing.T) {
	path := writeTestImage(t)
	p := NewProcessor(&fakeRecognizer{sel: receiptSelection()}, nil, WithDebugTokens())

	res, err := p.Process(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DebugTokens) == 0 {
		t.Error("debug tokens missing")
	}
}

func TestResultSchemaRejectsBadConfidence(t *testing.T) {
	p := NewProcessor(&fakeRecognizer{}, nil)
	bad := &entity.ExtractionResult{
		Status:     constants.StatusSuccess,
		Engine:     constants.EngineTesseract,
		Confidence: 1.5,
		LineItems:  []entity.LineItem{},
	}
	if err := p.validate(bad); err == nil {
		t.Error("schema accepted confidence > 1")
	}
}

func TestResultSchemaAcceptsErrorResult(t *testing.T) {
	p := NewProcessor(&fakeRecognizer{}, nil)
	if err := p.validate(p.errorResult("no text detected in image")); err != nil {
		t.Errorf("error result violates schema: %v", err)
	}
}
