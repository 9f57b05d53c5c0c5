// Package pipeline assembles the full extraction flow: input normalization,
// backend selection, parsing, and the final result contract.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"docuscan/constants"
	"docuscan/internal/common"
	"docuscan/internal/entity"
	"docuscan/internal/ocr"
	"docuscan/internal/parse"
	"docuscan/internal/raster"
)

// DocumentStore is the persistence collaborator. Nil store on the Processor
// disables saving without branching anywhere else.
type DocumentStore interface {
	SaveExtraction(ctx context.Context, source string, res *entity.ExtractionResult) (uuid.UUID, error)
}

// Recognizer selects and runs an OCR backend for one image.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (ocr.Selection, error)
}

// Processor runs one document end to end. Stateless between calls; a single
// Processor may be shared, but recognition throughput is bounded by the
// backends it wraps.
type Processor struct {
	recognizer  Recognizer
	store       DocumentStore
	logger      *slog.Logger
	schema      *jsonschema.Schema
	debugTokens bool
}

type Option func(*Processor)

// WithStore enables persistence of every processed document.
func WithStore(store DocumentStore) Option {
	return func(p *Processor) { p.store = store }
}

// WithDebugTokens includes the raw token list in results.
func WithDebugTokens() Option {
	return func(p *Processor) { p.debugTokens = true }
}

func NewProcessor(recognizer Recognizer, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		recognizer: recognizer,
		logger:     logger,
		schema:     compileResultSchema(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts one document. The returned result is always non-nil and
// always satisfies the output contract: document-level failures (unsupported
// format, unreadable input, no recognizable text) come back as a result with
// status "error" and a message, with a nil error. A non-nil error means an
// internal defect or a persistence failure, not a bad document.
func (p *Processor) Process(ctx context.Context, path string) (*entity.ExtractionResult, error) {
	started := time.Now()

	imagePath, cleanup, err := raster.NormalizeInput(path)
	if err != nil {
		p.logger.Warn("input normalization failed", "path", path, "error", err)
		return p.finish(ctx, path, p.errorResult(err.Error()))
	}
	defer cleanup()

	sel, err := p.recognizer.Recognize(ctx, imagePath)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		p.logger.Warn("recognition failed", "path", path, "error", err)
		msg := common.ErrNoTextDetected.Error()
		if !errors.Is(err, common.ErrNoTextDetected) {
			msg = err.Error()
		}
		return p.finish(ctx, path, p.errorResult(msg))
	}

	tokens := ocr.NormalizeTokens(sel.Result.Tokens)
	rawText := ocr.JoinText(tokens)

	result := &entity.ExtractionResult{
		Status:     constants.StatusSuccess,
		Engine:     sel.Engine,
		Fields:     parse.ExtractFields(rawText),
		LineItems:  parse.ReconstructLineItems(tokens),
		Confidence: clamp01(sel.Result.Confidence),
		RawText:    rawText,
	}
	if p.debugTokens {
		result.DebugTokens = tokens
	}

	p.logger.Info("document processed",
		"path", path,
		"engine", result.Engine,
		"line_items", len(result.LineItems),
		"confidence", result.Confidence,
		"duration", time.Since(started),
	)
	return p.finish(ctx, path, result)
}

// finish validates the assembled result against the output contract and
// persists it when a store is configured.
func (p *Processor) finish(ctx context.Context, source string, result *entity.ExtractionResult) (*entity.ExtractionResult, error) {
	if err := p.validate(result); err != nil {
		return result, common.NewAppError("RESULT_CONTRACT", "assembled result violates output contract", err)
	}
	if p.store != nil {
		id, err := p.store.SaveExtraction(ctx, source, result)
		if err != nil {
			return result, common.WrapError(err, "save extraction")
		}
		p.logger.Debug("extraction persisted", "document_id", id)
	}
	return result, nil
}

func (p *Processor) validate(result *entity.ExtractionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return p.schema.Validate(doc)
}

// errorResult builds the terminal result for a document that produced no
// usable text. Engine stays "none": no engine's output is being reported.
func (p *Processor) errorResult(message string) *entity.ExtractionResult {
	return &entity.ExtractionResult{
		Status:    constants.StatusError,
		Engine:    constants.EngineNone,
		Message:   message,
		LineItems: []entity.LineItem{},
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
