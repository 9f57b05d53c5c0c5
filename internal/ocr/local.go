package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"docuscan/constants"
)

// LocalConfig configures the local Tesseract backend.
type LocalConfig struct {
	Language    string // default "eng"
	TessdataDir string // optional
}

// Local runs the neural OCR engine on CPU via Tesseract. It is the
// unconditional fallback backend: it never fails with network-style errors.
// The engine handle is lazily constructed on first use and kept for the life
// of the process; recognition calls are serialized because the underlying
// engine is not documented as safe for concurrent use.
type Local struct {
	cfg    LocalConfig
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
	client   *gosseract.Client
}

func NewLocal(cfg LocalConfig, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Local{cfg: cfg, logger: logger}
}

func (l *Local) Name() string { return constants.EngineTesseract }

func (l *Local) init() error {
	l.initOnce.Do(func() {
		client := gosseract.NewClient()
		if err := client.SetLanguage(l.cfg.Language); err != nil {
			_ = client.Close()
			l.initErr = fmt.Errorf("set language %q: %w", l.cfg.Language, err)
			return
		}
		if l.cfg.TessdataDir != "" {
			if err := client.SetTessdataPrefix(l.cfg.TessdataDir); err != nil {
				_ = client.Close()
				l.initErr = fmt.Errorf("set tessdata dir: %w", err)
				return
			}
		}
		// Receipts are sparse, ragged text; plain word detection beats the
		// default page segmentation on narrow thermal-paper scans.
		if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
			_ = client.Close()
			l.initErr = fmt.Errorf("set page seg mode: %w", err)
			return
		}
		l.client = client
	})
	return l.initErr
}

// Recognize runs word-level recognition and returns one token per detected
// word with its bounding-box vertical midpoint and confidence. An image with
// no detectable text yields an empty Result, not an error.
func (l *Local) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := l.init(); err != nil {
		return Result{}, fmt.Errorf("tesseract init: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.client.SetImage(imagePath); err != nil {
		return Result{}, fmt.Errorf("tesseract set image: %w", err)
	}
	boxes, err := l.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract recognize: %w", err)
	}

	tokens := make([]Token, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:       word,
			Y:          float64(box.Box.Min.Y+box.Box.Max.Y) / 2,
			Confidence: box.Confidence / 100.0,
		})
	}

	res := Result{Tokens: tokens, Confidence: MeanConfidence(tokens)}
	l.logger.Debug("local ocr done", "path", imagePath, "tokens", len(tokens), "confidence", res.Confidence)
	return res, nil
}

// Close releases the engine handle.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		err := l.client.Close()
		l.client = nil
		return err
	}
	return nil
}
