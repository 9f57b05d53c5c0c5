package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docuscan/constants"
	"docuscan/internal/common"
	"docuscan/internal/preprocess"
)

// Selection is the outcome of backend selection for one document.
type Selection struct {
	Engine string
	Result Result
}

// Selector picks which backend recognizes a document:
//
//  1. When a cloud backend is configured, try it first and use it exclusively
//     on success; running the local engine as well would only add latency.
//  2. Otherwise (or on cloud failure) run the local engine on the original
//     image and on the preprocessed image independently, and keep whichever
//     non-empty run has the higher mean confidence.
//  3. When every run comes back empty the document is terminal:
//     common.ErrNoTextDetected.
//
// Cloud calls are bounded by CloudTimeout; expiry is handled like any other
// backend failure. A hung local engine is not interruptible mid-call, which is
// why only the remote hop carries the deadline.
type Selector struct {
	cloud        Backend // nil when not configured
	local        Backend
	enhancer     preprocess.Enhancer // nil disables the preprocessed run
	cloudTimeout time.Duration
	logger       *slog.Logger
}

func NewSelector(cloud, local Backend, enhancer preprocess.Enhancer, cloudTimeout time.Duration, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	if cloudTimeout <= 0 {
		cloudTimeout = 30 * time.Second
	}
	return &Selector{
		cloud:        cloud,
		local:        local,
		enhancer:     enhancer,
		cloudTimeout: cloudTimeout,
		logger:       logger,
	}
}

// Recognize applies the selection policy to one image.
func (s *Selector) Recognize(ctx context.Context, imagePath string) (Selection, error) {
	if s.cloud != nil {
		cloudCtx, cancel := context.WithTimeout(ctx, s.cloudTimeout)
		res, err := s.cloud.Recognize(cloudCtx, imagePath)
		cancel()
		switch {
		case err != nil:
			s.logger.Warn("cloud backend unavailable, falling back to local",
				"engine", s.cloud.Name(), "error", err)
		case res.Empty():
			s.logger.Warn("cloud backend returned no tokens, falling back to local",
				"engine", s.cloud.Name())
		default:
			return Selection{Engine: s.cloud.Name(), Result: res}, nil
		}
	}
	return s.recognizeLocal(ctx, imagePath)
}

// recognizeLocal runs the local engine against both the original and the
// preprocessed image and keeps the run with the higher mean confidence.
// A preprocessing failure just skips the second run.
func (s *Selector) recognizeLocal(ctx context.Context, imagePath string) (Selection, error) {
	var lastErr error

	original, err := s.local.Recognize(ctx, imagePath)
	if err != nil {
		s.logger.Warn("local ocr failed on original image", "error", err)
		lastErr = err
	}

	var enhanced Result
	if s.enhancer != nil {
		enhancedPath, cleanup, err := s.enhancer.Enhance(ctx, imagePath)
		if err != nil {
			s.logger.Warn("preprocessing failed, using original image only", "error", err)
		} else {
			defer cleanup()
			enhanced, err = s.local.Recognize(ctx, enhancedPath)
			if err != nil {
				s.logger.Warn("local ocr failed on preprocessed image", "error", err)
				lastErr = err
			}
		}
	}

	switch {
	case original.Empty() && enhanced.Empty():
		if lastErr != nil {
			return Selection{}, fmt.Errorf("local ocr: %w", lastErr)
		}
		return Selection{}, common.ErrNoTextDetected
	case enhanced.Empty():
		return Selection{Engine: constants.EngineTesseract, Result: original}, nil
	case original.Empty():
		return Selection{Engine: constants.EngineTesseractPreprocess, Result: enhanced}, nil
	case enhanced.Confidence > original.Confidence:
		s.logger.Debug("preprocessed run selected",
			"original_conf", original.Confidence, "enhanced_conf", enhanced.Confidence)
		return Selection{Engine: constants.EngineTesseractPreprocess, Result: enhanced}, nil
	default:
		return Selection{Engine: constants.EngineTesseract, Result: original}, nil
	}
}
