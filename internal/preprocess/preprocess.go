// Package preprocess improves OCR accuracy on receipt scans before
// recognition. Receipt photos come with uneven lighting and thermal-paper
// speckle, so the pipeline binarizes with a local threshold rather than a
// single global one.
package preprocess

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"gocv.io/x/gocv"
)

// Enhancer produces an enhanced copy of an image for OCR. The returned cleanup
// releases the artifact and must be called on all exit paths; callers treat
// any error as "proceed with the original image".
type Enhancer interface {
	Enhance(ctx context.Context, imagePath string) (outPath string, cleanup func(), err error)
}

// Pipeline order: grayscale, non-local-means denoising, CLAHE for local
// contrast under uneven lighting, adaptive (Gaussian-neighborhood)
// binarization, then a small morphological closing to drop the speckle the
// thresholding introduces.
const (
	claheClipLimit = 2.0
	claheTileSize  = 8

	denoiseStrength     = 10.0
	denoiseTemplateSize = 7
	denoiseSearchSize   = 21

	thresholdBlockSize = 21
	thresholdC         = 10

	closingKernelSize = 2
)

// Pipeline is the gocv-backed Enhancer. Deterministic given identical input;
// the output is a new temporary artifact, never a mutation of the source.
type Pipeline struct {
	artifactDir string
	logger      *slog.Logger
}

func NewPipeline(artifactDir string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if artifactDir == "" {
		artifactDir = os.TempDir()
	}
	return &Pipeline{artifactDir: artifactDir, logger: logger}
}

func (p *Pipeline) Enhance(ctx context.Context, imagePath string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	src := gocv.IMRead(imagePath, gocv.IMReadColor)
	if src.Empty() {
		return "", nil, fmt.Errorf("preprocess: cannot decode %s", imagePath)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.FastNlMeansDenoisingWithParams(gray, &denoised,
		denoiseStrength, denoiseTemplateSize, denoiseSearchSize)

	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Pt(claheTileSize, claheTileSize))
	defer clahe.Close()
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(denoised, &equalized)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(equalized, &binary, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, thresholdBlockSize, thresholdC)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(closingKernelSize, closingKernelSize))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(binary, &closed, gocv.MorphClose, kernel)

	tmp, err := os.CreateTemp(p.artifactDir, "docuscan-enhanced-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("preprocess: create artifact: %w", err)
	}
	outPath := tmp.Name()
	_ = tmp.Close()

	if ok := gocv.IMWrite(outPath, closed); !ok {
		_ = os.Remove(outPath)
		return "", nil, fmt.Errorf("preprocess: write artifact %s", outPath)
	}

	p.logger.Debug("preprocessing done", "src", imagePath, "artifact", outPath)
	cleanup := func() { _ = os.Remove(outPath) }
	return outPath, cleanup, nil
}
