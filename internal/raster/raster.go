// Package raster normalizes incoming documents into a plain raster image the
// recognition engines accept: PDFs are rendered, HEIC photos are transcoded,
// and oversized images are scaled down.
package raster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"

	"docuscan/constants"
	"docuscan/internal/common"
)

// maxDimension caps either side of the working image. Phone cameras produce
// images far larger than OCR needs, and the denoising pass is quadratic-ish
// in pixel count.
const maxDimension = 4000

// NormalizeInput converts path into an image file suitable for OCR and
// returns the path to use plus a cleanup func for any temporary file created.
// The cleanup func is never nil. Unsupported extensions return
// common.ErrUnsupportedFormat.
func NormalizeInput(path string) (string, func(), error) {
	noop := func() {}
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return "", noop, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	switch {
	case constants.MapExtToFormat(ext) == constants.PDF:
		return renderPDFFirstPage(path)
	case constants.IsHEICExt(ext):
		return transcodeHEIC(path)
	default:
		return downscaleIfLarge(path)
	}
}

// renderPDFFirstPage rasterizes page 0 of a PDF to a temporary PNG.
// Multi-page documents are treated as single-receipt scans; pages past the
// first are ignored.
func renderPDFFirstPage(path string) (string, func(), error) {
	noop := func() {}
	doc, err := fitz.New(path)
	if err != nil {
		return "", noop, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return "", noop, fmt.Errorf("pdf has no pages: %s", path)
	}
	img, err := doc.Image(0)
	if err != nil {
		return "", noop, fmt.Errorf("render pdf page: %w", err)
	}
	return writeTemp(fitImage(img))
}

// transcodeHEIC decodes a HEIC/HEIF photo and rewrites it as PNG.
func transcodeHEIC(path string) (string, func(), error) {
	noop := func() {}
	f, err := os.Open(path)
	if err != nil {
		return "", noop, fmt.Errorf("open heic: %w", err)
	}
	defer f.Close()

	img, err := heic.Decode(f)
	if err != nil {
		return "", noop, fmt.Errorf("decode heic: %w", err)
	}
	return writeTemp(fitImage(img))
}

// downscaleIfLarge passes small images through untouched and rewrites
// oversized ones at a bounded resolution.
func downscaleIfLarge(path string) (string, func(), error) {
	noop := func() {}
	img, err := imaging.Open(path)
	if err != nil {
		return "", noop, fmt.Errorf("open image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return path, noop, nil
	}
	return writeTemp(fitImage(img))
}

func fitImage(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}

// writeTemp saves img as a temporary PNG and returns its path with a remover.
func writeTemp(img image.Image) (string, func(), error) {
	noop := func() {}
	tmp, err := os.CreateTemp("", "docuscan-raster-*.png")
	if err != nil {
		return "", noop, fmt.Errorf("create temp image: %w", err)
	}
	name := tmp.Name()
	tmp.Close()

	if err := imaging.Save(img, name); err != nil {
		os.Remove(name)
		return "", noop, fmt.Errorf("save temp image: %w", err)
	}
	return name, func() { os.Remove(name) }, nil
}
