package raster

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"docuscan/internal/common"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 64 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.Black)
		}
	}
	path := filepath.Join(t.TempDir(), "scan.png")
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

func TestNormalizeInputUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"notes.txt", "archive.zip", "noext"} {
		_, cleanup, err := NormalizeInput(name)
		if !errors.Is(err, common.ErrUnsupportedFormat) {
			t.Errorf("%s: error = %v, want ErrUnsupportedFormat", name, err)
		}
		cleanup() // must be callable even on error
	}
}

func TestNormalizeInputSmallImagePassesThrough(t *testing.T) {
	path := writePNG(t, 100, 100)
	out, cleanup, err := NormalizeInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if out != path {
		t.Errorf("small image was rewritten: %q != %q", out, path)
	}
}

func TestNormalizeInputDownscalesLargeImage(t *testing.T) {
	path := writePNG(t, maxDimension+500, 200)
	out, cleanup, err := NormalizeInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if out == path {
		t.Fatal("oversized image was not rewritten")
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		t.Errorf("output %dx%d exceeds %d", cfg.Width, cfg.Height, maxDimension)
	}
}

func TestNormalizeInputCleanupRemovesArtifact(t *testing.T) {
	path := writePNG(t, maxDimension+500, 200)
	out, cleanup, err := NormalizeInput(path)
	if err != nil {
		t.Fatal(err)
	}
	cleanup()
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("artifact %s survived cleanup", out)
	}
}
