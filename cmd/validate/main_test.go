package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrame(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func paletteFrame(w, h int) *image.Paletted {
	f := image.NewPaletted(image.Rect(0, 0, w, h), domain.DefaultPalette.ColorPalette())
	f.SetColorIndex(0, 0, 2)
	return f
}

func TestRun_ValidFrame(t *testing.T) {
	path := writeFrame(t, paletteFrame(8, 4))
	assert.Equal(t, 0, run(path, image.Pt(8, 4), "", 2))
}

func TestRun_WrongSize(t *testing.T) {
	path := writeFrame(t, paletteFrame(8, 4))
	assert.Equal(t, 1, run(path, image.Pt(800, 480), "", 2))
}

func TestRun_MissingFile(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "nope.png"), image.Pt(1, 1), "", 1))
}

func TestValidatePalette(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	p := validatePalette(histogram(img), domain.DefaultPalette)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "#808080")
}

func TestValidateDetail(t *testing.T) {
	counts := histogram(image.NewPaletted(image.Rect(0, 0, 3, 3), domain.DefaultPalette.ColorPalette()))
	assert.False(t, validateDetail(counts, 2).passed(), "blank frame")
	assert.True(t, validateDetail(counts, 1).passed())
}
