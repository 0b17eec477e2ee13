package display

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame() *image.Paletted {
	p := color.Palette{color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 0, 0, 255}}
	f := image.NewPaletted(image.Rect(0, 0, 8, 4), p)
	f.SetColorIndex(1, 1, 2)
	f.SetColorIndex(7, 3, 1)
	return f
}

func TestEncodePNG_KeepsPalette(t *testing.T) {
	data, err := EncodePNG(testFrame())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	decoded, ok := img.(*image.Paletted)
	require.True(t, ok, "indexed PNG decodes as *image.Paletted")
	assert.Equal(t, uint8(2), decoded.ColorIndexAt(1, 1))
	assert.Equal(t, uint8(1), decoded.ColorIndexAt(7, 3))
}

func TestPNGFile_RenderReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radar.png")
	sink := NewPNGFile(path)
	ctx := context.Background()

	require.NoError(t, sink.Init(ctx))
	require.NoError(t, sink.Clear(ctx))
	require.NoError(t, sink.Render(ctx, testFrame()))
	require.NoError(t, sink.Render(ctx, testFrame()))
	require.NoError(t, sink.Sleep(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestPNGFile_InitMissingDir(t *testing.T) {
	sink := NewPNGFile(filepath.Join(t.TempDir(), "missing", "radar.png"))
	require.Error(t, sink.Init(context.Background()))
}

func TestMemory_Lifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok := m.Latest()
	assert.False(t, ok)

	frame := testFrame()
	require.NoError(t, m.Init(ctx))
	require.NoError(t, m.Clear(ctx))
	require.NoError(t, m.Render(ctx, frame))
	require.NoError(t, m.Sleep(ctx))

	got, ok := m.Latest()
	require.True(t, ok)
	assert.Same(t, frame, got)
	assert.Equal(t, 1, m.Frames())
	assert.Equal(t, []string{"init", "clear", "render", "sleep"}, m.Ops())
}

type failingSink struct {
	Memory
	err error
}

func (f *failingSink) Render(context.Context, *image.Paletted) error { return f.err }

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	broken := &failingSink{err: errors.New("panel busy")}
	multi := Multi{a, broken, b}
	ctx := context.Background()

	require.NoError(t, multi.Init(ctx))
	err := multi.Render(ctx, testFrame())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panel busy")

	assert.Equal(t, 1, a.Frames())
	assert.Equal(t, 1, b.Frames(), "later sinks still receive the frame")
	assert.Equal(t, []string{"init"}, broken.Ops())
}

func TestMemory_OpsHistoryIsBounded(t *testing.T) {
	m := NewMemory()
	for range 100 {
		require.NoError(t, m.Sleep(context.Background()))
	}
	require.NoError(t, m.Init(context.Background()))

	ops := m.Ops()
	assert.LessOrEqual(t, len(ops), maxOps)
	assert.Equal(t, "init", ops[len(ops)-1])
}
