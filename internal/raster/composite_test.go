package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceOpacity_Identity(t *testing.T) {
	src := gradient(16, 16)
	out := ReduceOpacity(src, 1.0)
	assert.Equal(t, src.Pix, out.Pix)
	assert.NotSame(t, &src.Pix[0], &out.Pix[0], "a copy is returned")
}

func TestReduceOpacity_Zero(t *testing.T) {
	src := gradient(16, 16)
	out := ReduceOpacity(src, 0.0)
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Equal(t, src.Pix[i:i+3], out.Pix[i:i+3], "rgb unchanged at %d", i)
		assert.Zero(t, out.Pix[i+3])
	}
}

func TestReduceOpacity_Truncates(t *testing.T) {
	src := uniform(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out := ReduceOpacity(src, 0.3)
	// 255 * 0.3 = 76.5 -> 76
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 76}, out.NRGBAAt(0, 0))

	out = ReduceOpacity(src, 0.7)
	// 255 * 0.7 = 178.5 -> 178
	assert.Equal(t, uint8(178), out.NRGBAAt(0, 0).A)
}

func TestReduceOpacity_Clamps(t *testing.T) {
	src := gradient(4, 4)
	assert.Equal(t, src.Pix, ReduceOpacity(src, 3).Pix)
	for i := 3; i < 64; i += 4 {
		assert.Zero(t, ReduceOpacity(src, -1).Pix[i])
	}
}

func TestCompositeOver_TransparentTopIsIdentity(t *testing.T) {
	bottom := gradient(20, 12)
	top := NewCanvas(image.Pt(20, 12))

	out, err := CompositeOver(bottom, top)
	require.NoError(t, err)
	assert.Equal(t, bottom.Pix, out.Pix)
}

func TestCompositeOver_OpaqueTopReplaces(t *testing.T) {
	bottom := gradient(8, 8)
	top := uniform(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	out, err := CompositeOver(bottom, top)
	require.NoError(t, err)
	assert.Equal(t, top.Pix, out.Pix)
}

func TestCompositeOver_Formula(t *testing.T) {
	tests := []struct {
		name        string
		bottom, top color.NRGBA
		want        color.NRGBA
	}{
		{
			name:   "half red over opaque white",
			bottom: color.NRGBA{255, 255, 255, 255},
			top:    color.NRGBA{255, 0, 0, 128},
			// rgb = 255*0.502 + 255*0.498, 0*0.502 + 255*0.498 = 127
			want: color.NRGBA{255, 127, 127, 255},
		},
		{
			name:   "half red over transparent",
			bottom: color.NRGBA{0, 0, 0, 0},
			top:    color.NRGBA{255, 0, 0, 128},
			want:   color.NRGBA{255, 0, 0, 128},
		},
		{
			name:   "half blue over half green",
			bottom: color.NRGBA{0, 255, 0, 128},
			top:    color.NRGBA{0, 0, 255, 128},
			// ta=0.502 ba=0.502 oa=0.752; g = 255*0.502*0.498/0.752 = 84.8; b = 255*0.502/0.752 = 170.2
			want: color.NRGBA{0, 85, 170, 192},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CompositeOver(uniform(1, 1, tt.bottom), uniform(1, 1, tt.top))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.NRGBAAt(0, 0))
		})
	}
}

func TestCompositeOver_SizeMismatch(t *testing.T) {
	_, err := CompositeOver(NewCanvas(image.Pt(10, 10)), NewCanvas(image.Pt(10, 11)))
	var geomErr *domain.GeometryError
	require.ErrorAs(t, err, &geomErr)
}

func TestCompositeOver_DoesNotMutateInputs(t *testing.T) {
	bottom := gradient(6, 6)
	top := uniform(6, 6, color.NRGBA{R: 9, A: 100})
	before := append([]uint8(nil), bottom.Pix...)

	_, err := CompositeOver(bottom, top)
	require.NoError(t, err)
	assert.Equal(t, before, bottom.Pix)
}

func TestFlatten_OrderMatters(t *testing.T) {
	white := uniform(1, 1, color.NRGBA{255, 255, 255, 255})
	redHalf := uniform(1, 1, color.NRGBA{255, 0, 0, 128})
	blueOpaque := uniform(1, 1, color.NRGBA{0, 0, 255, 255})

	out, err := Flatten(white, redHalf, blueOpaque)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(0, 0))

	out, err = Flatten(white, blueOpaque, redHalf)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{128, 0, 127, 255}, out.NRGBAAt(0, 0))
}

func TestFlatten_Errors(t *testing.T) {
	_, err := Flatten()
	require.Error(t, err)

	_, err = Flatten(NewCanvas(image.Pt(2, 2)), NewCanvas(image.Pt(3, 3)))
	var geomErr *domain.GeometryError
	require.ErrorAs(t, err, &geomErr)
	assert.Contains(t, err.Error(), "layer 1")
}
