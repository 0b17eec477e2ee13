package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

// ReduceOpacity returns a copy of img with every alpha value multiplied by
// factor and truncated. RGB is untouched. factor is clamped to [0, 1].
func ReduceOpacity(img *image.NRGBA, factor float64) *image.NRGBA {
	factor = math.Max(0, math.Min(1, factor))
	out := ToNRGBA(img)
	if factor == 1 {
		return out
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = uint8(float64(out.Pix[i]) * factor)
	}
	return out
}

// CompositeOver blends top over bottom with the source-over operator on
// straight alpha:
//
//	out_a   = ta + ba·(1−ta)
//	out_rgb = (top·ta + bottom·ba·(1−ta)) / out_a
//
// Both layers must be the same size.
func CompositeOver(bottom, top *image.NRGBA) (*image.NRGBA, error) {
	bb, tb := bottom.Bounds(), top.Bounds()
	if bb.Size() != tb.Size() {
		return nil, &domain.GeometryError{Reason: fmt.Sprintf("layer size %v does not match %v", tb.Size(), bb.Size())}
	}
	out := ToNRGBA(bottom)
	for y := 0; y < tb.Dy(); y++ {
		for x := 0; x < tb.Dx(); x++ {
			ti := top.PixOffset(tb.Min.X+x, tb.Min.Y+y)
			oi := out.PixOffset(x, y)
			t := color.NRGBA{R: top.Pix[ti], G: top.Pix[ti+1], B: top.Pix[ti+2], A: top.Pix[ti+3]}
			over(out.Pix[oi:oi+4:oi+4], t)
		}
	}
	return out, nil
}

// Flatten composites layers left to right: layers[0] is the bottom.
func Flatten(layers ...*image.NRGBA) (*image.NRGBA, error) {
	if len(layers) == 0 {
		return nil, errors.New("flatten: no layers")
	}
	out := ToNRGBA(layers[0])
	for i, l := range layers[1:] {
		var err error
		if out, err = CompositeOver(out, l); err != nil {
			return nil, fmt.Errorf("flatten layer %d: %w", i+1, err)
		}
	}
	return out, nil
}

// over blends t onto the 4-byte straight-alpha pixel p in place.
func over(p []uint8, t color.NRGBA) {
	switch t.A {
	case 0:
		return
	case 255:
		p[0], p[1], p[2], p[3] = t.R, t.G, t.B, 255
		return
	}
	ta := float64(t.A) / 255
	ba := float64(p[3]) / 255
	oa := ta + ba*(1-ta)
	bw := ba * (1 - ta)
	p[0] = quantize8((float64(t.R)*ta + float64(p[0])*bw) / oa)
	p[1] = quantize8((float64(t.G)*ta + float64(p[1])*bw) / oa)
	p[2] = quantize8((float64(t.B)*ta + float64(p[2])*bw) / oa)
	p[3] = quantize8(oa * 255)
}

func quantize8(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
