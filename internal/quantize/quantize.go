// Package quantize reduces a composited frame to the fixed palette of the
// target display.
package quantize

import (
	"image"
	"image/color"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"golang.org/x/image/draw"
)

// Nearest returns the index of the palette entry closest to c by squared
// Euclidean distance in RGB. Ties go to the earlier entry. Alpha is ignored.
func Nearest(c color.RGBA, p domain.Palette) int {
	best, bestDist := 0, int(^uint(0)>>1)
	for i, pc := range p {
		dr := int(c.R) - int(pc.R)
		dg := int(c.G) - int(pc.G)
		db := int(c.B) - int(pc.B)
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return best
}

// Option configures a Quantizer.
type Option func(*Quantizer)

// WithLookupTable memoizes Nearest over the 24-bit color cube. The table is
// filled lazily and belongs to a single Quantizer.
func WithLookupTable() Option {
	return func(q *Quantizer) { q.lut = newLookupTable() }
}

// WithDither diffuses quantization error with Floyd-Steinberg instead of
// mapping each pixel independently.
func WithDither() Option {
	return func(q *Quantizer) { q.dither = true }
}

// Quantizer maps images onto a palette. A Quantizer is not safe for
// concurrent use when built WithLookupTable.
type Quantizer struct {
	palette domain.Palette
	lut     *lookupTable
	dither  bool
}

// New returns a Quantizer for p.
func New(p domain.Palette, opts ...Option) *Quantizer {
	q := &Quantizer{palette: p}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Quantize is shorthand for New(p, opts...).Quantize(img).
func Quantize(img image.Image, p domain.Palette, opts ...Option) *image.Paletted {
	return New(p, opts...).Quantize(img)
}

// Quantize returns img mapped onto the palette with bounds starting at the
// origin. The straight (non-premultiplied) RGB of each pixel is used and
// alpha is dropped.
func (q *Quantizer) Quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), q.palette.ColorPalette())

	if q.dither {
		draw.FloydSteinberg.Draw(out, out.Bounds(), img, b.Min)
		return out
	}

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * out.Stride
			for x := 0; x < b.Dx(); x++ {
				px := src.Pix[si+4*x : si+4*x+3 : si+4*x+3]
				out.Pix[di+x] = q.index(color.RGBA{R: px[0], G: px[1], B: px[2], A: 255})
			}
		}
		return out
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.Pix[y*out.Stride+x] = q.index(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return out
}

func (q *Quantizer) index(c color.RGBA) uint8 {
	if q.lut != nil {
		return q.lut.lookup(c, q.palette)
	}
	return uint8(Nearest(c, q.palette))
}
