package raster

import (
	"image"

	"golang.org/x/image/draw"
)

// NewCanvas returns a fully transparent layer of the given size.
func NewCanvas(size image.Point) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
}

// ToNRGBA returns a copy of img as a tightly packed *image.NRGBA whose bounds
// start at the origin. NRGBA sources are copied byte for byte; anything else
// goes through a Src draw.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		rowLen := 4 * b.Dx()
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+rowLen], src.Pix[si:si+rowLen])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// paste copies src onto dst with its top-left corner at at, replacing the
// covered pixels. Pixels falling outside dst are clipped.
func paste(dst, src *image.NRGBA, at image.Point) {
	target := src.Bounds().Sub(src.Bounds().Min).Add(at).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}
	sp := target.Min.Sub(at).Add(src.Bounds().Min)
	rowLen := 4 * target.Dx()
	for y := 0; y < target.Dy(); y++ {
		di := dst.PixOffset(target.Min.X, target.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		copy(dst.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
}
