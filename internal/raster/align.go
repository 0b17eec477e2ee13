package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// maxScaledSide bounds the virtual size of a scaled layer so its placement
// stays representable in integer pixel coordinates.
const maxScaledSide = 1 << 24

// Align registers a layer fetched from a different provider against the
// canvas. The layer is resized by scale with Catmull-Rom interpolation and
// placed centered on a transparent canvas, shifted by (offsetX, offsetY).
// Only the part of the scaled layer that lands on the canvas is rendered, so
// cost follows the canvas size rather than the scale. Uncovered canvas pixels
// stay fully transparent.
func Align(src image.Image, scale float64, offsetX, offsetY int, canvas image.Point) (*image.NRGBA, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, &domain.GeometryError{Reason: fmt.Sprintf("scale factor %g is not positive", scale)}
	}
	if canvas.X <= 0 || canvas.Y <= 0 {
		return nil, &domain.GeometryError{Reason: fmt.Sprintf("canvas %dx%d has no area", canvas.X, canvas.Y)}
	}

	out := NewCanvas(canvas)
	sb := src.Bounds()
	if sb.Empty() {
		return out, nil
	}

	if scale == 1 {
		at := image.Pt((canvas.X-sb.Dx())/2+offsetX, (canvas.Y-sb.Dy())/2+offsetY)
		paste(out, ToNRGBA(src), at)
		return out, nil
	}

	sw := float64(sb.Dx()) * scale
	sh := float64(sb.Dy()) * scale
	if sw > maxScaledSide || sh > maxScaledSide {
		return nil, &domain.GeometryError{Reason: fmt.Sprintf("scale factor %g makes a %dx%d layer too large", scale, sb.Dx(), sb.Dy())}
	}

	tx := (float64(canvas.X)-sw)/2 + float64(offsetX)
	ty := (float64(canvas.Y)-sh)/2 + float64(offsetY)
	s2d := f64.Aff3{
		scale, 0, tx - scale*float64(sb.Min.X),
		0, scale, ty - scale*float64(sb.Min.Y),
	}
	draw.CatmullRom.Transform(out, s2d, src, sb, draw.Src, nil)
	return out, nil
}
