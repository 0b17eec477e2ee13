package raster

import (
	"image"
	"image/color"
	"math"
	"slices"
)

// fillPolygon blends c over every pixel of dst whose center lies inside the
// closed polygon pts under the even-odd rule. The closing edge from the last
// vertex back to the first is implied.
func fillPolygon(dst *image.NRGBA, pts []image.Point, c color.NRGBA) {
	n := len(pts)
	if n < 3 || c.A == 0 {
		return
	}
	b := dst.Bounds()

	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, b.Min.Y)
	maxY = min(maxY, b.Max.Y)

	xs := make([]float64, 0, n)
	for y := minY; y < maxY; y++ {
		sy := float64(y) + 0.5

		// Each edge contributes when the scanline crosses its half-open
		// vertical extent [y0, y1), so shared vertices count once.
		xs = xs[:0]
		for i := range n {
			p0, p1 := pts[i], pts[(i+1)%n]
			y0, y1 := float64(p0.Y), float64(p1.Y)
			if (sy >= y0) == (sy >= y1) {
				continue
			}
			xs = append(xs, float64(p0.X)+(sy-y0)*float64(p1.X-p0.X)/(y1-y0))
		}
		slices.Sort(xs)

		for k := 0; k+1 < len(xs); k += 2 {
			// Pixel x is inside when its center x+0.5 lies in [xs[k], xs[k+1]).
			x0 := max(int(math.Ceil(xs[k]-0.5)), b.Min.X)
			x1 := min(int(math.Ceil(xs[k+1]-0.5)), b.Max.X)
			for x := x0; x < x1; x++ {
				i := dst.PixOffset(x, y)
				over(dst.Pix[i:i+4:i+4], c)
			}
		}
	}
}
