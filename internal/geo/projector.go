// Package geo converts between geographic coordinates and canvas pixels.
//
// Two projections are involved. Basemaps and tiles are Web-Mercator, so the
// geographic extent of a canvas is derived in Mercator pixel space (see
// [MercatorZoom]). Placing points on the canvas once the extent is known is
// a plain equirectangular interpolation ([Project]), matching how WMS
// providers render EPSG:4326 requests.
package geo

import (
	"image"
	"math"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

// TileSize is the edge length of a Web-Mercator tile in pixels.
const TileSize = 256

// worldSize returns the width of the Mercator world in pixels at zoom.
func worldSize(zoom float64) float64 {
	return TileSize * math.Exp2(zoom)
}

// MercatorForward converts a coordinate to global Mercator pixels at zoom.
func MercatorForward(lat, lon, zoom float64) (x, y float64) {
	w := worldSize(zoom)
	phi := lat * math.Pi / 180
	x = (lon + 180) / 360 * w
	y = (1 - math.Log(math.Tan(phi)+1/math.Cos(phi))/math.Pi) / 2 * w
	return x, y
}

// MercatorInverse converts global Mercator pixels at zoom back to degrees.
func MercatorInverse(x, y, zoom float64) (lat, lon float64) {
	w := worldSize(zoom)
	lon = x/w*360 - 180
	lat = math.Atan(math.Sinh(math.Pi-2*math.Pi*y/w)) * 180 / math.Pi
	return lat, lon
}

// Project maps a coordinate onto a canvas covering bounds. Results are
// truncated toward zero, so points just left of or above the canvas may land
// on column or row 0. Points outside bounds yield pixels outside the canvas.
func Project(lat, lon float64, bounds domain.GeoBounds, size image.Point) (image.Point, error) {
	if err := bounds.Validate(); err != nil {
		return image.Point{}, err
	}
	x := (lon - bounds.MinLon) / bounds.LonSpan() * float64(size.X)
	y := (bounds.MaxLat - lat) / bounds.LatSpan() * float64(size.Y)
	return image.Pt(int(x), int(y)), nil
}

// Unproject returns the coordinate at the center of pixel pt.
func Unproject(pt image.Point, bounds domain.GeoBounds, size image.Point) (lat, lon float64, err error) {
	if err := bounds.Validate(); err != nil {
		return 0, 0, err
	}
	if size.X <= 0 || size.Y <= 0 {
		return 0, 0, &domain.GeometryError{Reason: "canvas has no area"}
	}
	lon = bounds.MinLon + (float64(pt.X)+0.5)/float64(size.X)*bounds.LonSpan()
	lat = bounds.MaxLat - (float64(pt.Y)+0.5)/float64(size.Y)*bounds.LatSpan()
	return lat, lon, nil
}
