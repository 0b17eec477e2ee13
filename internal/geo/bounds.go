package geo

import (
	"fmt"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

// BoundsStrategy derives the geographic extent of a canvas centered on a point.
type BoundsStrategy interface {
	Bounds(lat, lon, zoom float64, width, height int) (domain.GeoBounds, error)
}

// MercatorZoom computes the exact extent a Web-Mercator basemap of the given
// zoom and size shows around the center.
type MercatorZoom struct{}

func (MercatorZoom) Bounds(lat, lon, zoom float64, width, height int) (domain.GeoBounds, error) {
	if width <= 0 || height <= 0 {
		return domain.GeoBounds{}, &domain.GeometryError{Reason: fmt.Sprintf("canvas %dx%d has no area", width, height)}
	}
	cx, cy := MercatorForward(lat, lon, zoom)
	hw, hh := float64(width)/2, float64(height)/2

	maxLat, minLon := MercatorInverse(cx-hw, cy-hh, zoom)
	minLat, maxLon := MercatorInverse(cx+hw, cy+hh, zoom)

	b := domain.GeoBounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	return b, b.Validate()
}

// FixedDelta spans a constant number of degrees on each side of the center,
// ignoring zoom and canvas size.
type FixedDelta struct {
	Delta float64
}

func (s FixedDelta) Bounds(lat, lon, _ float64, _, _ int) (domain.GeoBounds, error) {
	return deltaBounds(lat, lon, s.Delta)
}

// ZoomScaledDelta shrinks the span linearly as zoom increases:
// delta = PerLevel * (MaxZoom - zoom). Zoom levels at or past MaxZoom are a
// GeometryError.
type ZoomScaledDelta struct {
	PerLevel float64
	MaxZoom  float64
}

// DefaultZoomScaledDelta approximates a 0.05° step per zoom level below 15.
var DefaultZoomScaledDelta = ZoomScaledDelta{PerLevel: 0.05, MaxZoom: 15}

func (s ZoomScaledDelta) Bounds(lat, lon, zoom float64, _, _ int) (domain.GeoBounds, error) {
	return deltaBounds(lat, lon, s.PerLevel*(s.MaxZoom-zoom))
}

func deltaBounds(lat, lon, delta float64) (domain.GeoBounds, error) {
	if !(delta > 0) {
		return domain.GeoBounds{}, &domain.GeometryError{Reason: fmt.Sprintf("bounds delta %g is not positive", delta)}
	}
	b := domain.GeoBounds{MinLat: lat - delta, MinLon: lon - delta, MaxLat: lat + delta, MaxLon: lon + delta}
	return b, b.Validate()
}

// NewBoundsStrategy selects a strategy by its configuration name.
func NewBoundsStrategy(name string, delta float64) (BoundsStrategy, error) {
	switch name {
	case "mercator":
		return MercatorZoom{}, nil
	case "fixed":
		return FixedDelta{Delta: delta}, nil
	case "zoom-delta":
		return DefaultZoomScaledDelta, nil
	default:
		return nil, fmt.Errorf("unknown bounds strategy %q", name)
	}
}
