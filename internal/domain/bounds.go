package domain

import "fmt"

// GeoBounds is a latitude/longitude bounding box in degrees.
type GeoBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Validate reports a GeometryError when either axis has a zero or negative span.
func (b GeoBounds) Validate() error {
	if !(b.MinLat < b.MaxLat) {
		return &GeometryError{Reason: fmt.Sprintf("latitude span is not positive (min %g, max %g)", b.MinLat, b.MaxLat)}
	}
	if !(b.MinLon < b.MaxLon) {
		return &GeometryError{Reason: fmt.Sprintf("longitude span is not positive (min %g, max %g)", b.MinLon, b.MaxLon)}
	}
	return nil
}

// LatSpan returns MaxLat - MinLat.
func (b GeoBounds) LatSpan() float64 { return b.MaxLat - b.MinLat }

// LonSpan returns MaxLon - MinLon.
func (b GeoBounds) LonSpan() float64 { return b.MaxLon - b.MinLon }

// Center returns the midpoint of the box.
func (b GeoBounds) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Contains reports whether the point lies inside or on the edge of the box.
func (b GeoBounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

func (b GeoBounds) String() string {
	return fmt.Sprintf("[%.4f,%.4f .. %.4f,%.4f]", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}
