package domain

import (
	"image/color"

	"github.com/paulmach/orb"
)

// Severity is an NWS alert severity string as published in the
// "severity" feature property.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityExtreme  Severity = "Extreme"
)

// alertAlpha is the fill opacity shared by every severity color.
const alertAlpha = 128

var severityColors = map[Severity]color.NRGBA{
	SeverityMinor:    {R: 0, G: 255, B: 0, A: alertAlpha},
	SeverityModerate: {R: 255, G: 255, B: 0, A: alertAlpha},
	SeveritySevere:   {R: 255, G: 0, B: 0, A: alertAlpha},
	SeverityExtreme:  {R: 0, G: 0, B: 255, A: alertAlpha},
}

// SeverityColor returns the fill color for a severity. The second result is
// false for any value outside the four known severities, including "".
// Matching is exact and case-sensitive, as in the NWS feed.
func SeverityColor(s Severity) (color.NRGBA, bool) {
	c, ok := severityColors[s]
	return c, ok
}

// AlertGeometry is the closed set of geometries an alert can be drawn from:
// Polygon or MultiPolygon.
type AlertGeometry interface {
	// Outlines returns the rings that get filled, one per polygon.
	Outlines() []orb.Ring
	alertGeometry()
}

// Polygon is a single alert area. Only the first (outer) ring is filled;
// holes are ignored.
type Polygon struct {
	Rings []orb.Ring
}

// Outlines returns the outer ring, if any.
func (p Polygon) Outlines() []orb.Ring {
	if len(p.Rings) == 0 {
		return nil
	}
	return []orb.Ring{p.Rings[0]}
}

func (Polygon) alertGeometry() {}

// MultiPolygon is an ordered set of alert areas.
type MultiPolygon struct {
	Polygons []Polygon
}

// Outlines returns the outer ring of each constituent polygon in order.
func (m MultiPolygon) Outlines() []orb.Ring {
	out := make([]orb.Ring, 0, len(m.Polygons))
	for _, p := range m.Polygons {
		out = append(out, p.Outlines()...)
	}
	return out
}

func (MultiPolygon) alertGeometry() {}

// GeometryFromOrb converts a decoded GeoJSON geometry into an AlertGeometry.
// Types other than Polygon and MultiPolygon yield an UnsupportedGeometryError.
func GeometryFromOrb(g orb.Geometry) (AlertGeometry, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return Polygon{Rings: v}, nil
	case orb.MultiPolygon:
		mp := MultiPolygon{Polygons: make([]Polygon, len(v))}
		for i, p := range v {
			mp.Polygons[i] = Polygon{Rings: p}
		}
		return mp, nil
	case nil:
		return nil, &UnsupportedGeometryError{Type: "null"}
	default:
		return nil, &UnsupportedGeometryError{Type: g.GeoJSONType()}
	}
}

// Alert is a classified alert ready for rasterization.
type Alert struct {
	ID       string
	Event    string
	Severity Severity
	Color    color.NRGBA
	Geometry AlertGeometry
}

// RawAlert is an alert as delivered by a provider, before classification.
// A nil Geometry means the provider published the alert without an area
// (zone-based alerts).
type RawAlert struct {
	ID       string
	Event    string
	Severity string
	Geometry orb.Geometry
}

// ClassifyAlerts assigns severity colors and converts geometries, preserving
// input order. Alerts with an unknown severity or without geometry are
// dropped. An unsupported geometry type on a kept alert is an error.
func ClassifyAlerts(raw []RawAlert) ([]Alert, error) {
	out := make([]Alert, 0, len(raw))
	for _, r := range raw {
		sev := Severity(r.Severity)
		c, ok := SeverityColor(sev)
		if !ok {
			continue
		}
		if r.Geometry == nil {
			continue
		}
		geom, err := GeometryFromOrb(r.Geometry)
		if err != nil {
			return nil, err
		}
		out = append(out, Alert{
			ID:       r.ID,
			Event:    r.Event,
			Severity: sev,
			Color:    c,
			Geometry: geom,
		})
	}
	return out, nil
}
