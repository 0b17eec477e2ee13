package raster

import (
	"fmt"
	"image"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/couchcryptid/storm-radar-display/internal/geo"
)

// RasterizeAlerts draws alert areas onto a transparent layer covering bounds.
// Alerts are filled in input order with their severity color, so later
// alerts blend over earlier ones where they overlap. Each polygon's outer
// ring is filled with the even-odd rule; holes are not cut out. Rings with
// fewer than three vertices are skipped.
func RasterizeAlerts(alerts []domain.Alert, bounds domain.GeoBounds, canvas image.Point) (*image.NRGBA, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	out := NewCanvas(canvas)

	var pts []image.Point
	for _, a := range alerts {
		if a.Geometry == nil {
			continue
		}
		for _, ring := range a.Geometry.Outlines() {
			if len(ring) < 3 {
				continue
			}
			pts = pts[:0]
			for _, p := range ring {
				pt, err := geo.Project(p.Lat(), p.Lon(), bounds, canvas)
				if err != nil {
					return nil, fmt.Errorf("alert %s: %w", a.ID, err)
				}
				pts = append(pts, pt)
			}
			fillPolygon(out, pts, a.Color)
		}
	}
	return out, nil
}
