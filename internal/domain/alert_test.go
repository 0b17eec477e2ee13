package domain

import (
	"image/color"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.Ring {
	return orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity Severity
		want     color.NRGBA
		ok       bool
	}{
		{SeverityMinor, color.NRGBA{0, 255, 0, 128}, true},
		{SeverityModerate, color.NRGBA{255, 255, 0, 128}, true},
		{SeveritySevere, color.NRGBA{255, 0, 0, 128}, true},
		{SeverityExtreme, color.NRGBA{0, 0, 255, 128}, true},
		{"Unknown", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
		{"severe", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			got, ok := SeverityColor(tt.severity)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)

			// Pure: a second lookup gives the same answer.
			again, okAgain := SeverityColor(tt.severity)
			assert.Equal(t, got, again)
			assert.Equal(t, ok, okAgain)
		})
	}
}

func TestGeometryFromOrb(t *testing.T) {
	t.Run("polygon keeps rings", func(t *testing.T) {
		poly := orb.Polygon{square(0, 0, 1, 1), square(0.2, 0.2, 0.4, 0.4)}
		g, err := GeometryFromOrb(poly)
		require.NoError(t, err)

		p, ok := g.(Polygon)
		require.True(t, ok)
		assert.Len(t, p.Rings, 2)
		assert.Equal(t, []orb.Ring{square(0, 0, 1, 1)}, g.Outlines(), "only the outer ring is filled")
	})

	t.Run("multipolygon fills each first ring", func(t *testing.T) {
		mp := orb.MultiPolygon{
			{square(0, 0, 1, 1), square(0.2, 0.2, 0.4, 0.4)},
			{square(2, 2, 3, 3)},
		}
		g, err := GeometryFromOrb(mp)
		require.NoError(t, err)
		assert.Equal(t, []orb.Ring{square(0, 0, 1, 1), square(2, 2, 3, 3)}, g.Outlines())
	})

	t.Run("point is unsupported", func(t *testing.T) {
		_, err := GeometryFromOrb(orb.Point{1, 2})
		var unsupported *UnsupportedGeometryError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "Point", unsupported.Type)
	})

	t.Run("line string is unsupported", func(t *testing.T) {
		_, err := GeometryFromOrb(orb.LineString{{0, 0}, {1, 1}})
		var unsupported *UnsupportedGeometryError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "LineString", unsupported.Type)
	})

	t.Run("empty polygon has no outlines", func(t *testing.T) {
		g, err := GeometryFromOrb(orb.Polygon{})
		require.NoError(t, err)
		assert.Empty(t, g.Outlines())
	})
}

func TestClassifyAlerts(t *testing.T) {
	raw := []RawAlert{
		{ID: "a", Event: "Flood Warning", Severity: "Severe", Geometry: orb.Polygon{square(0, 0, 1, 1)}},
		{ID: "b", Event: "Special Statement", Severity: "Unknown", Geometry: orb.Polygon{square(0, 0, 1, 1)}},
		{ID: "c", Event: "Heat Advisory", Severity: "Minor"},
		{ID: "d", Event: "Tornado Warning", Severity: "Extreme", Geometry: orb.MultiPolygon{{square(0, 0, 1, 1)}}},
		{ID: "e", Event: "Test", Severity: "", Geometry: orb.Point{0, 0}},
	}

	alerts, err := ClassifyAlerts(raw)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "a", alerts[0].ID)
	assert.Equal(t, SeveritySevere, alerts[0].Severity)
	assert.Equal(t, color.NRGBA{255, 0, 0, 128}, alerts[0].Color)
	assert.IsType(t, Polygon{}, alerts[0].Geometry)

	assert.Equal(t, "d", alerts[1].ID)
	assert.Equal(t, color.NRGBA{0, 0, 255, 128}, alerts[1].Color)
	assert.IsType(t, MultiPolygon{}, alerts[1].Geometry)
}

func TestClassifyAlerts_UnsupportedGeometryIsError(t *testing.T) {
	raw := []RawAlert{
		{ID: "a", Severity: "Moderate", Geometry: orb.LineString{{0, 0}, {1, 1}}},
	}
	_, err := ClassifyAlerts(raw)
	var unsupported *UnsupportedGeometryError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "unsupported_geometry", ErrorKind(err))
}
