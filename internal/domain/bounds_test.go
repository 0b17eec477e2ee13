package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoBounds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  GeoBounds
		wantErr string
	}{
		{"valid", GeoBounds{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}, ""},
		{"zero latitude span", GeoBounds{MinLat: 5, MinLon: 0, MaxLat: 5, MaxLon: 10}, "latitude"},
		{"zero longitude span", GeoBounds{MinLat: 0, MinLon: 3, MaxLat: 10, MaxLon: 3}, "longitude"},
		{"inverted latitude", GeoBounds{MinLat: 10, MinLon: 0, MaxLat: 0, MaxLon: 10}, "latitude"},
		{"inverted longitude", GeoBounds{MinLat: 0, MinLon: 10, MaxLat: 10, MaxLon: 0}, "longitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var geomErr *GeometryError
			require.ErrorAs(t, err, &geomErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeoBounds_Helpers(t *testing.T) {
	b := GeoBounds{MinLat: 24.6, MinLon: -100.2, MaxLat: 34.6, MaxLon: -90.2}

	assert.InDelta(t, 10.0, b.LatSpan(), 1e-9)
	assert.InDelta(t, 10.0, b.LonSpan(), 1e-9)

	lat, lon := b.Center()
	assert.InDelta(t, 29.6, lat, 1e-9)
	assert.InDelta(t, -95.2, lon, 1e-9)

	assert.True(t, b.Contains(29.6, -95.2))
	assert.True(t, b.Contains(24.6, -100.2), "edges are inside")
	assert.False(t, b.Contains(40, -95.2))
}
