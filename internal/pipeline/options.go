package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/couchcryptid/storm-radar-display/internal/geo"
	"github.com/couchcryptid/storm-radar-display/internal/quantize"
	"github.com/couchcryptid/storm-radar-display/internal/raster"
	"github.com/jonboulle/clockwork"
)

// Layer names a compositing layer.
type Layer string

const (
	LayerBasemap     Layer = "basemap"
	LayerRadar       Layer = "radar"
	LayerAlerts      Layer = "alerts"
	LayerAnnotations Layer = "annotations"
)

// DefaultLayerOrder is bottom to top.
var DefaultLayerOrder = []Layer{LayerBasemap, LayerRadar, LayerAlerts, LayerAnnotations}

// ParseLayerOrder converts names into layers, rejecting unknown or repeated ones.
func ParseLayerOrder(names []string) ([]Layer, error) {
	if len(names) == 0 {
		return nil, errors.New("layer order is empty")
	}
	seen := make(map[Layer]bool, len(names))
	order := make([]Layer, 0, len(names))
	for _, n := range names {
		l := Layer(n)
		switch l {
		case LayerBasemap, LayerRadar, LayerAlerts, LayerAnnotations:
		default:
			return nil, fmt.Errorf("unknown layer %q", n)
		}
		if seen[l] {
			return nil, fmt.Errorf("layer %q listed twice", n)
		}
		seen[l] = true
		order = append(order, l)
	}
	return order, nil
}

// Options configures a Pipeline. Start from DefaultOptions.
type Options struct {
	Lat, Lon float64
	Zoom     float64
	Size     image.Point
	Bounds   geo.BoundsStrategy

	RadarOpacity float64
	AlertOpacity float64
	RadarScale   float64
	RadarOffset  image.Point
	LayerOrder   []Layer

	Palette  domain.Palette
	Quantize []quantize.Option

	CrosshairSize   int // arm length either side of the center
	CrosshairWidth  int
	MarkerColor     color.NRGBA
	TimestampFormat string // Go time layout; empty disables the label
	LabelAnchor     raster.Anchor
	FontSize        float64 // points of Go Regular; 0 selects the bitmap face

	Clock clockwork.Clock
}

// DefaultOptions returns the Houston-area defaults for an 800×480 panel.
func DefaultOptions() Options {
	return Options{
		Lat:             29.6165,
		Lon:             -95.1696,
		Zoom:            6.5,
		Size:            image.Pt(800, 480),
		Bounds:          geo.FixedDelta{Delta: 5},
		RadarOpacity:    0.3,
		AlertOpacity:    1,
		RadarScale:      1,
		LayerOrder:      DefaultLayerOrder,
		Palette:         domain.DefaultPalette,
		CrosshairSize:   10,
		CrosshairWidth:  2,
		MarkerColor:     color.NRGBA{R: 255, A: 255},
		TimestampFormat: "Last updated: 2006-01-02 15:04",
		LabelAnchor:     raster.AnchorBottomLeft,
		FontSize:        14,
		Clock:           clockwork.NewRealClock(),
	}
}

func (o Options) validate() error {
	switch {
	case o.Size.X <= 0 || o.Size.Y <= 0:
		return errors.New("canvas size must be positive")
	case o.Bounds == nil:
		return errors.New("bounds strategy is required")
	case len(o.Palette) == 0:
		return errors.New("palette is empty")
	case len(o.LayerOrder) == 0:
		return errors.New("layer order is empty")
	case o.RadarScale <= 0:
		return errors.New("radar scale must be positive")
	case o.Clock == nil:
		return errors.New("clock is required")
	}
	names := make([]string, len(o.LayerOrder))
	for i, l := range o.LayerOrder {
		names[i] = string(l)
	}
	_, err := ParseLayerOrder(names)
	return err
}
