package domain

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette is the ordered set of colors a display can show. Order only
// matters for breaking ties between equidistant colors.
type Palette []color.RGBA

// DefaultPalette is the six-color e-paper palette.
var DefaultPalette = Palette{
	{R: 255, G: 255, B: 255, A: 255}, // white
	{R: 0, G: 0, B: 0, A: 255},       // black
	{R: 255, G: 0, B: 0, A: 255},     // red
	{R: 255, G: 255, B: 0, A: 255},   // yellow
	{R: 0, G: 255, B: 0, A: 255},     // green
	{R: 0, G: 0, B: 255, A: 255},     // blue
}

// ColorPalette converts p for use with image.Paletted.
func (p Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c
	}
	return out
}

// ParsePalette parses a comma-separated list of "#rrggbb" or "#rgb" colors.
func ParsePalette(s string) (Palette, error) {
	parts := strings.Split(s, ",")
	p := make(Palette, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := parseHexColor(part)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("palette %q has no colors", s)
	}
	if len(p) > 256 {
		return nil, fmt.Errorf("palette has %d colors, at most 256 allowed", len(p))
	}
	return p, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
