package raster

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Anchor selects the canvas corner a label is placed against.
type Anchor int

const (
	AnchorBottomLeft Anchor = iota
	AnchorBottomRight
	AnchorTopLeft
	AnchorTopRight
)

// ParseAnchor accepts "bottom-left", "bottom-right", "top-left", "top-right".
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "bottom-left", "":
		return AnchorBottomLeft, nil
	case "bottom-right":
		return AnchorBottomRight, nil
	case "top-left":
		return AnchorTopLeft, nil
	case "top-right":
		return AnchorTopRight, nil
	default:
		return 0, fmt.Errorf("unknown label anchor %q", s)
	}
}

// Annotation is the marker and label drawn on top of a frame.
type Annotation struct {
	Marker image.Point
	Label  string
	Anchor Anchor
}

// FontMetrics describes how a label is measured and boxed.
type FontMetrics struct {
	Face       font.Face
	Margin     int // gap between the text and the anchored canvas edges
	BoxPadding int // background extends this far past the text bounds
	Background color.NRGBA
	Foreground color.NRGBA
}

var (
	labelBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	labelForeground = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// NewFontMetrics returns label metrics using Go Regular at sizePt points.
// Each call builds a new face; faces must not be shared between runs.
func NewFontMetrics(sizePt float64) (FontMetrics, error) {
	f, err := goRegular()
	if err != nil {
		return FontMetrics{}, fmt.Errorf("parse label font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return FontMetrics{}, fmt.Errorf("create label face: %w", err)
	}
	return metricsFor(face), nil
}

// BasicFontMetrics returns label metrics using the built-in 7x13 bitmap face.
func BasicFontMetrics() FontMetrics {
	return metricsFor(basicfont.Face7x13)
}

func metricsFor(face font.Face) FontMetrics {
	return FontMetrics{
		Face:       face,
		Margin:     5,
		BoxPadding: 2,
		Background: labelBackground,
		Foreground: labelForeground,
	}
}

// DrawCrosshair draws a horizontal and a vertical segment through center,
// each reaching halfLength pixels to either side, lineWidth pixels thick.
// Both endpoints are inclusive, so each arm covers 2*halfLength+1 pixels.
func DrawCrosshair(overlay *image.NRGBA, center image.Point, halfLength int, c color.NRGBA, lineWidth int) {
	if lineWidth <= 0 || halfLength < 0 {
		return
	}
	lo := lineWidth / 2
	horizontal := image.Rect(center.X-halfLength, center.Y-lo, center.X+halfLength+1, center.Y-lo+lineWidth)
	vertical := image.Rect(center.X-lo, center.Y-halfLength, center.X-lo+lineWidth, center.Y+halfLength+1)
	fillRect(overlay, horizontal, c)
	fillRect(overlay, vertical, c)
}

// DrawTimestampLabel draws text over a translucent background box in the
// anchored corner of overlay and returns the box it filled.
func DrawTimestampLabel(overlay *image.NRGBA, text string, anchor Anchor, m FontMetrics) image.Rectangle {
	if text == "" || m.Face == nil {
		return image.Rectangle{}
	}
	tb, _ := font.BoundString(m.Face, text)
	tw := (tb.Max.X - tb.Min.X).Ceil()
	th := (tb.Max.Y - tb.Min.Y).Ceil()

	ob := overlay.Bounds()
	tx, ty := ob.Min.X+m.Margin, ob.Max.Y-th-m.Margin
	switch anchor {
	case AnchorBottomRight:
		tx = ob.Max.X - tw - m.Margin
	case AnchorTopLeft:
		ty = ob.Min.Y + m.Margin
	case AnchorTopRight:
		tx, ty = ob.Max.X-tw-m.Margin, ob.Min.Y+m.Margin
	}

	p := m.BoxPadding
	box := image.Rect(tx-p, ty-p, tx+tw+p+1, ty+th+p+1).Intersect(ob)
	fillRect(overlay, box, m.Background)

	d := font.Drawer{
		Dst:  overlay,
		Src:  image.NewUniform(m.Foreground),
		Face: m.Face,
		Dot:  fixed.Point26_6{X: fixed.I(tx) - tb.Min.X, Y: fixed.I(ty) - tb.Min.Y},
	}
	d.DrawString(text)
	return box
}

// NewOverlay returns a transparent annotation layer with the marker and
// label drawn on it.
func NewOverlay(size image.Point, a Annotation, halfLength, lineWidth int, markerColor color.NRGBA, m FontMetrics) *image.NRGBA {
	overlay := NewCanvas(size)
	DrawCrosshair(overlay, a.Marker, halfLength, markerColor, lineWidth)
	DrawTimestampLabel(overlay, a.Label, a.Anchor, m)
	return overlay
}

func fillRect(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}
