// Package swatch holds the movable colored rectangle the user positions over
// the value scale.
package swatch

import (
	"math"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/color"
)

// NoMin and NoMax disable a bound of ShiftCenterX.
var (
	NoMin = math.Inf(-1)
	NoMax = math.Inf(1)
)

// Swatch is a filled rectangle positioned by its center.
type Swatch struct {
	CenterX, CenterY float64
	Width, Height    float64
	Color            color.Color
}

// New returns a swatch centered on (cx, cy).
func New(cx, cy, width, height float64, c color.Color) *Swatch {
	return &Swatch{CenterX: cx, CenterY: cy, Width: width, Height: height, Color: c}
}

// ShiftCenterX moves the center by delta and clamps it into [lo, hi]. Pass
// NoMin or NoMax to leave a side unbounded.
func (s *Swatch) ShiftCenterX(delta, lo, hi float64) {
	x := math.Min(s.CenterX+delta, hi)
	s.CenterX = math.Max(x, lo)
}

// SetColor replaces the swatch color.
func (s *Swatch) SetColor(c color.Color) {
	s.Color = c
}

// Rect returns the area the swatch covers.
func (s *Swatch) Rect() canvas.Rect {
	return canvas.Centered(s.CenterX, s.CenterY, s.Width, s.Height)
}

func (s *Swatch) Draw(p canvas.Painter) {
	p.FillRect(s.Rect(), s.Color)
}
