package color

import (
	"fmt"
	"math"
)

// Color represents an HSL color. Hue is in degrees [0, 360); saturation and
// lightness are percentages [0, 100]. Colors are values: every transform
// returns a new Color.
type Color struct {
	Hue        float64
	Saturation float64
	Lightness  float64
}

// Well-known colors used for judgment feedback.
var (
	Red   = Color{Hue: 0, Saturation: 100, Lightness: 50}
	Green = Color{Hue: 120, Saturation: 100, Lightness: 40}
	Blue  = Color{Hue: 240, Saturation: 100, Lightness: 50}
)

// New returns a Color with hue reduced mod 360 and saturation and lightness
// clamped to [0, 100].
func New(hue, saturation, lightness float64) Color {
	return Color{
		Hue:        wrapHue(hue),
		Saturation: clamp(saturation, 0, 100),
		Lightness:  clamp(lightness, 0, 100),
	}
}

// Grey returns the achromatic color with the given lightness.
func Grey(lightness float64) Color {
	return New(0, 0, lightness)
}

// Lighten returns a copy of c with delta added to its lightness. The result
// is clamped to [0, 100]; delta may be negative.
func (c Color) Lighten(delta float64) Color {
	return Color{
		Hue:        c.Hue,
		Saturation: c.Saturation,
		Lightness:  clamp(c.Lightness+delta, 0, 100),
	}
}

// Greyscale returns the greyscale equivalent of c. Hue and saturation are
// discarded, lightness is kept and clamped to [0, 100].
func (c Color) Greyscale() Color {
	return Grey(c.Lightness)
}

// String returns the canonical form "hsl(H, S%, L%)" with every component
// rounded to the nearest integer.
func (c Color) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)",
		int(math.Round(c.Hue)),
		int(math.Round(c.Saturation)),
		int(math.Round(c.Lightness)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
