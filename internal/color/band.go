package color

import (
	"fmt"
	"math/rand/v2"
)

// Range is an interval of one HSL component.
type Range struct {
	Lo, Hi float64
}

// Band is a named region of the HSL cube that colors can be sampled from.
// Hue ranges may extend past 360 to express a band that wraps through 0.
type Band struct {
	Name       string
	Hue        Range
	Saturation Range
	Lightness  Range
}

// Full is the complete saturation or lightness range.
var Full = Range{Lo: 0, Hi: 100}

// Bands are the built-in hue bands. The boundaries were chosen by eye: green
// and blue cover much more of the hue circle than red and yellow do.
var Bands = []Band{
	{Name: "red", Hue: Range{330, 370}, Saturation: Full, Lightness: Full},
	{Name: "orange", Hue: Range{10, 40}, Saturation: Full, Lightness: Full},
	{Name: "yellow", Hue: Range{40, 85}, Saturation: Full, Lightness: Full},
	{Name: "green", Hue: Range{85, 160}, Saturation: Full, Lightness: Full},
	{Name: "blue", Hue: Range{160, 250}, Saturation: Full, Lightness: Full},
	{Name: "purple", Hue: Range{250, 330}, Saturation: Full, Lightness: Full},
}

// LookupBand returns the built-in band with the given name.
func LookupBand(name string) (Band, bool) {
	for _, b := range Bands {
		if b.Name == name {
			return b, true
		}
	}
	return Band{}, false
}

// Validate reports whether the band's ranges are usable.
func (b Band) Validate() error {
	if b.Hue.Hi < b.Hue.Lo {
		return fmt.Errorf("band %q: hue range [%g, %g) is inverted", b.Name, b.Hue.Lo, b.Hue.Hi)
	}
	for _, rng := range []struct {
		name string
		r    Range
	}{{"saturation", b.Saturation}, {"lightness", b.Lightness}} {
		if rng.r.Hi < rng.r.Lo {
			return fmt.Errorf("band %q: %s range [%g, %g] is inverted", b.Name, rng.name, rng.r.Lo, rng.r.Hi)
		}
		if rng.r.Lo < 0 || rng.r.Hi > 100 {
			return fmt.Errorf("band %q: %s range [%g, %g] outside [0, 100]", b.Name, rng.name, rng.r.Lo, rng.r.Hi)
		}
	}
	return nil
}

// Sample draws a color from the band.
func (b Band) Sample(r *rand.Rand) Color {
	return RandomInRange(r,
		b.Hue.Lo, b.Hue.Hi,
		b.Saturation.Lo, b.Saturation.Hi,
		b.Lightness.Lo, b.Lightness.Hi)
}

// Representative returns the fully saturated mid-lightness color at the
// center of the band's hue range.
func (b Band) Representative() Color {
	return New((b.Hue.Lo+b.Hue.Hi)/2, 100, 50)
}
