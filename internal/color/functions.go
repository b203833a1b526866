package color

import "github.com/lucasb-eyer/go-colorful"

// toColorful returns c in go-colorful's representation: hue in degrees,
// saturation and lightness in [0, 1].
func (c Color) toColorful() colorful.Color {
	return colorful.Hsl(c.Hue, c.Saturation/100, c.Lightness/100).Clamped()
}

// RGB converts c to 8-bit sRGB components.
func (c Color) RGB() (r, g, b uint8) {
	return c.toColorful().RGB255()
}

// Hex returns the sRGB equivalent of c as a hex string with leading #, e.g. "#eb6f92".
func (c Color) Hex() string {
	return c.toColorful().Hex()
}
