package color

import (
	"math"
	"math/rand/v2"
)

// Generator produces a color from a random source.
type Generator func(r *rand.Rand) Color

// Random returns a color sampled uniformly over the whole HSL cube.
func Random(r *rand.Rand) Color {
	return RandomInRange(r, 0, 360, 0, 100, 0, 100)
}

// RandomGreyscale returns an achromatic color with uniformly sampled lightness.
func RandomGreyscale(r *rand.Rand) Color {
	return Grey(uniform(r, 0, 100))
}

// RandomInRange samples each HSL component independently and uniformly from
// its range. The hue is sampled from [hueLo, hueHi) and then reduced mod 360,
// so a band such as (330, 370) wraps through red.
func RandomInRange(r *rand.Rand, hueLo, hueHi, satLo, satHi, lightLo, lightHi float64) Color {
	hue := uniform(r, hueLo, hueHi)
	if hue >= hueHi && hueHi > hueLo {
		// Float rounding can land exactly on the open end.
		hue = math.Nextafter(hueHi, hueLo)
	}
	return New(
		hue,
		uniform(r, satLo, satHi),
		uniform(r, lightLo, lightHi),
	)
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
