// Package scale maps between the discrete steps of a value scale and
// continuous positions and colors.
package scale

import (
	"fmt"
	"math"

	"github.com/jsvensson/valuetrainer/internal/canvas"
	"github.com/jsvensson/valuetrainer/internal/color"
)

// Scale is a horizontal value scale of N steps running from white (index 0)
// to black (index N-1) across a surface of the given width. Everything except
// the step count and the dimensions is derived and recomputed on Resize.
type Scale struct {
	steps         int
	width, height float64

	stepWidth float64
	centers   []float64
	lightness []float64
	colors    []color.Color

	highlight      *color.Color
	highlightIndex int
}

// New returns a scale of steps steps laid out over width×height.
func New(steps int, width, height float64) (*Scale, error) {
	if steps < 2 {
		return nil, &ConfigurationError{Field: "step count", Reason: fmt.Sprintf("%d is less than 2", steps)}
	}
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	s := &Scale{
		steps:     steps,
		lightness: make([]float64, steps),
		colors:    make([]color.Color, steps),
	}
	for i := range steps {
		// Sampled over [0, 100] inclusive, light to dark.
		s.lightness[i] = 100 * float64(steps-1-i) / float64(steps-1)
		s.colors[i] = color.Grey(s.lightness[i])
	}
	s.layout(width, height)
	return s, nil
}

func checkDimensions(width, height float64) error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", width}, {"height", height}} {
		if math.IsNaN(d.v) || math.IsInf(d.v, 0) {
			return &ConfigurationError{Field: d.name, Reason: fmt.Sprintf("%v is not finite", d.v)}
		}
		if d.v <= 0 {
			return &ConfigurationError{Field: d.name, Reason: fmt.Sprintf("%v is not positive", d.v)}
		}
	}
	return nil
}

func (s *Scale) layout(width, height float64) {
	s.width, s.height = width, height
	s.stepWidth = width / float64(s.steps)
	s.centers = make([]float64, s.steps)
	for i := range s.centers {
		s.centers[i] = s.stepWidth*float64(i) + s.stepWidth/2
	}
}

// Resize recomputes the geometry for new dimensions. Resizing to the current
// dimensions leaves the scale unchanged. On error nothing changes.
func (s *Scale) Resize(width, height float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) || math.IsNaN(height) || math.IsInf(height, 0) {
		return fmt.Errorf("%w: resize to non-finite %vx%v", ErrInvalidState, width, height)
	}
	if err := checkDimensions(width, height); err != nil {
		return err
	}
	s.layout(width, height)
	return nil
}

// Steps returns N.
func (s *Scale) Steps() int { return s.steps }

// Width returns the scale width.
func (s *Scale) Width() float64 { return s.width }

// Height returns the scale height.
func (s *Scale) Height() float64 { return s.height }

// StepWidth returns width / N.
func (s *Scale) StepWidth() float64 { return s.stepWidth }

// Center returns the x coordinate of step i's center.
func (s *Scale) Center(i int) float64 {
	s.check(i)
	return s.centers[i]
}

// Centers returns a copy of all step centers in index order.
func (s *Scale) Centers() []float64 {
	return append([]float64(nil), s.centers...)
}

// Lightness returns the sampled lightness of step i.
func (s *Scale) Lightness(i int) float64 {
	s.check(i)
	return s.lightness[i]
}

// StepColorAt returns the color of step i. It panics with IndexOutOfRange
// when i is outside [0, N).
func (s *Scale) StepColorAt(i int) color.Color {
	s.check(i)
	return s.colors[i]
}

// StepRect returns the rectangle step i occupies.
func (s *Scale) StepRect(i int) canvas.Rect {
	s.check(i)
	return canvas.Rect{X: s.stepWidth * float64(i), Y: 0, W: s.stepWidth, H: s.height}
}

func (s *Scale) check(i int) {
	if i < 0 || i >= s.steps {
		panic(IndexOutOfRange{Index: i, Steps: s.steps})
	}
}

// epsilon is the tolerance for treating two distances as equal.
func (s *Scale) epsilon() float64 {
	return s.stepWidth * 1e-9
}

// StepOfColor returns the step whose lightness is closest to c's. Ties go to
// the lowest index.
func (s *Scale) StepOfColor(c color.Color) int {
	best, idx := math.Inf(1), 0
	for i, l := range s.lightness {
		if d := math.Abs(c.Lightness - l); d < best-1e-9 {
			best, idx = d, i
		}
	}
	return idx
}

// StepOfPosition returns the step whose center is nearest to x. When x is
// equidistant from two adjacent centers the result is the lower index plus
// 0.5.
func (s *Scale) StepOfPosition(x float64) float64 {
	eps := s.epsilon()
	best, first, last := math.Inf(1), 0, 0
	for i, c := range s.centers {
		d := math.Abs(x - c)
		switch {
		case d < best-eps:
			best, first, last = d, i, i
		case d <= best+eps:
			last = i
		}
	}
	if last == first+1 {
		return float64(first) + 0.5
	}
	return float64(first)
}

// RestPositions returns the 2N-1 positions a swatch may come to rest at:
// every step center and every midpoint between adjacent centers.
func (s *Scale) RestPositions() []float64 {
	half := s.stepWidth / 2
	out := make([]float64, 2*s.steps-1)
	for k := range out {
		out[k] = half * float64(k+1)
	}
	return out
}

// SnapToRest returns the rest position nearest to x, preferring the lower
// one on a tie.
func (s *Scale) SnapToRest(x float64) float64 {
	eps := s.epsilon()
	rest := s.RestPositions()
	best, pos := math.Inf(1), rest[0]
	for _, r := range rest {
		if d := math.Abs(x - r); d < best-eps {
			best, pos = d, r
		}
	}
	return pos
}

// Highlight paints step i in c instead of its own color until
// ClearHighlight is called.
func (s *Scale) Highlight(i int, c color.Color) {
	s.check(i)
	s.highlight = &c
	s.highlightIndex = i
}

// ClearHighlight restores every step to its own color.
func (s *Scale) ClearHighlight() {
	s.highlight = nil
}

// Draw renders every step as a filled rectangle.
func (s *Scale) Draw(p canvas.Painter) {
	for i := range s.steps {
		c := s.colors[i]
		if s.highlight != nil && i == s.highlightIndex {
			c = *s.highlight
		}
		p.FillRect(s.StepRect(i), c)
	}
}
