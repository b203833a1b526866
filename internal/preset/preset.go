// Package preset defines the exercise families: a step count paired with the
// region of the HSL cube swatch colors are drawn from.
package preset

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jsvensson/valuetrainer/internal/color"
)

// ErrUnknown is returned when a preset name is not registered.
var ErrUnknown = errors.New("unknown preset")

// Color sources that are not hue bands.
var (
	// Greyscale samples achromatic colors of any lightness.
	Greyscale = color.Band{Name: "greyscale", Lightness: color.Full}
	// Spectrum samples the whole HSL cube.
	Spectrum = color.Band{Name: "spectrum", Hue: color.Range{Lo: 0, Hi: 360}, Saturation: color.Full, Lightness: color.Full}
)

// DefaultName is the preset used when none is configured.
const DefaultName = "greyscale-4"

// Preset is a named exercise family.
type Preset struct {
	Name   string
	Steps  int
	Colors color.Band
}

// Validate reports whether the preset can produce exercises.
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset has no name")
	}
	if p.Steps < 2 {
		return fmt.Errorf("preset %q: steps must be at least 2, got %d", p.Name, p.Steps)
	}
	if err := p.Colors.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return nil
}

// Sample draws a swatch color for one exercise.
func (p Preset) Sample(r *rand.Rand) color.Color {
	return p.Colors.Sample(r)
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (%d steps, %s)", p.Name, p.Steps, p.Colors.Name)
}

// Builtin returns the built-in presets in display order.
func Builtin() []Preset {
	var out []Preset
	for _, steps := range []int{2, 4, 8} {
		out = append(out, Preset{Name: fmt.Sprintf("greyscale-%d", steps), Steps: steps, Colors: Greyscale})
	}
	for _, steps := range []int{2, 4, 8} {
		out = append(out, Preset{Name: fmt.Sprintf("color-%d", steps), Steps: steps, Colors: Spectrum})
	}
	for _, b := range color.Bands {
		out = append(out, Preset{Name: b.Name + "-8", Steps: 8, Colors: b})
	}
	return out
}

// Registry holds presets by name, preserving registration order.
type Registry struct {
	byName map[string]Preset
	order  []string
}

// NewRegistry returns a registry holding presets. A later preset replaces an
// earlier one with the same name.
func NewRegistry(presets ...Preset) (*Registry, error) {
	r := &Registry{byName: make(map[string]Preset)}
	for _, p := range presets {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns a registry of the built-in presets.
func Default() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Add validates and registers p, replacing any preset of the same name.
func (r *Registry) Add(p Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := r.byName[p.Name]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.byName[p.Name] = p
	return nil
}

// Lookup returns the preset called name.
func (r *Registry) Lookup(name string) (Preset, error) {
	p, ok := r.byName[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w %q (available: %s)", ErrUnknown, name, strings.Join(r.order, ", "))
	}
	return p, nil
}

// Resolve looks up every name in order.
func (r *Registry) Resolve(names []string) ([]Preset, error) {
	out := make([]Preset, 0, len(names))
	for _, name := range names {
		p, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns the registered presets in registration order.
func (r *Registry) All() []Preset {
	out := make([]Preset, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}
