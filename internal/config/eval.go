package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/preset"
)

// bandType is the cty object type every color source evaluates to.
var bandType = cty.Object(map[string]cty.Type{
	"name":       cty.String,
	"hue":        cty.List(cty.Number),
	"saturation": cty.List(cty.Number),
	"lightness":  cty.List(cty.Number),
})

type bandValue struct {
	Name       string    `cty:"name"`
	Hue        []float64 `cty:"hue"`
	Saturation []float64 `cty:"saturation"`
	Lightness  []float64 `cty:"lightness"`
}

// EvalContext returns the context preset colors are evaluated in. The
// bands variable holds the built-in bands overlaid with custom.
func EvalContext(custom []color.Band) *hcl.EvalContext {
	all := make(map[string]color.Band)
	for _, b := range color.Bands {
		all[b.Name] = b
	}
	for _, b := range custom {
		all[b.Name] = b
	}

	// Sort keys for deterministic output
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	bands := make(map[string]cty.Value, len(all))
	for _, name := range names {
		bands[name] = bandToCty(all[name])
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"bands":     cty.ObjectVal(bands),
			"greyscale": bandToCty(preset.Greyscale),
			"spectrum":  bandToCty(preset.Spectrum),
		},
		Functions: map[string]function.Function{
			"band": makeBandFunc(),
		},
	}
}

func bandToCty(b color.Band) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"name":       cty.StringVal(b.Name),
		"hue":        rangeToCty(b.Hue),
		"saturation": rangeToCty(b.Saturation),
		"lightness":  rangeToCty(b.Lightness),
	})
}

func rangeToCty(r color.Range) cty.Value {
	return cty.ListVal([]cty.Value{cty.NumberFloatVal(r.Lo), cty.NumberFloatVal(r.Hi)})
}

// BandFromValue converts an evaluated color source back into a band.
func BandFromValue(v cty.Value) (color.Band, error) {
	if !v.Type().Equals(bandType) {
		return color.Band{}, fmt.Errorf("got %s", v.Type().FriendlyName())
	}
	if !v.IsWhollyKnown() {
		return color.Band{}, fmt.Errorf("value is not known")
	}
	var bv bandValue
	if err := gocty.FromCtyValue(v, &bv); err != nil {
		return color.Band{}, err
	}
	for _, r := range [][]float64{bv.Hue, bv.Saturation, bv.Lightness} {
		if len(r) != 2 {
			return color.Band{}, fmt.Errorf("ranges must have two elements")
		}
	}
	return color.Band{
		Name:       bv.Name,
		Hue:        color.Range{Lo: bv.Hue[0], Hi: bv.Hue[1]},
		Saturation: color.Range{Lo: bv.Saturation[0], Hi: bv.Saturation[1]},
		Lightness:  color.Range{Lo: bv.Lightness[0], Hi: bv.Lightness[1]},
	}, nil
}

// makeBandFunc creates an HCL function that builds an unnamed band.
// Usage: band(20, 60) or band(20, 60, 50, 100, 20, 80)
func makeBandFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Returns a band sampling hue in [hue_lo, hue_hi), optionally followed by saturation and lightness ranges",
		Params: []function.Parameter{
			{
				Name: "hue_lo",
				Type: cty.Number,
			},
			{
				Name: "hue_hi",
				Type: cty.Number,
			},
		},
		VarParam: &function.Parameter{
			Name: "ranges",
			Type: cty.Number,
		},
		Type: function.StaticReturnType(bandType),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if len(args) != 2 && len(args) != 6 {
				return cty.NilVal, fmt.Errorf("band takes 2 or 6 arguments, got %d", len(args))
			}
			nums := make([]float64, len(args))
			for i, a := range args {
				nums[i], _ = a.AsBigFloat().Float64()
			}

			b := color.Band{
				Name:       fmt.Sprintf("band(%g, %g)", nums[0], nums[1]),
				Hue:        color.Range{Lo: nums[0], Hi: nums[1]},
				Saturation: color.Full,
				Lightness:  color.Full,
			}
			if len(nums) == 6 {
				b.Saturation = color.Range{Lo: nums[2], Hi: nums[3]}
				b.Lightness = color.Range{Lo: nums[4], Hi: nums[5]}
			}
			if err := b.Validate(); err != nil {
				return cty.NilVal, err
			}
			return bandToCty(b), nil
		},
	})
}
