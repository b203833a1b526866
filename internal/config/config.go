// Package config loads trainer configuration files written in HCL.
//
// A file may hold one trainer block, any number of band blocks defining hue
// bands, and any number of preset blocks defining exercise families. Preset
// colors are expressions over the variables bands, greyscale and spectrum and
// the band() function:
//
//	band "teal" {
//	  hue        = [160, 200]
//	  saturation = [40, 100]
//	}
//
//	preset "teal-4" {
//	  steps  = 4
//	  colors = bands.teal
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/exercise"
	"github.com/jsvensson/valuetrainer/internal/preset"
)

// Config is a fully-resolved trainer configuration.
type Config struct {
	Trainer Trainer
	// Bands are the bands defined in the file, in file order.
	Bands []color.Band
	// Presets are the presets defined in the file, in file order.
	Presets []preset.Preset
}

// Trainer holds the settings of the trainer block.
type Trainer struct {
	// Presets are rotated through, one exercise each.
	Presets    []string
	ReportURL  string
	ReportFile string
	Timing     exercise.Timing
	Sound      bool
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Trainer: Trainer{
			Presets: []string{preset.DefaultName},
			Timing:  exercise.DefaultTiming(),
		},
	}
}

// Registry returns the built-in presets plus those defined in the file. File
// presets replace built-ins of the same name.
func (c *Config) Registry() (*preset.Registry, error) {
	reg := preset.Default()
	for _, p := range c.Presets {
		if err := reg.Add(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// bandBlock is a band definition. Ranges are two-element lists.
type bandBlock struct {
	Name       string         `hcl:"name,label"`
	Hue        hcl.Expression `hcl:"hue"`
	Saturation hcl.Expression `hcl:"saturation,optional"`
	Lightness  hcl.Expression `hcl:"lightness,optional"`
}

// rawConfig captures the band blocks first; they need no EvalContext.
type rawConfig struct {
	Bands  []*bandBlock `hcl:"band,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type trainerBlock struct {
	Preset         hcl.Expression `hcl:"preset,optional"`
	Rotate         hcl.Expression `hcl:"rotate,optional"`
	ReportURL      hcl.Expression `hcl:"report_url,optional"`
	ReportFile     string         `hcl:"report_file,optional"`
	BounceInterval hcl.Expression `hcl:"bounce_interval,optional"`
	Flash          hcl.Expression `hcl:"flash,optional"`
	Settle         hcl.Expression `hcl:"settle,optional"`
	Sound          *bool          `hcl:"sound,optional"`
}

type presetBlock struct {
	Name   string         `hcl:"name,label"`
	Steps  hcl.Expression `hcl:"steps"`
	Colors hcl.Expression `hcl:"colors,optional"`
}

// resolvedConfig decodes the blocks that may reference bands.
type resolvedConfig struct {
	Trainer *trainerBlock  `hcl:"trainer,block"`
	Presets []*presetBlock `hcl:"preset,block"`
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, diags := Parse(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("loading config: %s", diags.Error())
	}
	return cfg, nil
}

// Parse decodes configuration source. The returned diagnostics carry source
// ranges; cfg is nil when they contain errors.
func Parse(src []byte, filename string) (*Config, hcl.Diagnostics) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	return Decode(file.Body)
}

// Decode decodes a parsed configuration body.
func Decode(body hcl.Body) (*Config, hcl.Diagnostics) {
	cfg := Default()

	// First pass: band definitions, which the eval context is built from.
	bands, remain, diags := DecodeBands(body)
	if diags.HasErrors() {
		return nil, diags
	}
	cfg.Bands = bands

	// Second pass: everything else, with bands in scope.
	ctx := EvalContext(cfg.Bands)
	var resolved resolvedConfig
	diags = diags.Extend(gohcl.DecodeBody(remain, ctx, &resolved))
	if diags.HasErrors() {
		return nil, diags
	}

	seen := make(map[string]bool)
	for _, pb := range resolved.Presets {
		p, presetDiags := decodePreset(pb, ctx)
		diags = diags.Extend(presetDiags)
		if presetDiags.HasErrors() {
			continue
		}
		if seen[p.Name] {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate preset",
				Detail:   fmt.Sprintf("Preset %q is defined more than once.", p.Name),
				Subject:  pb.Steps.Range().Ptr(),
			})
			continue
		}
		seen[p.Name] = true
		cfg.Presets = append(cfg.Presets, p)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	if resolved.Trainer != nil {
		diags = diags.Extend(decodeTrainer(resolved.Trainer, ctx, cfg))
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return cfg, diags
}

// DecodeBands decodes only the band blocks of body, returning the bands that
// decoded cleanly and the rest of the body. Bands with errors are skipped, so
// callers may still use the result when diags has errors.
func DecodeBands(body hcl.Body) ([]color.Band, hcl.Body, hcl.Diagnostics) {
	var raw rawConfig
	diags := gohcl.DecodeBody(body, nil, &raw)
	if raw.Remain == nil {
		raw.Remain = hcl.EmptyBody()
	}

	var bands []color.Band
	seen := make(map[string]bool)
	for _, b := range raw.Bands {
		if b.Hue == nil {
			continue
		}
		band, bandDiags := decodeBand(b)
		diags = diags.Extend(bandDiags)
		if bandDiags.HasErrors() {
			continue
		}
		if seen[b.Name] {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate band",
				Detail:   fmt.Sprintf("Band %q is defined more than once.", b.Name),
				Subject:  b.Hue.Range().Ptr(),
			})
			continue
		}
		seen[b.Name] = true
		bands = append(bands, band)
	}
	return bands, raw.Remain, diags
}

func decodeBand(b *bandBlock) (color.Band, hcl.Diagnostics) {
	band := color.Band{Name: b.Name, Saturation: color.Full, Lightness: color.Full}
	var diags hcl.Diagnostics
	for _, r := range []struct {
		expr hcl.Expression
		dst  *color.Range
	}{
		{b.Hue, &band.Hue},
		{b.Saturation, &band.Saturation},
		{b.Lightness, &band.Lightness},
	} {
		diags = diags.Extend(decodeRange(r.expr, nil, r.dst))
	}
	if diags.HasErrors() {
		return band, diags
	}
	if err := band.Validate(); err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid band",
			Detail:   err.Error(),
			Subject:  b.Hue.Range().Ptr(),
		})
	}
	return band, diags
}

// decodeRange decodes a [lo, hi] pair into dst, leaving dst unchanged when
// the expression is null.
func decodeRange(expr hcl.Expression, ctx *hcl.EvalContext, dst *color.Range) hcl.Diagnostics {
	var pair []float64
	ok, diags := decodeOptional(expr, ctx, &pair)
	if !ok || diags.HasErrors() {
		return diags
	}
	if len(pair) != 2 {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid range",
			Detail:   fmt.Sprintf("A range is a list of two numbers, [low, high]; got %d elements.", len(pair)),
			Subject:  expr.Range().Ptr(),
		})
	}
	*dst = color.Range{Lo: pair[0], Hi: pair[1]}
	return diags
}

func decodePreset(pb *presetBlock, ctx *hcl.EvalContext) (preset.Preset, hcl.Diagnostics) {
	p := preset.Preset{Name: pb.Name, Colors: preset.Spectrum}
	diags := gohcl.DecodeExpression(pb.Steps, ctx, &p.Steps)
	if diags.HasErrors() {
		return p, diags
	}
	if p.Steps < 2 {
		return p, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid step count",
			Detail:   fmt.Sprintf("A value scale needs at least 2 steps; got %d.", p.Steps),
			Subject:  pb.Steps.Range().Ptr(),
		})
	}

	val, valDiags := pb.Colors.Value(ctx)
	diags = diags.Extend(valDiags)
	if valDiags.HasErrors() || val.IsNull() {
		return p, diags
	}
	band, err := BandFromValue(val)
	if err != nil {
		return p, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid colors",
			Detail:   fmt.Sprintf("colors must be greyscale, spectrum, bands.<name> or band(...): %s.", err),
			Subject:  pb.Colors.Range().Ptr(),
		})
	}
	p.Colors = band
	return p, diags
}

func decodeTrainer(tb *trainerBlock, ctx *hcl.EvalContext, cfg *Config) hcl.Diagnostics {
	t := &cfg.Trainer
	var diags hcl.Diagnostics

	var names []string
	var single string
	ok, d := decodeOptional(tb.Preset, ctx, &single)
	diags = diags.Extend(d)
	if ok {
		names = append(names, single)
	}
	var rotate []string
	_, d = decodeOptional(tb.Rotate, ctx, &rotate)
	diags = diags.Extend(d)
	names = append(names, rotate...)
	if diags.HasErrors() {
		return diags
	}
	if len(names) > 0 {
		reg, err := cfg.Registry()
		if err != nil {
			return diags.Append(&hcl.Diagnostic{Severity: hcl.DiagError, Summary: "Invalid preset", Detail: err.Error()})
		}
		for _, name := range names {
			if _, err := reg.Lookup(name); err != nil {
				subject := tb.Preset.Range()
				if name != single {
					subject = tb.Rotate.Range()
				}
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown preset",
					Detail:   err.Error() + ".",
					Subject:  &subject,
				})
			}
		}
		t.Presets = names
	}

	ok, d = decodeOptional(tb.ReportURL, ctx, &t.ReportURL)
	diags = diags.Extend(d)
	if ok {
		if u, err := url.Parse(t.ReportURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid report URL",
				Detail:   fmt.Sprintf("report_url must be an absolute http or https URL; got %q.", t.ReportURL),
				Subject:  tb.ReportURL.Range().Ptr(),
			})
		}
	}
	t.ReportFile = tb.ReportFile
	if tb.Sound != nil {
		t.Sound = *tb.Sound
	}

	diags = diags.Extend(decodeDuration(tb.BounceInterval, ctx, "bounce_interval", &t.Timing.BounceInterval))
	diags = diags.Extend(decodeDuration(tb.Flash, ctx, "flash", &t.Timing.Flash))
	diags = diags.Extend(decodeDuration(tb.Settle, ctx, "settle", &t.Timing.Settle))
	return diags
}

func decodeDuration(expr hcl.Expression, ctx *hcl.EvalContext, name string, dst *time.Duration) hcl.Diagnostics {
	var s string
	ok, diags := decodeOptional(expr, ctx, &s)
	if !ok || diags.HasErrors() {
		return diags
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid duration",
			Detail:   fmt.Sprintf("%s must be a positive duration such as \"100ms\"; got %q.", name, s),
			Subject:  expr.Range().Ptr(),
		})
	}
	*dst = d
	return diags
}

// decodeOptional decodes expr into target unless it evaluates to null. It
// reports whether a value was decoded.
func decodeOptional(expr hcl.Expression, ctx *hcl.EvalContext, target any) (bool, hcl.Diagnostics) {
	if expr == nil {
		return false, nil
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() || val.IsNull() {
		return false, diags
	}
	diags = gohcl.DecodeExpression(expr, ctx, target)
	return !diags.HasErrors(), diags
}
