package lsp

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/zclconf/go-cty/cty"

	"github.com/jsvensson/valuetrainer/internal/color"
	"github.com/jsvensson/valuetrainer/internal/config"
	"github.com/jsvensson/valuetrainer/internal/preset"
)

var (
	DiagError   = protocol.DiagnosticSeverityError
	DiagWarning = protocol.DiagnosticSeverityWarning
)

const diagSource = "vtconfig"

// AnalysisResult holds all information produced by analyzing a config file.
type AnalysisResult struct {
	Diagnostics []protocol.Diagnostic
	// Config is nil when the file has errors.
	Config *config.Config
	// Bands are the bands in scope: built-ins overlaid with file bands.
	Bands map[string]color.Band
	// Presets are the presets in scope. File presets are only included
	// when the whole file decodes.
	Presets    *preset.Registry
	Symbols    map[string]protocol.Range // "bands.teal", "preset.teal-4" -> definition range
	References []Reference
	Colors     []ColorLocation
}

// Reference records a use of a symbol at a source position.
type Reference struct {
	Range  protocol.Range
	Symbol string
}

// ColorLocation records a resolved band at a specific source position.
type ColorLocation struct {
	Range protocol.Range
	Band  color.Band
	IsRef bool // true unless this is a band's own hue range
}

// Color is the swatch shown for the location.
func (cl ColorLocation) Color() color.Color {
	return cl.Band.Representative()
}

// hclPosToLSP converts an HCL position to an LSP position.
// HCL positions are 1-based; LSP positions are 0-based.
func hclPosToLSP(pos hcl.Pos) protocol.Position {
	return protocol.Position{
		Line:      uint32(pos.Line - 1),
		Character: uint32(pos.Column - 1),
	}
}

func hclRangeToLSP(r hcl.Range) protocol.Range {
	return protocol.Range{
		Start: hclPosToLSP(r.Start),
		End:   hclPosToLSP(r.End),
	}
}

// Analyze parses a config file from memory and produces diagnostics, a symbol
// table, references and color locations. Bands and presets that resolve are
// recorded even when other parts of the file have errors.
func Analyze(filename, content string) *AnalysisResult {
	result := &AnalysisResult{
		Bands:   make(map[string]color.Band),
		Presets: preset.Default(),
		Symbols: make(map[string]protocol.Range),
	}
	for _, b := range color.Bands {
		result.Bands[b.Name] = b
	}

	file, diags := hclsyntax.ParseConfig([]byte(content), filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		result.addDiagnostics(diags)
		// Cannot proceed with semantic analysis if syntax is broken
		return result
	}

	cfg, diags := config.Decode(file.Body)
	result.addDiagnostics(diags)
	result.Config = cfg
	if cfg != nil {
		if reg, err := cfg.Registry(); err == nil {
			result.Presets = reg
		}
	}

	fileBands, _, _ := config.DecodeBands(file.Body)
	defined := make(map[string]color.Band, len(fileBands))
	for _, b := range fileBands {
		result.Bands[b.Name] = b
		defined[b.Name] = b
	}
	ctx := config.EvalContext(fileBands)

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return result
	}
	for _, block := range body.Blocks {
		switch block.Type {
		case "band":
			result.analyzeBand(block, defined)
		case "preset":
			result.analyzePreset(block, ctx)
		case "trainer":
			result.analyzeTrainer(block)
		}
	}
	return result
}

func (r *AnalysisResult) analyzeBand(block *hclsyntax.Block, defined map[string]color.Band) {
	if len(block.Labels) != 1 {
		return
	}
	name := block.Labels[0]
	r.Symbols["bands."+name] = hclRangeToLSP(block.DefRange())

	attr, ok := block.Body.Attributes["hue"]
	if !ok {
		return
	}
	if b, ok := defined[name]; ok {
		r.Colors = append(r.Colors, ColorLocation{
			Range: hclRangeToLSP(attr.Expr.Range()),
			Band:  b,
		})
	}
}

func (r *AnalysisResult) analyzePreset(block *hclsyntax.Block, ctx *hcl.EvalContext) {
	if len(block.Labels) != 1 {
		return
	}
	r.Symbols["preset."+block.Labels[0]] = hclRangeToLSP(block.DefRange())

	attr, ok := block.Body.Attributes["colors"]
	if !ok {
		return
	}
	r.collectBandReferences(attr.Expr)

	val, diags := attr.Expr.Value(ctx)
	if diags.HasErrors() || val.IsNull() {
		return
	}
	b, err := config.BandFromValue(val)
	if err != nil {
		return
	}
	r.Colors = append(r.Colors, ColorLocation{
		Range: hclRangeToLSP(attr.Expr.Range()),
		Band:  b,
		IsRef: true,
	})
}

// analyzeTrainer records the preset names used by the trainer block.
func (r *AnalysisResult) analyzeTrainer(block *hclsyntax.Block) {
	if attr, ok := block.Body.Attributes["preset"]; ok {
		r.addPresetReference(attr.Expr)
	}
	if attr, ok := block.Body.Attributes["rotate"]; ok {
		if tuple, ok := attr.Expr.(*hclsyntax.TupleConsExpr); ok {
			for _, expr := range tuple.Exprs {
				r.addPresetReference(expr)
			}
		}
	}
}

func (r *AnalysisResult) addPresetReference(expr hclsyntax.Expression) {
	name, ok := stringLiteral(expr)
	if !ok {
		return
	}
	r.References = append(r.References, Reference{
		Range:  hclRangeToLSP(expr.Range()),
		Symbol: "preset." + name,
	})
}

// collectBandReferences records every bands.<name> traversal inside expr.
func (r *AnalysisResult) collectBandReferences(expr hclsyntax.Expression) {
	hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		trav, ok := n.(*hclsyntax.ScopeTraversalExpr)
		if !ok || len(trav.Traversal) < 2 || trav.Traversal.RootName() != "bands" {
			return nil
		}
		attr, ok := trav.Traversal[1].(hcl.TraverseAttr)
		if !ok {
			return nil
		}
		r.References = append(r.References, Reference{
			Range:  hclRangeToLSP(trav.SrcRange),
			Symbol: "bands." + attr.Name,
		})
		return nil
	})
}

// stringLiteral returns the value of expr if it is a constant string.
func stringLiteral(expr hclsyntax.Expression) (string, bool) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
		return "", false
	}
	return val.AsString(), true
}

func (r *AnalysisResult) addDiagnostics(diags hcl.Diagnostics) {
	for _, d := range diags {
		r.Diagnostics = append(r.Diagnostics, hclDiagToLSP(d))
	}
}

// hclDiagToLSP converts an HCL diagnostic to an LSP diagnostic.
func hclDiagToLSP(d *hcl.Diagnostic) protocol.Diagnostic {
	sev := DiagError
	if d.Severity == hcl.DiagWarning {
		sev = DiagWarning
	}

	diag := protocol.Diagnostic{
		Severity: &sev,
		Message:  d.Summary,
		Source:   strPtr(diagSource),
	}

	if d.Detail != "" {
		diag.Message = d.Summary + ": " + d.Detail
	}

	if d.Subject != nil {
		diag.Range = hclRangeToLSP(*d.Subject)
	}

	return diag
}

func strPtr(s string) *string {
	return &s
}
