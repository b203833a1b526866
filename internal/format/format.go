// Package format rewrites trainer configuration files in canonical layout.
package format

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

var multipleBlankLines = regexp.MustCompile(`\n{3,}`)
var blankLineAfterOpenBrace = regexp.MustCompile(`\{\n\s*\n`)
var blankLineBeforeCloseBrace = regexp.MustCompile(`\n\s*\n(\s*\})`)

// attributeOrder is the canonical attribute order of each block type.
// Attributes not listed keep their relative order after the listed ones.
var attributeOrder = map[string][]string{
	"trainer": {"preset", "rotate", "report_url", "report_file", "bounce_interval", "flash", "settle", "sound"},
	"band":    {"hue", "saturation", "lightness"},
	"preset":  {"steps", "colors"},
}

// Format takes config source and returns it formatted according to HCL
// canonical style rules, with the attributes of trainer, band and preset
// blocks in canonical order. Comments on or directly above an attribute move
// with it.
//
// The formatter works even on partial/invalid HCL, making it suitable
// for use while the user is still typing. Reordering is skipped until the
// source parses.
func Format(content string) (string, error) {
	formatted := hclwrite.Format([]byte(content))
	if sorted, changed := sortAttributes(formatted); changed {
		// Realign the moved attributes.
		formatted = hclwrite.Format(sorted)
	}
	// Collapse multiple consecutive blank lines into a single blank line.
	collapsed := multipleBlankLines.ReplaceAllString(string(formatted), "\n\n")
	// Remove blank lines immediately after opening braces.
	collapsed = blankLineAfterOpenBrace.ReplaceAllString(collapsed, "{\n")
	// Remove blank lines immediately before closing braces.
	collapsed = blankLineBeforeCloseBrace.ReplaceAllString(collapsed, "\n${1}")
	return collapsed, nil
}

// File formats the config file at path and reports whether it was already
// formatted. With write set, a file that was not is rewritten in place.
// Files that do not parse are left untouched.
func File(path string, write bool) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading config file: %w", err)
	}
	if _, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1}); diags.HasErrors() {
		return false, fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	formatted, err := Format(string(src))
	if err != nil {
		return false, err
	}
	if formatted == string(src) {
		return true, nil
	}
	if write {
		info, err := os.Stat(path)
		if err != nil {
			return false, fmt.Errorf("stat config file: %w", err)
		}
		if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("writing config file: %w", err)
		}
	}
	return false, nil
}

// sortAttributes reorders the attributes of known block types.
func sortAttributes(src []byte) ([]byte, bool) {
	file, diags := hclsyntax.ParseConfig(src, "", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return src, false
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return src, false
	}

	lines := strings.Split(string(src), "\n")
	changed := false
	for _, block := range body.Blocks {
		order, ok := attributeOrder[block.Type]
		if !ok || len(block.Body.Blocks) > 0 {
			continue
		}
		if sortBlock(lines, block, order) {
			changed = true
		}
	}
	if !changed {
		return src, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

// sortBlock reorders the attribute lines of block in place. Each attribute
// owns the lines from the end of the previous attribute (or the opening
// brace) through its own last line.
func sortBlock(lines []string, block *hclsyntax.Block, order []string) bool {
	attrs := make([]*hclsyntax.Attribute, 0, len(block.Body.Attributes))
	for _, a := range block.Body.Attributes {
		attrs = append(attrs, a)
	}
	if len(attrs) < 2 {
		return false
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	// Only blocks with one attribute per line and braces on their own lines.
	prevEnd := block.OpenBraceRange.Start.Line
	for _, a := range attrs {
		if a.SrcRange.Start.Line <= prevEnd {
			return false
		}
		prevEnd = a.SrcRange.End.Line
	}
	if block.CloseBraceRange.Start.Line <= prevEnd {
		return false
	}

	rank := func(name string) int {
		for i, n := range order {
			if n == name {
				return i
			}
		}
		return len(order)
	}

	type chunk struct {
		rank  int
		lines []string
	}
	// Range lines are 1-based, so a 1-based line number is the 0-based
	// index of the line after it.
	first := block.OpenBraceRange.Start.Line
	start := first
	chunks := make([]chunk, len(attrs))
	for i, a := range attrs {
		end := a.SrcRange.End.Line
		chunks[i] = chunk{rank: rank(a.Name), lines: append([]string(nil), lines[start:end]...)}
		start = end
	}
	if sort.SliceIsSorted(chunks, func(i, j int) bool { return chunks[i].rank < chunks[j].rank }) {
		return false
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].rank < chunks[j].rank })

	i := first
	for _, c := range chunks {
		i += copy(lines[i:], c.lines)
	}
	return true
}
