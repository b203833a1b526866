package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/valuetrainer/internal/color"
)

// posInRange returns true if pos is within the range [r.Start, r.End).
// The end position is exclusive.
func posInRange(pos protocol.Position, r protocol.Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character >= r.End.Character {
		return false
	}
	return true
}

// extractText extracts the source text at a given LSP range from document content.
func extractText(content string, r protocol.Range) string {
	lines := strings.Split(content, "\n")

	startLine := int(r.Start.Line)
	endLine := int(r.End.Line)

	if startLine >= len(lines) {
		return ""
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	var parts []string
	for i := startLine; i <= endLine; i++ {
		line := lines[i]
		start, end := 0, len(line)
		if i == startLine {
			start = min(int(r.Start.Character), len(line))
		}
		if i == endLine {
			end = min(int(r.End.Character), len(line))
		}
		if start > end {
			start = end
		}
		parts = append(parts, line[start:end])
	}
	return strings.Join(parts, "\n")
}

// describeBand renders a band's ranges and swatch color as markdown.
func describeBand(b color.Band) string {
	return fmt.Sprintf("hue `[%g, %g)` · saturation `[%g, %g]` · lightness `[%g, %g]`\n\nswatch `%s` · `%s`",
		b.Hue.Lo, b.Hue.Hi,
		b.Saturation.Lo, b.Saturation.Hi,
		b.Lightness.Lo, b.Lightness.Hi,
		b.Representative().Hex(), b.Representative())
}

// hover produces a Hover response for the given cursor position. Band
// locations show the band's ranges; preset names show the preset.
// Returns nil if nothing is found at the position.
func hover(result *AnalysisResult, content string, pos protocol.Position) *protocol.Hover {
	if result == nil {
		return nil
	}

	for _, cl := range result.Colors {
		if !posInRange(pos, cl.Range) {
			continue
		}

		title := cl.Band.Name
		if cl.IsRef {
			if src := extractText(content, cl.Range); src != cl.Band.Name {
				title = src
			}
		}
		return markdownHover(fmt.Sprintf("**%s**\n\n%s", title, describeBand(cl.Band)), cl.Range)
	}

	for _, ref := range result.References {
		name, ok := strings.CutPrefix(ref.Symbol, "preset.")
		if !ok || !posInRange(pos, ref.Range) {
			continue
		}
		if result.Presets == nil {
			return nil
		}
		p, err := result.Presets.Lookup(name)
		if err != nil {
			return nil
		}
		md := fmt.Sprintf("**%s** · %d steps from %s\n\n%s", p.Name, p.Steps, p.Colors.Name, describeBand(p.Colors))
		return markdownHover(md, ref.Range)
	}

	return nil
}

func markdownHover(md string, rng protocol.Range) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: md,
		},
		Range: &rng,
	}
}

// textDocumentHover handles textDocument/hover requests.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	return hover(doc.Result, doc.Text, params.Position), nil
}
