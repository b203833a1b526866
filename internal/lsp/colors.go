package lsp

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/valuetrainer/internal/color"
)

// colorToLSP converts a color to a protocol.Color (float32 0.0-1.0).
func colorToLSP(c color.Color) protocol.Color {
	r, g, b := c.RGB()
	return protocol.Color{
		Red:   float32(r) / 255.0,
		Green: float32(g) / 255.0,
		Blue:  float32(b) / 255.0,
		Alpha: 1.0,
	}
}

// documentColors converts the analysis result's color locations into LSP ColorInformation items.
func documentColors(result *AnalysisResult) []protocol.ColorInformation {
	if result == nil {
		return []protocol.ColorInformation{}
	}

	infos := make([]protocol.ColorInformation, 0, len(result.Colors))
	for _, cl := range result.Colors {
		infos = append(infos, protocol.ColorInformation{
			Range: cl.Range,
			Color: colorToLSP(cl.Color()),
		})
	}
	return infos
}

// colorPresentation turns a picked color into an edit of a band's hue range.
// The range keeps its width and is recentered on the picked hue. References
// to bands get no presentation, so picking never replaces them with literals.
func colorPresentation(result *AnalysisResult, params *protocol.ColorPresentationParams) []protocol.ColorPresentation {
	if result == nil {
		return []protocol.ColorPresentation{}
	}

	for _, cl := range result.Colors {
		if cl.IsRef || cl.Range != params.Range {
			continue
		}

		picked := colorful.Color{
			R: float64(params.Color.Red),
			G: float64(params.Color.Green),
			B: float64(params.Color.Blue),
		}
		hue, _, _ := picked.Hsl()
		width := cl.Band.Hue.Hi - cl.Band.Hue.Lo
		lo := math.Round(hue - width/2)
		if lo < 0 {
			lo += 360
		}
		text := fmt.Sprintf("[%g, %g]", lo, lo+width)

		return []protocol.ColorPresentation{
			{
				Label: text,
				TextEdit: &protocol.TextEdit{
					Range:   params.Range,
					NewText: text,
				},
			},
		}
	}

	return []protocol.ColorPresentation{}
}

// textDocumentDocumentColor handles textDocument/documentColor requests.
func (s *Server) textDocumentDocumentColor(_ *glsp.Context, params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	return documentColors(s.getResult(string(params.TextDocument.URI))), nil
}

// textDocumentColorPresentation handles textDocument/colorPresentation requests.
func (s *Server) textDocumentColorPresentation(_ *glsp.Context, params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	return colorPresentation(s.getResult(string(params.TextDocument.URI)), params), nil
}
