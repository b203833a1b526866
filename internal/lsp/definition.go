package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// definition returns the definition location for the band or preset reference
// at the given cursor position. Built-in bands and presets have no location in
// the file, so references to them return nil.
func definition(result *AnalysisResult, uri string, pos protocol.Position) *protocol.Location {
	if result == nil {
		return nil
	}

	for _, ref := range result.References {
		if !posInRange(pos, ref.Range) {
			continue
		}
		symRange, ok := result.Symbols[ref.Symbol]
		if !ok {
			return nil
		}
		return &protocol.Location{
			URI:   protocol.DocumentUri(uri),
			Range: symRange,
		}
	}

	return nil
}

// textDocumentDefinition handles textDocument/definition requests.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	loc := definition(s.getResult(uri), uri, params.Position)
	if loc == nil {
		return nil, nil
	}
	return loc, nil
}
