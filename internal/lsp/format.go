package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/valuetrainer/internal/format"
)

// formatEdits returns the edits that bring content to canonical style. A
// formatted document yields no edits. The formatter works on partial HCL,
// so it can run while the user is still typing.
func formatEdits(content string) ([]protocol.TextEdit, error) {
	formatted, err := format.Format(content)
	if err != nil {
		return nil, err
	}
	if formatted == content {
		return []protocol.TextEdit{}, nil
	}

	// Replace the whole document; the end position is past the last line.
	end := protocol.Position{Line: uint32(strings.Count(content, "\n") + 1)}
	return []protocol.TextEdit{
		{
			Range:   protocol.Range{End: end},
			NewText: formatted,
		},
	}, nil
}

// textDocumentFormatting handles textDocument/formatting requests.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	return formatEdits(doc.Text)
}
