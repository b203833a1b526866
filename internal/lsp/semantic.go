package lsp

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/zclconf/go-cty/cty"
)

// Semantic token types (indices 0-7)
var semanticTokenTypes = []string{
	"keyword",   // 0: block types (trainer, band, preset)
	"property",  // 1: attribute names
	"variable",  // 2: greyscale, spectrum
	"namespace", // 3: the "bands" namespace identifier
	"string",    // 4: string literals
	"function",  // 5: band()
	"number",    // 6: numeric literals
	"type",      // 7: block labels
}

// Semantic token modifiers (bit flags)
var semanticTokenModifiers = []string{
	"declaration", // bit 0: defining a new symbol
}

// referenceRoots maps the root variables of the eval context to token types.
var referenceRoots = map[string]string{
	"bands":     "namespace",
	"greyscale": "variable",
	"spectrum":  "variable",
}

// tokenTypeIndices maps type names to their indices for fast lookup
var tokenTypeIndices map[string]uint32

func init() {
	tokenTypeIndices = make(map[string]uint32, len(semanticTokenTypes))
	for i, t := range semanticTokenTypes {
		tokenTypeIndices[t] = uint32(i)
	}
}

// SemanticToken represents a single token with its metadata
type SemanticToken struct {
	Line      uint32 // 0-based line number
	StartChar uint32 // 0-based character offset
	Length    uint32
	Type      uint32 // index into semanticTokenTypes
	Modifiers uint32 // bit flags
}

// encodeTokens converts tokens to LSP format (5 integers per token)
// Uses delta encoding for line numbers and character positions
func encodeTokens(tokens []SemanticToken) []uint32 {
	if len(tokens) == 0 {
		return []uint32{}
	}

	// Sort tokens by position
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})

	data := make([]uint32, 0, len(tokens)*5)

	var prevLine uint32 = 0
	var prevChar uint32 = 0

	for _, tok := range tokens {
		deltaLine := tok.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = tok.StartChar - prevChar
		} else {
			deltaStart = tok.StartChar
		}

		data = append(data,
			deltaLine,
			deltaStart,
			tok.Length,
			tok.Type,
			tok.Modifiers,
		)

		prevLine = tok.Line
		prevChar = tok.StartChar
	}

	return data
}

// semanticTokensFull generates semantic tokens for the entire document content
func semanticTokensFull(content string) []uint32 {
	file, diags := hclsyntax.ParseConfig([]byte(content), "", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		// Return empty tokens if parsing fails
		return []uint32{}
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return []uint32{}
	}

	var tokens []SemanticToken
	tokens = extractTokensFromBody(body, tokens)

	return encodeTokens(tokens)
}

// extractTokensFromBody extracts tokens from an HCL body
func extractTokensFromBody(body *hclsyntax.Body, tokens []SemanticToken) []SemanticToken {
	for _, block := range body.Blocks {
		tokens = append(tokens, rangeToken(block.TypeRange, "keyword", 0))
		for _, lr := range block.LabelRanges {
			tokens = append(tokens, rangeToken(lr, "type", 1))
		}

		tokens = extractTokensFromBody(block.Body, tokens)
	}

	// Extract attribute tokens
	for name, attr := range body.Attributes {
		// Attribute name (with declaration modifier)
		tokens = append(tokens, SemanticToken{
			Line:      uint32(attr.SrcRange.Start.Line - 1),
			StartChar: uint32(attr.SrcRange.Start.Column - 1),
			Length:    uint32(len(name)),
			Type:      tokenTypeIndices["property"],
			Modifiers: 1, // declaration bit
		})

		// Extract tokens from the expression
		tokens = extractTokensFromExpr(attr.Expr, tokens)
	}

	return tokens
}

// extractTokensFromExpr extracts tokens from an HCL expression
func extractTokensFromExpr(expr hclsyntax.Expression, tokens []SemanticToken) []SemanticToken {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		tokens = extractTokensFromLiteral(e, tokens)
	case *hclsyntax.ScopeTraversalExpr:
		tokens = extractTokensFromTraversal(e, tokens)
	case *hclsyntax.FunctionCallExpr:
		tokens = extractTokensFromFunctionCall(e, tokens)
	case *hclsyntax.RelativeTraversalExpr:
		tokens = extractTokensFromExpr(e.Source, tokens)
	case *hclsyntax.TemplateExpr:
		tokens = append(tokens, rangeToken(e.SrcRange, "string", 0))
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			tokens = extractTokensFromExpr(item, tokens)
		}
	}
	return tokens
}

// extractTokensFromLiteral handles number literals. Quoted strings parse as
// templates and are handled there.
func extractTokensFromLiteral(expr *hclsyntax.LiteralValueExpr, tokens []SemanticToken) []SemanticToken {
	if expr.Val.Type() == cty.Number {
		tokens = append(tokens, rangeToken(expr.SrcRange, "number", 0))
	}
	return tokens
}

// extractTokensFromTraversal handles references like bands.teal or spectrum.
func extractTokensFromTraversal(expr *hclsyntax.ScopeTraversalExpr, tokens []SemanticToken) []SemanticToken {
	if len(expr.Traversal) == 0 {
		return tokens
	}

	first, ok := expr.Traversal[0].(hcl.TraverseRoot)
	if !ok {
		return tokens
	}
	tokenType, ok := referenceRoots[first.Name]
	if !ok {
		return tokens
	}
	tokens = append(tokens, rangeToken(first.SrcRange, tokenType, 0))

	// Tokenize each subsequent segment as property
	for _, step := range expr.Traversal[1:] {
		if seg, ok := step.(hcl.TraverseAttr); ok {
			tokens = append(tokens, rangeToken(seg.SrcRange, "property", 0))
		}
	}

	return tokens
}

// extractTokensFromFunctionCall handles function calls like band()
func extractTokensFromFunctionCall(expr *hclsyntax.FunctionCallExpr, tokens []SemanticToken) []SemanticToken {
	tokens = append(tokens, SemanticToken{
		Line:      uint32(expr.NameRange.Start.Line - 1),
		StartChar: uint32(expr.NameRange.Start.Column - 1),
		Length:    uint32(len(expr.Name)),
		Type:      tokenTypeIndices["function"],
	})

	for _, arg := range expr.Args {
		tokens = extractTokensFromExpr(arg, tokens)
	}

	return tokens
}

// rangeToken makes a token covering r. A multi-line range keeps its byte
// length; clients clip it at the end of the first line.
func rangeToken(r hcl.Range, tokenType string, modifiers uint32) SemanticToken {
	length := r.End.Column - r.Start.Column
	if r.End.Line != r.Start.Line {
		length = r.End.Byte - r.Start.Byte
	}
	return SemanticToken{
		Line:      uint32(r.Start.Line - 1),
		StartChar: uint32(r.Start.Column - 1),
		Length:    uint32(max(length, 0)),
		Type:      tokenTypeIndices[tokenType],
		Modifiers: modifiers,
	}
}

// textDocumentSemanticTokensFull handles textDocument/semanticTokens/full requests.
func (s *Server) textDocumentSemanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	return &protocol.SemanticTokens{Data: semanticTokensFull(doc.Text)}, nil
}
