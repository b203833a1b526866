package lsp

import (
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type notification struct {
	method string
	params any
}

func recordingContext(sent *[]notification) *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			*sent = append(*sent, notification{method, params})
		},
	}
}

func lastDiagnostics(t *testing.T, sent []notification) protocol.PublishDiagnosticsParams {
	t.Helper()
	if len(sent) == 0 {
		t.Fatal("no notifications sent")
	}
	n := sent[len(sent)-1]
	if n.method != protocol.ServerTextDocumentPublishDiagnostics {
		t.Fatalf("method = %q, want %q", n.method, protocol.ServerTextDocumentPublishDiagnostics)
	}
	return n.params.(protocol.PublishDiagnosticsParams)
}

func TestServer_DiagnosticsLifecycle(t *testing.T) {
	s := NewServer("test")
	var sent []notification
	ctx := recordingContext(&sent)
	uri := protocol.DocumentUri("file:///trainer.hcl")

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "trainer {\n  preset = \"nope\"\n}\n"},
	})
	if err != nil {
		t.Fatal(err)
	}
	params := lastDiagnostics(t, sent)
	if params.URI != uri || len(params.Diagnostics) != 1 {
		t.Errorf("open: published %+v, want one diagnostic for %s", params, uri)
	}
	if params.Version == nil || *params.Version != 1 {
		t.Errorf("open: version = %v, want 1", params.Version)
	}

	err = s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: validConfig},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	params = lastDiagnostics(t, sent)
	if params.Diagnostics == nil || len(params.Diagnostics) != 0 {
		t.Errorf("change: published %v, want an empty list", params.Diagnostics)
	}
	if res := s.getResult(string(uri)); res == nil || res.Config == nil {
		t.Error("change: analysis not stored")
	}

	err = s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatal(err)
	}
	if params = lastDiagnostics(t, sent); len(params.Diagnostics) != 0 {
		t.Errorf("close: published %v, want cleared diagnostics", params.Diagnostics)
	}
	if s.getResult(string(uri)) != nil {
		t.Error("close: document still stored")
	}
}

func TestServer_RequestsOnUnknownDocument(t *testing.T) {
	s := NewServer("test")
	doc := protocol.TextDocumentIdentifier{URI: "file:///missing.hcl"}
	pos := protocol.TextDocumentPositionParams{TextDocument: doc}

	if h, err := s.textDocumentHover(nil, &protocol.HoverParams{TextDocumentPositionParams: pos}); h != nil || err != nil {
		t.Errorf("hover = %v, %v", h, err)
	}
	if loc, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{TextDocumentPositionParams: pos}); loc != nil || err != nil {
		t.Errorf("definition = %v, %v", loc, err)
	}
	if items, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{TextDocumentPositionParams: pos}); items != nil || err != nil {
		t.Errorf("completion = %v, %v", items, err)
	}
	if edits, err := s.textDocumentFormatting(nil, &protocol.DocumentFormattingParams{TextDocument: doc}); edits != nil || err != nil {
		t.Errorf("formatting = %v, %v", edits, err)
	}
	if colors, err := s.textDocumentDocumentColor(nil, &protocol.DocumentColorParams{TextDocument: doc}); len(colors) != 0 || err != nil {
		t.Errorf("documentColor = %v, %v", colors, err)
	}
}

func TestServer_Initialize(t *testing.T) {
	s := NewServer("1.2.3")
	res, err := s.initialize(nil, &protocol.InitializeParams{})
	if err != nil {
		t.Fatal(err)
	}
	init := res.(protocol.InitializeResult)
	if init.ServerInfo.Name != serverName || *init.ServerInfo.Version != "1.2.3" {
		t.Errorf("ServerInfo = %+v", init.ServerInfo)
	}
	tokens, ok := init.Capabilities.SemanticTokensProvider.(*protocol.SemanticTokensOptions)
	if !ok {
		t.Fatalf("SemanticTokensProvider = %T", init.Capabilities.SemanticTokensProvider)
	}
	if len(tokens.Legend.TokenTypes) != len(semanticTokenTypes) {
		t.Errorf("legend has %d token types, want %d", len(tokens.Legend.TokenTypes), len(semanticTokenTypes))
	}
}
