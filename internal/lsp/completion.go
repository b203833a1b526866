package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// splitLines splits content into lines, preserving empty trailing lines.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// blockContext represents the kind of block the cursor is in.
type blockContext int

const (
	contextRoot    blockContext = iota
	contextTrainer              // inside trainer {}
	contextBand                 // inside band "x" {}
	contextPreset               // inside preset "x" {}
	contextUnknown
)

type attrInfo struct {
	name   string
	detail string
}

// blockAttributes are the attributes each block accepts, in canonical order.
var blockAttributes = map[blockContext][]attrInfo{
	contextTrainer: {
		{"preset", "preset to start with"},
		{"rotate", "presets to rotate through after preset"},
		{"report_url", "http endpoint results are posted to"},
		{"report_file", "JSON lines file results are appended to"},
		{"bounce_interval", "swatch bounce tick, e.g. \"60ms\""},
		{"flash", "judgment flash length, e.g. \"100ms\""},
		{"settle", "pause before the next exercise, e.g. \"50ms\""},
		{"sound", "play a tone on each judgment"},
	},
	contextBand: {
		{"hue", "[low, high) in degrees; high may pass 360"},
		{"saturation", "[low, high] in percent"},
		{"lightness", "[low, high] in percent"},
	},
	contextPreset: {
		{"steps", "number of scale steps, at least 2"},
		{"colors", "band the swatch color is drawn from"},
	},
}

// topLevelBlocks are the valid top-level block snippets.
var topLevelBlocks = []struct {
	name    string
	snippet string
}{
	{"trainer", "trainer {\n  $0\n}"},
	{"band", "band \"${1:name}\" {\n  hue = [${2:0}, ${3:60}]\n}"},
	{"preset", "preset \"${1:name}\" {\n  steps  = ${2:4}\n  colors = $0\n}"},
}

// complete produces completion items given an analysis result, document content,
// and cursor position. This is the core logic, decoupled from the LSP protocol
// handler for testability.
func complete(result *AnalysisResult, content string, pos protocol.Position) []protocol.CompletionItem {
	lines := splitLines(content)
	if int(pos.Line) >= len(lines) {
		return nil
	}

	line := lines[pos.Line]
	charPos := min(int(pos.Character), len(line))
	textBeforeCursor := line[:charPos]

	if items := tryBandCompletion(result, textBeforeCursor); items != nil {
		return items
	}

	ctx := determineBlockContext(lines, int(pos.Line))

	if attr, value, ok := attributeValue(textBeforeCursor); ok {
		return valueCompletions(result, ctx, attr, value)
	}

	switch ctx {
	case contextRoot:
		return topLevelCompletions()
	case contextTrainer, contextBand, contextPreset:
		return attributeCompletions(ctx, findDefinedAttributes(lines, int(pos.Line)))
	}

	return nil
}

// tryBandCompletion returns the bands in scope when the text before the
// cursor ends in "bands." or a partial band name after it.
func tryBandCompletion(result *AnalysisResult, textBeforeCursor string) []protocol.CompletionItem {
	if result == nil {
		return nil
	}

	idx := strings.LastIndex(textBeforeCursor, "bands.")
	if idx == -1 {
		return nil
	}
	if strings.ContainsFunc(textBeforeCursor[idx+len("bands."):], func(r rune) bool { return !isIdentRune(r) }) {
		return nil
	}

	names := make([]string, 0, len(result.Bands))
	for name := range result.Bands {
		names = append(names, name)
	}
	sort.Strings(names)

	kind := protocol.CompletionItemKindColor
	items := make([]protocol.CompletionItem, 0, len(names))
	for _, name := range names {
		b := result.Bands[name]
		detail := fmt.Sprintf("hue [%g, %g)", b.Hue.Lo, b.Hue.Hi)
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &kind,
			Detail: &detail,
		})
	}
	return items
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '-'
}

// attributeValue splits "  name = value" at the last "=". It reports false
// when there is no "=" before the cursor.
func attributeValue(textBeforeCursor string) (attr, value string, ok bool) {
	eqIdx := strings.LastIndex(textBeforeCursor, "=")
	if eqIdx == -1 {
		return "", "", false
	}
	attr = strings.TrimSpace(textBeforeCursor[:eqIdx])
	if strings.ContainsAny(attr, " {\"") {
		return "", "", false
	}
	return attr, strings.TrimSpace(textBeforeCursor[eqIdx+1:]), true
}

// valueCompletions returns completion items for the value of attr.
func valueCompletions(result *AnalysisResult, ctx blockContext, attr, value string) []protocol.CompletionItem {
	switch {
	case ctx == contextPreset && attr == "colors" && value == "":
		return colorSourceCompletions()
	case ctx == contextTrainer && attr == "preset" && value == "":
		return presetCompletions(result)
	case ctx == contextTrainer && attr == "rotate" && (value == "" || strings.HasSuffix(value, "[") || strings.HasSuffix(value, ",")):
		items := presetCompletions(result)
		if value == "" {
			for i := range items {
				text := "[" + *items[i].InsertText + "]"
				items[i].InsertText = &text
			}
		}
		return items
	case ctx == contextTrainer && attr == "sound" && value == "":
		kind := protocol.CompletionItemKindValue
		return []protocol.CompletionItem{
			{Label: "true", Kind: &kind},
			{Label: "false", Kind: &kind},
		}
	}
	return nil
}

// colorSourceCompletions offers everything a preset's colors may be.
func colorSourceCompletions() []protocol.CompletionItem {
	snippetFormat := protocol.InsertTextFormatSnippet

	bandSnippet := "band(${1:hue_lo}, ${2:hue_hi})"
	bandsText := "bands."

	return []protocol.CompletionItem{
		{
			Label:  "greyscale",
			Kind:   completionKindPtr(protocol.CompletionItemKindVariable),
			Detail: strPtr("unsaturated colors"),
		},
		{
			Label:  "spectrum",
			Kind:   completionKindPtr(protocol.CompletionItemKindVariable),
			Detail: strPtr("any hue, saturation and lightness"),
		},
		{
			Label:      "bands",
			Kind:       completionKindPtr(protocol.CompletionItemKindModule),
			Detail:     strPtr("named band"),
			InsertText: &bandsText,
		},
		{
			Label:            "band",
			Kind:             completionKindPtr(protocol.CompletionItemKindFunction),
			Detail:           strPtr("band(hue_lo, hue_hi[, sat_lo, sat_hi, light_lo, light_hi])"),
			InsertText:       &bandSnippet,
			InsertTextFormat: &snippetFormat,
		},
	}
}

// presetCompletions offers the names of the presets in scope as quoted strings.
func presetCompletions(result *AnalysisResult) []protocol.CompletionItem {
	if result == nil || result.Presets == nil {
		return nil
	}

	kind := protocol.CompletionItemKindEnumMember
	var items []protocol.CompletionItem
	for _, p := range result.Presets.All() {
		detail := fmt.Sprintf("%d steps from %s", p.Steps, p.Colors.Name)
		text := fmt.Sprintf("%q", p.Name)
		items = append(items, protocol.CompletionItem{
			Label:      p.Name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &text,
		})
	}
	return items
}

// determineBlockContext scans from the top of the file down to the cursor line
// to determine which block the cursor is in, using brace nesting.
func determineBlockContext(lines []string, cursorLine int) blockContext {
	var stack []string

	for i := 0; i <= cursorLine && i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		opens := strings.Count(line, "{")
		closes := strings.Count(line, "}")

		// Process opening braces: the block type is the first word on the line
		if opens > 0 {
			parts := strings.Fields(line)
			if len(parts) >= 1 {
				for range opens {
					stack = append(stack, parts[0])
				}
			}
		}

		for range closes {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 {
		return contextRoot
	}
	if len(stack) > 1 {
		return contextUnknown
	}

	switch stack[0] {
	case "trainer":
		return contextTrainer
	case "band":
		return contextBand
	case "preset":
		return contextPreset
	default:
		return contextUnknown
	}
}

// attributeCompletions returns the attributes of the block not yet defined.
func attributeCompletions(ctx blockContext, defined map[string]bool) []protocol.CompletionItem {
	kind := protocol.CompletionItemKindProperty

	var items []protocol.CompletionItem
	for _, attr := range blockAttributes[ctx] {
		if defined[attr.name] {
			continue
		}
		text := attr.name + " = "
		items = append(items, protocol.CompletionItem{
			Label:      attr.name,
			Kind:       &kind,
			Detail:     strPtr(attr.detail),
			InsertText: &text,
		})
	}
	return items
}

// findDefinedAttributes scans the current block (from the nearest opening brace
// before cursorLine to cursorLine) and returns attribute names already defined
// (lines containing "name = ...").
func findDefinedAttributes(lines []string, cursorLine int) map[string]bool {
	defined := make(map[string]bool)

	// Scan backwards to find the opening brace of the current block
	startLine := 0
	depth := 0
	for i := cursorLine; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		closes := strings.Count(line, "}")
		opens := strings.Count(line, "{")
		depth += closes - opens
		if depth < 0 {
			startLine = i
			break
		}
	}

	// Scan forward from startLine, collecting attribute names
	for i := startLine; i <= cursorLine; i++ {
		line := strings.TrimSpace(lines[i])
		if eqIdx := strings.Index(line, "="); eqIdx > 0 {
			name := strings.TrimSpace(line[:eqIdx])
			if !strings.Contains(name, " ") && !strings.Contains(name, "{") {
				defined[name] = true
			}
		}
	}

	return defined
}

// topLevelCompletions returns completion items for top-level block names.
func topLevelCompletions() []protocol.CompletionItem {
	snippetFormat := protocol.InsertTextFormatSnippet
	kind := protocol.CompletionItemKindSnippet

	var items []protocol.CompletionItem
	for _, b := range topLevelBlocks {
		snippet := b.snippet
		items = append(items, protocol.CompletionItem{
			Label:            b.name,
			Kind:             &kind,
			InsertText:       &snippet,
			InsertTextFormat: &snippetFormat,
		})
	}

	return items
}

func completionKindPtr(k protocol.CompletionItemKind) *protocol.CompletionItemKind {
	return &k
}

// textDocumentCompletion is the LSP handler for textDocument/completion requests.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	return complete(doc.Result, doc.Text, params.Position), nil
}
