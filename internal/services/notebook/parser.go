package notebook

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResponseKind tags a parsed tool reply
type ResponseKind int

const (
	// ResponseStructured means the reply carried (or embedded) a JSON object
	ResponseStructured ResponseKind = iota
	// ResponseRawText means the reply was free text that did not parse as JSON
	ResponseRawText
)

// ParsedResponse is the tagged union produced from every tool reply. The
// server's replies are not uniformly structured: some tools return a
// structured payload, others inline serialized JSON in their text, and some
// return plain prose. Callers branch on Kind instead of re-guessing shapes.
type ParsedResponse struct {
	Kind   ResponseKind
	Fields map[string]any
	Raw    string
}

// ParseToolResult converts an MCP tool result into a ParsedResponse. Order of
// attempts: structured content field, then a secondary JSON parse of the text
// content, then raw text as the final fallback.
func ParseToolResult(result *mcp.CallToolResult) *ParsedResponse {
	raw := textOf(result)

	if m, ok := result.StructuredContent.(map[string]any); ok && len(m) > 0 {
		return &ParsedResponse{Kind: ResponseStructured, Fields: m, Raw: raw}
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
			return &ParsedResponse{Kind: ResponseStructured, Fields: m, Raw: raw}
		}
	}

	return &ParsedResponse{Kind: ResponseRawText, Raw: raw}
}

// textOf concatenates the text content items of a tool result
func textOf(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// StringField returns a string-valued field from a structured response, or ""
func (p *ParsedResponse) StringField(keys ...string) string {
	if p.Kind != ResponseStructured {
		return ""
	}
	for _, key := range keys {
		if v, ok := p.Fields[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// Text returns the best-effort textual payload: a structured "answer"/"text"
// field when present, otherwise the raw reply text.
func (p *ParsedResponse) Text() string {
	if s := p.StringField("answer", "text", "content"); s != "" {
		return s
	}
	return p.Raw
}
