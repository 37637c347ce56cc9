package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			text: `{"slides": []}`,
			want: `{"slides": []}`,
			ok:   true,
		},
		{
			name: "object wrapped in prose",
			text: "Here is your deck:\n{\"slides\": [{\"title\": \"Intro\"}]}\nEnjoy!",
			want: `{"slides": [{"title": "Intro"}]}`,
			ok:   true,
		},
		{
			name: "code fence",
			text: "```json\n{\"description\": \"layout\"}\n```",
			want: `{"description": "layout"}`,
			ok:   true,
		},
		{
			name: "braces inside string values",
			text: `{"content": "use {curly} braces"}`,
			want: `{"content": "use {curly} braces"}`,
			ok:   true,
		},
		{
			name: "escaped quote inside string",
			text: `{"content": "she said \"hi\" {"}`,
			want: `{"content": "she said \"hi\" {"}`,
			ok:   true,
		},
		{
			name: "nested objects",
			text: `prefix {"a": {"b": {"c": 1}}} suffix`,
			want: `{"a": {"b": {"c": 1}}}`,
			ok:   true,
		},
		{
			name: "no object at all",
			text: "plain prose without any JSON",
			ok:   false,
		},
		{
			name: "unbalanced open brace",
			text: `{"slides": [`,
			ok:   false,
		},
		{
			name: "empty input",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
