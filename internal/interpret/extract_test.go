// File: internal/interpret/extract_test.go
package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced with language tag",
			in:   "```json\n{\"columns\": []}\n```",
			want: `{"columns": []}`,
		},
		{
			name: "fenced without language tag",
			in:   "```\n{\"status\": \"completed\"}\n```",
			want: `{"status": "completed"}`,
		},
		{
			name: "fence surrounded by prose",
			in:   "Here is my analysis:\n```json\n{\"a\": 1}\n```\nLet me know if you need more.",
			want: `{"a": 1}`,
		},
		{
			name: "raw json",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "json embedded in prose",
			in:   `Sure! The result is {"a": {"b": 2}} as requested.`,
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "no json at all",
			in:   "I could not produce a result.",
			want: "I could not produce a result.",
		},
		{
			name: "surrounding whitespace",
			in:   "  \n {\"a\": 1} \n ",
			want: `{"a": 1}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}
