package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "some **bold** and *italic*",
			contains: []string{"<strong>bold</strong>", "<em>italic</em>"},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "script is stripped",
			input:    "hello <script>alert(1)</script>",
			contains: []string{"hello"},
			excludes: []string{"<script", "alert(1)"},
		},
		{
			name:     "javascript link is dropped",
			input:    "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "fenced code keeps language class",
			input:    "```go\nfmt.Println()\n```",
			contains: []string{`<code class="language-go">`},
		},
		{
			name:     "linkify",
			input:    "see https://example.com",
			contains: []string{`href="https://example.com"`},
		},
		{
			name:     "table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Render(tt.input)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderAttribute(t *testing.T) {
	r := New()
	attrs := map[string]any{"body": "# Title", "views": 3}

	assert.True(t, r.RenderAttribute(attrs, "body"))
	assert.Equal(t, "<h1>Title</h1>", attrs["bodyHtml"])

	assert.False(t, r.RenderAttribute(attrs, "views"))
	assert.False(t, r.RenderAttribute(attrs, "missing"))
	assert.NotContains(t, attrs, "viewsHtml")
}
