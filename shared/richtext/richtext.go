// Package richtext turns markdown attributes of CMS entries into safe HTML.
package richtext

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLSuffix is appended to an attribute name to store its rendered form.
const HTMLSuffix = "Html"

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithRendererOptions(html.WithUnsafe()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Table, extension.Linkify),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w-]+$`)).OnElements("code")
	p.AllowRelativeURLs(true)

	return &Renderer{md: md, policy: p}
}

// Render converts markdown to sanitized HTML. Raw HTML embedded in the
// source passes through goldmark and is then filtered by the policy.
func (r *Renderer) Render(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return r.policy.Sanitize(markdown)
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String()))
}

// RenderAttribute renders attrs[name] into attrs[name+HTMLSuffix] when it
// holds a string. It reports whether anything was rendered.
func (r *Renderer) RenderAttribute(attrs map[string]any, name string) bool {
	s, ok := attrs[name].(string)
	if !ok {
		return false
	}
	attrs[name+HTMLSuffix] = r.Render(s)
	return true
}
