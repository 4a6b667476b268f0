package email

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// HTMLRenderer builds the text/html alternative part from the resolved body.
// The default renderer shows the body verbatim; the Markdown renderer is opt-in.
type HTMLRenderer struct {
	md     goldmark.Markdown // nil renders the body as escaped text
	policy *bluemonday.Policy
}

// NewHTMLRenderer creates a renderer that escapes the body and keeps its line
// breaks, so recipients see exactly the plain-text body.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{policy: bluemonday.UGCPolicy()}
}

// NewMarkdownRenderer creates a renderer that treats the body as Markdown, with
// hard line wraps so that line breaks typed in the body survive.
func NewMarkdownRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(
				goldmarkHTML.WithHardWraps(),
			),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts body to sanitised HTML.
// PRE: none
// POST: Text mode returns every character of body visible; Markdown mode returns rendered markup
func (h *HTMLRenderer) Render(body string) (string, error) {
	if h.md == nil {
		return renderText(body), nil
	}
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return h.policy.Sanitize(buf.String()), nil
}

// renderText escapes body and turns newlines into <br>.
func renderText(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return "<p>" + strings.Join(lines, "<br>\n") + "</p>"
}
