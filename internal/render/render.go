// Package render converts between Markdown and HTML for the editor: goldmark
// for the display direction, html-to-markdown for the save direction.
package render

import (
	"bytes"
	"fmt"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer is stateless; a single instance is shared across requests without
// additional locking.
type Renderer struct {
	md   goldmark.Markdown
	conv *htmltomd.Converter
}

// New builds a renderer with GFM extensions, auto heading IDs, and raw HTML
// passthrough, matching how the files render on GitHub itself.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		conv: htmltomd.NewConverter("", true, nil),
	}
}

// HTML renders Markdown to HTML.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Markdown converts edited HTML back to Markdown. Whitespace and formatting
// are not guaranteed to round-trip exactly; semantics are.
func (r *Renderer) Markdown(src string) (string, error) {
	out, err := r.conv.ConvertString(src)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return out, nil
}
