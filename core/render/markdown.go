// Package render provides output renderers for schedule documents.
// This file implements the Markdown renderer: the HTML preview converted with
// html-to-markdown, so both formats always agree on content.
package render

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/gaurav-prasanna/schedpdf/core"
)

// MarkdownRenderer writes a schedule as a Markdown document with a pipe table.
type MarkdownRenderer struct {
	html *HTMLRenderer
	conv *converter.Converter
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		html: NewHTMLRenderer(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Render converts doc to Markdown.
func (r *MarkdownRenderer) Render(doc core.ScheduleDocument) ([]byte, error) {
	html, err := r.html.Render(doc)
	if err != nil {
		return nil, err
	}
	markdown, err := r.conv.ConvertString(string(html))
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return []byte(markdown), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
