// Package render provides the per-format output renderers used when
// persisting aggregated content.
// This file implements the Markdown and plain-text renderers, which are
// simple passthroughs.
package render

// MarkdownRenderer writes Markdown as-is.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the Markdown as bytes (passthrough).
func (r *MarkdownRenderer) Render(content string) ([]byte, error) {
	return []byte(content), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// TextRenderer writes plain text as-is.
type TextRenderer struct{}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render returns the text as bytes (passthrough).
func (r *TextRenderer) Render(content string) ([]byte, error) {
	return []byte(content), nil
}

// Extension returns the file extension for plain-text output.
func (r *TextRenderer) Extension() string {
	return ".txt"
}
