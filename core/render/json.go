// Package render — JSON renderer.
// Pretty-prints aggregated JSON with 2-space indentation. Content that is
// not valid JSON is written unchanged: this is formatting, not validation.
package render

import (
	"bytes"
	"encoding/json"

	"github.com/gaurav-prasanna/layoutpipe/core/normalize"
)

// JSONRenderer produces indented JSON output.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render re-indents content, keeping key order. Escaped non-ASCII text is
// written literally.
func (r *JSONRenderer) Render(content string) ([]byte, error) {
	compact, err := normalize.ReencodeJSON([]byte(content))
	if err != nil {
		return []byte(content), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return []byte(content), nil
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
