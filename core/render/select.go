package render

import (
	"fmt"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// For returns the renderer for a format.
func For(format core.Format) (core.Renderer, error) {
	switch format {
	case core.FormatJSON:
		return NewJSONRenderer(), nil
	case core.FormatMarkdown:
		return NewMarkdownRenderer(), nil
	case core.FormatRaw:
		return NewTextRenderer(), nil
	case core.FormatPDF:
		return NewPDFRenderer(""), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, format)
	}
}
