// Package normalize — HTML tables.
// The engine renders tables as raw HTML inside its markdown. TableConverter
// rewrites those fragments as pipe tables using html-to-markdown.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var tableFragmentRegex = regexp.MustCompile(`(?is)<table\b.*?</table>`)

// TableConverter converts HTML tables embedded in markdown.
type TableConverter struct {
	conv *converter.Converter
}

// NewTableConverter creates a TableConverter.
func NewTableConverter() *TableConverter {
	return &TableConverter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// ConvertTable converts a single HTML table fragment into markdown.
func (t *TableConverter) ConvertTable(html string) (string, error) {
	md, err := t.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting table to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// Convert rewrites every <table>...</table> fragment in markdown. A fragment
// that fails to convert is left as HTML; the first such error is returned
// alongside the otherwise converted text.
func (t *TableConverter) Convert(markdown string) (string, error) {
	var firstErr error
	out := tableFragmentRegex.ReplaceAllStringFunc(markdown, func(frag string) string {
		md, err := t.ConvertTable(frag)
		if err != nil || md == "" {
			if firstErr == nil && err != nil {
				firstErr = err
			}
			return frag
		}
		return "\n\n" + md + "\n\n"
	})
	return out, firstErr
}
