// Package extract turns structured content blocks into plain text.
// The projection is lossy on purpose: tables lose their row and column
// structure, equations stay as LaTeX, and chart blocks contribute nothing.
package extract

import (
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// Outcome classifies what happened to one block during extraction.
type Outcome int

const (
	// Extracted means the block produced at least one text unit.
	Extracted Outcome = iota
	// Empty means the block was well formed but carried no text.
	Empty
	// Unknown means the label has no text projection (chart, other, unrecognized).
	Unknown
	// Malformed means the content did not have the shape its label requires.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Extracted:
		return "extracted"
	case Empty:
		return "empty"
	case Unknown:
		return "unknown"
	case Malformed:
		return "malformed"
	default:
		return "invalid"
	}
}

var (
	tagRegex        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Units returns the text units of a block in order. Span-list blocks yield
// one unit per non-empty span; every other block yields at most one unit.
// It never fails: shapes that do not fit the label yield no units.
func Units(b core.Block) ([]string, Outcome) {
	switch b.Label {
	case core.LabelText, core.LabelTitle:
		switch c := b.Content.(type) {
		case core.TextContent:
			return single(c.Text)
		case core.SpansContent:
			var units []string
			for _, sp := range c.Spans {
				if sp.Text != "" {
					units = append(units, sp.Text)
				}
			}
			if len(units) == 0 {
				return nil, Empty
			}
			return units, Extracted
		}
		return nil, Malformed

	case core.LabelTable:
		c, ok := b.Content.(core.TableContent)
		if !ok {
			return nil, Malformed
		}
		return single(StripTags(c.HTML))

	case core.LabelEquation:
		c, ok := b.Content.(core.EquationContent)
		if !ok {
			return nil, Malformed
		}
		return single(c.LaTeX)

	default:
		return nil, Unknown
	}
}

// Text returns the plain text of a block, joining span units with a blank line.
// Unknown labels and malformed content yield "".
func Text(b core.Block) string {
	units, _ := Units(b)
	return strings.Join(units, "\n\n")
}

// StripTags replaces every HTML tag with a space and collapses whitespace.
func StripTags(html string) string {
	text := tagRegex.ReplaceAllString(html, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func single(s string) ([]string, Outcome) {
	if s == "" {
		return nil, Empty
	}
	return []string{s}, Extracted
}
