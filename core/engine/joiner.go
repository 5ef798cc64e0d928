package engine

import (
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// DefaultSeparator is placed between pages when no engine-specific join
// convention is available.
const DefaultSeparator = "\n\n"

// SeparatorJoiner joins page markdown with a fixed separator, skipping
// pages that are blank.
type SeparatorJoiner struct {
	Separator string
}

// NewJoiner returns a SeparatorJoiner; an empty separator means DefaultSeparator.
func NewJoiner(separator string) SeparatorJoiner {
	if separator == "" {
		separator = DefaultSeparator
	}
	return SeparatorJoiner{Separator: separator}
}

// JoinPages implements core.PageJoiner.
func (j SeparatorJoiner) JoinPages(pages []core.MarkdownInfo) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, j.Separator)
}
