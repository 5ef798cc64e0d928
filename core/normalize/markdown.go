// Package normalize reduces engine markdown to plain text and tidies the
// HTML fragments the engine leaves inside its markdown.
package normalize

import (
	"regexp"
	"strings"
)

// Passes run in this order; each assumes the previous ones have run.
var (
	headingMarkerRegex = regexp.MustCompile(`(?m)^#+\s+`)
	linkRegex          = regexp.MustCompile(`!?\[([^\]]+)\]\([^)]+\)`)
	imageRegex         = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	boldStarRegex      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicStarRegex    = regexp.MustCompile(`\*([^*]+)\*`)
	boldUnderRegex     = regexp.MustCompile(`__([^_]+)__`)
	italicUnderRegex   = regexp.MustCompile(`_([^_]+)_`)
	fencedCodeRegex    = regexp.MustCompile("```[^`]*```")
	inlineCodeRegex    = regexp.MustCompile("`([^`]+)`")
	htmlTagRegex       = regexp.MustCompile(`<[^>]+>`)
	blankRunRegex      = regexp.MustCompile(`\n{3,}`)
	spaceRunRegex      = regexp.MustCompile(`[ \t]+`)
)

// StripMarkdown removes markdown and HTML syntax from s and returns plain
// text. Image alt text is dropped; link text is kept. Unbalanced emphasis
// markers are left in place.
func StripMarkdown(s string) string {
	text := headingMarkerRegex.ReplaceAllString(s, "")

	// Image syntax also matches the link pattern; leave it for the image pass.
	text = linkRegex.ReplaceAllStringFunc(text, func(m string) string {
		if strings.HasPrefix(m, "!") {
			return m
		}
		return linkRegex.FindStringSubmatch(m)[1]
	})
	text = imageRegex.ReplaceAllString(text, "")

	text = boldStarRegex.ReplaceAllString(text, "$1")
	text = italicStarRegex.ReplaceAllString(text, "$1")
	text = boldUnderRegex.ReplaceAllString(text, "$1")
	text = italicUnderRegex.ReplaceAllString(text, "$1")

	text = fencedCodeRegex.ReplaceAllString(text, "")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")

	text = htmlTagRegex.ReplaceAllString(text, " ")

	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	text = spaceRunRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
