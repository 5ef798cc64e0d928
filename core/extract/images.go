// Package extract — image references.
// Engine markdown embeds figures both as HTML <img> tags and as markdown
// image syntax; ImageRefs collects the paths of both.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markdownImageRegex matches ![alt](src) and captures src.
var markdownImageRegex = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^)\s]+)[^)]*\)`)

// ImageRefs returns the distinct image paths referenced by markdown, in
// first-seen order. HTML references come before markdown-syntax ones.
func ImageRefs(markdown string) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		refs = append(refs, src)
	}

	if strings.Contains(markdown, "<img") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markdown))
		if err == nil {
			doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
				src, _ := s.Attr("src")
				add(src)
			})
		}
	}

	for _, m := range markdownImageRegex.FindAllStringSubmatch(markdown, -1) {
		add(m[1])
	}
	return refs
}
