// Package classify decides which embedded images belong to chart regions.
package classify

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// chartRefRegex matches engine image crops referenced from chart blocks,
// e.g. imgs/img_in_chart_box_12_34_56_78.jpg.
var chartRefRegex = regexp.MustCompile(`imgs/img_in[^\s()\[\]"'<>]*?\.(?i:jpe?g|png|bmp|gif|webp|tiff?)\b`)

// chartKeywords flag an image path as a chart crop by name alone.
var chartKeywords = []string{"chart", "图表", "img_in_chart"}

// ChartRefs returns the image paths referenced from chart blocks.
func ChartRefs(blocks []core.Block) map[string]bool {
	refs := make(map[string]bool)
	for _, b := range blocks {
		if b.Label != core.LabelChart {
			continue
		}
		c, ok := b.Content.(core.OpaqueContent)
		if !ok {
			continue
		}
		for _, m := range chartRefRegex.FindAllString(c.Raw, -1) {
			refs[m] = true
		}
	}
	return refs
}

// HasChartKeyword reports whether the path names a chart, ignoring case.
func HasChartKeyword(path string) bool {
	// Casers carry state and are not shared across goroutines.
	fold := cases.Fold()
	folded := fold.String(path)
	for _, kw := range chartKeywords {
		if strings.Contains(folded, fold.String(kw)) {
			return true
		}
	}
	return false
}

// ChartImages returns the images of a page that belong to chart regions:
// those referenced from a chart block, plus those whose path carries a
// chart keyword. Images matching neither signal are dropped even if no
// block references them at all. Input order is preserved.
func ChartImages(blocks []core.Block, images []core.Image) []core.Image {
	refs := ChartRefs(blocks)
	var out []core.Image
	for _, img := range images {
		if refs[img.Path] || HasChartKeyword(img.Path) {
			out = append(out, img)
		}
	}
	return out
}
