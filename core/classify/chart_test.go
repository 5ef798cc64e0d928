package classify

import (
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/payload"
)

func paths(images []core.Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.Path)
	}
	return out
}

func TestChartImagesReferenced(t *testing.T) {
	blocks := []core.Block{
		{Label: core.LabelChart, Content: core.OpaqueContent{Raw: "imgs/img_in_1.jpg"}},
	}
	images := []core.Image{
		{Path: "imgs/img_in_1.jpg", Payload: payload.Bytes("P1")},
		{Path: "imgs/fig_2.png", Payload: payload.Bytes("P2")},
	}

	got := ChartImages(blocks, images)
	if len(got) != 1 {
		t.Fatalf("expected 1 chart image, got %v", paths(got))
	}
	if got[0].Path != "imgs/img_in_1.jpg" || string(got[0].Payload.(payload.Bytes)) != "P1" {
		t.Fatalf("unexpected chart image %#v", got[0])
	}
}

func TestChartImagesKeyword(t *testing.T) {
	images := []core.Image{
		{Path: "imgs/img_in_CHART_box_3.jpg"},
		{Path: "imgs/销售图表.png"},
		{Path: "imgs/img_in_image_box_4.jpg"},
	}

	got := paths(ChartImages(nil, images))
	if len(got) != 2 || got[0] != "imgs/img_in_CHART_box_3.jpg" || got[1] != "imgs/销售图表.png" {
		t.Fatalf("unexpected keyword matches %v", got)
	}
}

func TestChartImagesOrphanExcluded(t *testing.T) {
	blocks := []core.Block{
		// Only chart blocks count as references.
		{Label: core.LabelOther, Content: core.OpaqueContent{Raw: "imgs/img_in_9.jpg"}},
		{Label: core.LabelText, Content: core.TextContent{Text: "imgs/img_in_9.jpg"}},
	}
	images := []core.Image{{Path: "imgs/img_in_9.jpg"}}

	if got := ChartImages(blocks, images); len(got) != 0 {
		t.Fatalf("expected orphaned image to be excluded, got %v", paths(got))
	}
}

func TestChartRefs(t *testing.T) {
	blocks := []core.Block{
		{Label: core.LabelChart, Content: core.OpaqueContent{
			Raw: `<img src="imgs/img_in_chart_box_1_2_3_4.jpg"> and ![x](imgs/img_in_5.PNG) and imgs/other_6.jpg`,
		}},
		{Label: core.LabelChart}, // malformed, ignored
	}

	refs := ChartRefs(blocks)
	if len(refs) != 2 || !refs["imgs/img_in_chart_box_1_2_3_4.jpg"] || !refs["imgs/img_in_5.PNG"] {
		t.Fatalf("unexpected refs %v", refs)
	}
}

func TestHasChartKeyword(t *testing.T) {
	if !HasChartKeyword("imgs/Chart_1.jpg") {
		t.Error("expected case-insensitive match")
	}
	if HasChartKeyword("imgs/img_in_table_1.jpg") {
		t.Error("unexpected match")
	}
}
