package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

func TestJSONRender(t *testing.T) {
	out, err := NewJSONRenderer().Render(`{"a":1}`)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", out)
	}
}

func TestJSONRenderKeepsOrderAndText(t *testing.T) {
	out, _ := NewJSONRenderer().Render(`[{"z":"图表","a":"<b>"}]`)
	want := "[\n  {\n    \"z\": \"图表\",\n    \"a\": \"<b>\"\n  }\n]"
	if string(out) != want {
		t.Fatalf("got %q", out)
	}
}

func TestJSONRenderUnescapesText(t *testing.T) {
	out, _ := NewJSONRenderer().Render(`{"a":"\u00e9","b":"\u56fe\u8868"}`)
	want := "{\n  \"a\": \"é\",\n  \"b\": \"图表\"\n}"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestJSONRenderInvalidPassthrough(t *testing.T) {
	out, err := NewJSONRenderer().Render("not json")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "not json" {
		t.Fatalf("got %q", out)
	}
}

func TestTextRenderers(t *testing.T) {
	for _, r := range []core.Renderer{NewMarkdownRenderer(), NewTextRenderer()} {
		out, err := r.Render("# hi\n")
		if err != nil || string(out) != "# hi\n" {
			t.Fatalf("%T: got %q, %v", r, out, err)
		}
	}
}

func TestPDFRender(t *testing.T) {
	md := "# Report\n\nSome **bold** text with é.\n\n- item\n\n```\ncode\n```\n\n<div>cell</div>\n\n![x](imgs/a.jpg)"
	out, err := NewPDFRenderer("Title").Render(md)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", out[:min(len(out), 8)])
	}
}

func TestFor(t *testing.T) {
	tests := map[core.Format]string{
		core.FormatJSON:     ".json",
		core.FormatMarkdown: ".md",
		core.FormatRaw:      ".txt",
		core.FormatPDF:      ".pdf",
	}
	for format, ext := range tests {
		r, err := For(format)
		if err != nil {
			t.Fatalf("For(%s): %v", format, err)
		}
		if r.Extension() != ext {
			t.Errorf("For(%s).Extension() = %s, want %s", format, r.Extension(), ext)
		}
	}

	if _, err := For("docx"); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
