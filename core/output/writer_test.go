package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/payload"
)

func TestPersistJSON(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	paths, err := w.Persist(`{"a":1}`, core.FormatJSON, "doc", nil)
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(dir, "doc.json")
	if len(paths) != 1 || paths[0] != want {
		t.Fatalf("unexpected paths %v", paths)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc_images")); !os.IsNotExist(err) {
		t.Fatal("image directory must not be created without images")
	}
}

func TestPersistMarkdownWithImages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, _ := New(dir, nil)

	images := []core.Image{
		{Path: "imgs/a.jpg", Payload: payload.Bytes("first")},
		{Path: "imgs/b.png", Payload: payload.Bytes("B")},
		{Path: "other/a.jpg", Payload: payload.Bytes("second")},
		{Path: "imgs/none.png"},
	}
	paths, err := w.Persist("# Doc", core.FormatMarkdown, "doc", images)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "doc.md"),
		filepath.Join(dir, "doc_images", "a.jpg"),
		filepath.Join(dir, "doc_images", "b.png"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("got %v, want %v", paths, want)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, "doc_images"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected one file per distinct name, got %d", len(entries))
	}
	// Same-named images: last write wins.
	data, _ := os.ReadFile(filepath.Join(dir, "doc_images", "a.jpg"))
	if string(data) != "second" {
		t.Fatalf("got %q", data)
	}
}

func TestPersistError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w, _ := New(filepath.Join(blocker, "out"), nil)
	paths, err := w.Persist("text", core.FormatRaw, "doc", nil)

	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if pe.Op != "mkdir" || len(paths) != 0 {
		t.Fatalf("unexpected failure %v / %v", pe, paths)
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report",
		"/tmp/scan.page1.png":  "scan.page1",
		`C:\docs\invoice.jpeg`: "invoice",
		"":                     "document",
		"noext":                "noext",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImageFileName(t *testing.T) {
	tests := map[string]string{
		"imgs/img_in_1.jpg": "img_in_1.jpg",
		`imgs\fig.png`:      "fig.png",
		"plain.png":         "plain.png",
		"imgs/":             "imgs",
		"":                  "",
	}
	for in, want := range tests {
		if got := imageFileName(in); got != want {
			t.Errorf("imageFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
