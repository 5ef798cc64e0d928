// Package output handles file naming and writing for LayoutPipe outputs.
//
// Layout for base name "doc":
//
//	<dir>/doc.json | doc.md | doc.txt | doc.pdf
//	<dir>/doc_images/<basename of each image path>
//
// Other tooling reads this layout; the names must not change.
package output

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/render"
)

// ImagesDirSuffix is appended to the base name for the image directory.
const ImagesDirSuffix = "_images"

// PersistError reports a failed directory creation or file write. The
// content that was being persisted is still valid.
type PersistError struct {
	Op   string // "mkdir", "render", "encode" or "write"
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
	logger    *slog.Logger
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
// Directories are created when something is written, not here.
func New(outputDir string, logger *slog.Logger) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{OutputDir: outputDir, logger: logger}, nil
}

// Persist writes content as <baseName><ext> and every image into
// <baseName>_images/. Images keep only the last segment of their path, so
// same-named images from different pages overwrite each other (last wins).
//
// It returns the written paths, primary file first, then images in the
// order given. A path is listed once even if it was written more than once.
// On failure the paths written so far are returned with a *PersistError.
func (w *Writer) Persist(content string, format core.Format, baseName string, images []core.Image) ([]string, error) {
	renderer, err := render.For(format)
	if err != nil {
		return nil, err
	}
	return w.PersistWith(renderer, content, baseName, images)
}

// PersistWith is Persist with an explicit renderer.
func (w *Writer) PersistWith(renderer core.Renderer, content string, baseName string, images []core.Image) ([]string, error) {
	primary := filepath.Join(w.OutputDir, baseName+renderer.Extension())

	data, err := renderer.Render(content)
	if err != nil {
		return nil, &PersistError{Op: "render", Path: primary, Err: err}
	}
	if err := writeFile(primary, data); err != nil {
		return nil, err
	}
	written := []string{primary}

	if len(images) == 0 {
		return written, nil
	}

	imagesDir := filepath.Join(w.OutputDir, baseName+ImagesDirSuffix)
	seen := make(map[string]bool)
	for _, img := range images {
		name := imageFileName(img.Path)
		if name == "" || img.Payload == nil {
			w.logger.Warn("skipping image without name or data", "path", img.Path)
			continue
		}
		target := filepath.Join(imagesDir, name)

		data, err := img.Payload.Encode(target)
		if err != nil {
			return written, &PersistError{Op: "encode", Path: target, Err: err}
		}
		if err := writeFile(target, data); err != nil {
			return written, err
		}
		if !seen[target] {
			seen[target] = true
			written = append(written, target)
		}
	}
	return written, nil
}

// writeFile creates the parent directory, then writes the file.
func writeFile(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistError{Op: "mkdir", Path: dir, Err: err}
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return &PersistError{Op: "write", Path: p, Err: err}
	}
	return nil
}

// imageFileName returns the last segment of an engine image path, which
// always uses forward slashes.
func imageFileName(p string) string {
	name := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// BaseName derives the output base name from an input file name: the file
// name without directory or extension. It falls back to "document".
func BaseName(fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}
