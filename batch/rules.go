// Package batch — input filtering rules.
// Decides which files in a directory tree are documents to convert.
package batch

import (
	"path/filepath"
	"strings"
)

// inputExtensions are the file types accepted in --all mode: documents the
// engine can read, and recognition dumps.
var inputExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".json": true,
}

// IsInput reports whether a file name has an accepted input extension.
func IsInput(name string) bool {
	return inputExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsHidden reports whether a path segment is hidden (dot-prefixed).
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// IsOutputDir reports whether a directory looks like LayoutPipe output
// (<base>_images), which must not be fed back in.
func IsOutputDir(name string) bool {
	return strings.HasSuffix(name, "_images")
}

// NormalizePath cleans a path for deduplication.
func NormalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}
