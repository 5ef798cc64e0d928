// Package batch — output names for --all mode.
// Outputs mirror the input tree: <root>/scans/a.pdf is written as
// scans/a.<ext> under the output directory, so files of different
// directories never collide.
package batch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Namer assigns distinct output base names to discovered inputs.
type Namer struct {
	roots []string
	used  map[string]bool
}

// NewNamer creates a Namer for inputs found under roots.
func NewNamer(roots ...string) *Namer {
	n := &Namer{used: make(map[string]bool)}
	for _, r := range roots {
		n.roots = append(n.roots, NormalizePath(r))
	}
	return n
}

// Name returns the base name for path, relative to the first root that
// contains it. Inputs sharing a stem in one directory (a.pdf, a.json) would
// overwrite each other's output; the later one gets its extension appended
// (a_json) and renamed is true.
func (n *Namer) Name(path string) (name string, renamed bool) {
	abs := NormalizePath(path)
	ext := filepath.Ext(abs)
	stem := strings.TrimSuffix(filepath.Base(abs), ext)
	if stem == "" {
		stem = "document"
	}

	name = filepath.Join(n.relDir(abs), stem)
	if n.take(name) {
		return name, false
	}

	alt := name + "_" + strings.ToLower(strings.TrimPrefix(ext, "."))
	candidate := alt
	for i := 2; !n.take(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d", alt, i)
	}
	return candidate, true
}

// relDir is the directory of abs relative to its root, or "" when abs is
// a root itself or lies outside every root.
func (n *Namer) relDir(abs string) string {
	for _, root := range n.roots {
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if dir := filepath.Dir(rel); dir != "." {
			return dir
		}
		return ""
	}
	return ""
}

func (n *Namer) take(name string) bool {
	key := strings.ToLower(filepath.ToSlash(name))
	if n.used[key] {
		return false
	}
	n.used[key] = true
	return true
}
