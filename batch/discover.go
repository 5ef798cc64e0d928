// Package batch discovers input documents for --all mode.
// It walks a directory tree, keeping discovery separate from the
// conversion pipeline.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// maxFiles bounds a single discovery run.
const maxFiles = 10000

// Discover returns the input files under the given roots. Files of one
// root come in lexical order; a file reachable from several roots is
// listed once. Hidden entries and LayoutPipe image directories are
// skipped. A root that is a file is taken as-is.
func Discover(ctx context.Context, roots ...string) ([]string, error) {
	queue := NewQueue()
	for _, root := range roots {
		files, err := walk(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, p := range files {
			if queue.Len() >= maxFiles {
				return queue.All(), nil
			}
			queue.Add(p)
		}
	}
	return queue.All(), nil
}

// walk lists the input files under one root.
func walk(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var found []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if d.IsDir() {
			if IsHidden(d.Name()) || IsOutputDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsHidden(d.Name()) || !IsInput(d.Name()) {
			return nil
		}
		found = append(found, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}
