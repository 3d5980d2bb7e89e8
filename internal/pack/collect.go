// Package pack gathers loose files into bundle writer items.
package pack

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/jchantrell/assetpack/internal/bundle"
)

// Options tunes collection.
type Options struct {
	// Exclude holds path.Match patterns tested against both the base name
	// and the full virtual path. Matching directories are skipped whole.
	Exclude []string

	// Prefix is prepended to every virtual path.
	Prefix string
}

// Collect walks each root and returns one item per regular file, keyed by
// its slash-separated path relative to the root. A root that is a regular
// file contributes itself under its base name. Symlinks and other
// non-regular files are skipped. When roots overlap, the later root's file
// wins, matching mount order in the VFS. Items are sorted by path.
func Collect(ctx context.Context, opts Options, roots ...string) ([]bundle.Item, error) {
	for _, pattern := range opts.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	prefix := strings.Trim(strings.ReplaceAll(opts.Prefix, `\`, "/"), "/")

	byPath := make(map[string][]byte)
	for _, root := range roots {
		if err := collectRoot(ctx, root, opts.Exclude, prefix, byPath); err != nil {
			return nil, err
		}
	}

	items := make([]bundle.Item, 0, len(byPath))
	for p, data := range byPath {
		items = append(items, bundle.Item{Path: p, Data: data})
	}
	slices.SortFunc(items, func(a, b bundle.Item) int {
		return strings.Compare(a.Path, b.Path)
	})
	return items, nil
}

func collectRoot(ctx context.Context, root string, exclude []string, prefix string, out map[string][]byte) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}

	if info.Mode().IsRegular() {
		data, err := os.ReadFile(root)
		if err != nil {
			return fmt.Errorf("reading %s: %w", root, err)
		}
		add(out, join(prefix, info.Name()), data)
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("reading %s: not a file or directory", root)
	}

	dir, err := os.OpenRoot(root)
	if err != nil {
		return fmt.Errorf("opening %s: %w", root, err)
	}
	defer dir.Close()

	count := 0
	err = fs.WalkDir(dir.FS(), ".", func(name string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if name == "." {
			return nil
		}
		if excluded(exclude, name) {
			slog.Debug("Excluded", "root", root, "path", name)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("Skipping non-regular file", "root", root, "path", name, "type", d.Type().String())
			return nil
		}

		data, err := fs.ReadFile(dir.FS(), name)
		if err != nil {
			return err
		}
		add(out, join(prefix, name), data)
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	slog.Debug("Collected directory", "root", root, "files", count)
	return nil
}

func add(out map[string][]byte, name string, data []byte) {
	if _, ok := out[name]; ok {
		slog.Debug("Shadowed by later root", "path", name)
	}
	out[name] = data
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func excluded(patterns []string, name string) bool {
	base := path.Base(name)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
