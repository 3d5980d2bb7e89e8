// Package export writes virtual paths out of a VFS into a directory.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source supplies file contents by virtual path. *vfs.VFS satisfies it.
type Source interface {
	Read(name string) ([]byte, error)
}

// Exporter writes files from a Source to an output directory.
type Exporter struct {
	src       Source
	outputDir string
	flatten   bool
	overwrite bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFlatten writes every file directly into the output directory,
// replacing path separators with '@'.
func WithFlatten() Option {
	return func(e *Exporter) {
		e.flatten = true
	}
}

// WithOverwrite allows replacing files that already exist.
func WithOverwrite() Option {
	return func(e *Exporter) {
		e.overwrite = true
	}
}

// NewExporter creates a new file exporter
func NewExporter(src Source, outputDir string, opts ...Option) *Exporter {
	e := &Exporter{
		src:       src,
		outputDir: outputDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// ExportFiles copies the named virtual paths into the output directory.
// Writes are confined to the output directory.
func (e *Exporter) ExportFiles(files []string, progressCallback ProgressCallback) error {
	if len(files) == 0 {
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	root, err := os.OpenRoot(e.outputDir)
	if err != nil {
		return fmt.Errorf("opening output directory: %w", err)
	}
	defer root.Close()

	for i, name := range files {
		data, err := e.src.Read(name)
		if err != nil {
			return fmt.Errorf("loading file %s: %w", name, err)
		}

		target := e.targetPath(name)
		if err := e.write(root, target, data); err != nil {
			return fmt.Errorf("writing file %s: %w", target, err)
		}

		slog.Debug("Exported file", "path", name, "output", filepath.Join(e.outputDir, filepath.FromSlash(target)), "size", len(data))

		if progressCallback != nil {
			progressCallback(i+1, len(files), name)
		}
	}

	return nil
}

func (e *Exporter) targetPath(name string) string {
	if e.flatten {
		return sanitizePath(name)
	}
	return name
}

func (e *Exporter) write(root *os.Root, target string, data []byte) error {
	if dir := path.Dir(target); dir != "." {
		if err := root.MkdirAll(filepath.FromSlash(dir), 0755); err != nil {
			return err
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !e.overwrite {
		flags |= os.O_EXCL
	}
	f, err := root.OpenFile(filepath.FromSlash(target), flags, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w (use overwrite to replace)", err)
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sanitizePath sanitizes a file path for use as a filename
// Replaces forward slashes with @ symbols
func sanitizePath(path string) string {
	return strings.ReplaceAll(path, "/", "@")
}
