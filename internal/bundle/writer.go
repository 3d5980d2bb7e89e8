package bundle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Item is one (virtual path, raw bytes) pair handed to the writer.
type Item struct {
	Path string
	Data []byte
}

// ProgressFunc is called after each entry is compressed.
type ProgressFunc func(done, total int, path string)

type writeConfig struct {
	level       Level
	concurrency int
	version     Version
	progress    ProgressFunc
}

// WriteOption configures Write and Encode.
type WriteOption func(*writeConfig)

// WithLevel selects the LZ4 compressor (default LevelFast).
func WithLevel(level Level) WriteOption {
	return func(c *writeConfig) {
		c.level = level
	}
}

// WithConcurrency sets how many entries are compressed in parallel.
// Values < 1 use GOMAXPROCS. Output order is unaffected.
func WithConcurrency(n int) WriteOption {
	return func(c *writeConfig) {
		c.concurrency = n
	}
}

// WithVersion stamps v into the header instead of EngineVersion.
func WithVersion(v Version) WriteOption {
	return func(c *writeConfig) {
		c.version = v
	}
}

// WithProgress registers a callback invoked once per compressed entry.
// Calls may come from several goroutines but never concurrently.
func WithProgress(fn ProgressFunc) WriteOption {
	return func(c *writeConfig) {
		c.progress = fn
	}
}

func newWriteConfig(opts []WriteOption) writeConfig {
	c := writeConfig{
		level:   LevelFast,
		version: EngineVersion,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.concurrency < 1 {
		c.concurrency = runtime.GOMAXPROCS(0)
	}
	return c
}

// Write packs items into a new bundle at name. The bundle is assembled in a
// temporary file next to name and renamed into place only after every byte
// has been written and synced, so a failed write leaves nothing behind.
func Write(name string, items []Item, opts ...WriteOption) (err error) {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return ioError(fmt.Errorf("creating temp file: %w", err))
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = Encode(tmp, items, opts...); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return ioError(fmt.Errorf("syncing %s: %w", tmpName, err))
	}
	if err = tmp.Close(); err != nil {
		return ioError(fmt.Errorf("closing %s: %w", tmpName, err))
	}
	if err = os.Rename(tmpName, name); err != nil {
		return ioError(fmt.Errorf("renaming into %s: %w", name, err))
	}

	slog.Debug("Bundle written", "path", name, "entries", len(items))
	return nil
}

type compressed struct {
	path string
	data []byte
	raw  int
}

// Encode streams a bundle built from items to w and returns the index it wrote.
func Encode(w io.Writer, items []Item, opts ...WriteOption) ([]Entry, error) {
	cfg := newWriteConfig(opts)
	if cfg.level < LevelFast || cfg.level > LevelMax {
		return nil, fmt.Errorf("unknown compression level: %d", cfg.level)
	}
	if uint64(len(items)) > 1<<32-1 {
		return nil, fmt.Errorf("too many entries: %d", len(items))
	}

	paths, err := normalizeItems(items)
	if err != nil {
		return nil, err
	}

	blobs, err := compressItems(items, paths, cfg)
	if err != nil {
		return nil, err
	}

	entries := layout(blobs)

	bw := bufio.NewWriterSize(w, 256<<10)
	if err := writeHeader(bw, newHeader(cfg.version, len(entries))); err != nil {
		return nil, ioError(fmt.Errorf("writing header: %w", err))
	}
	if err := writeIndex(bw, entries); err != nil {
		return nil, ioError(fmt.Errorf("writing index: %w", err))
	}
	for i := range blobs {
		if _, err := bw.Write(blobs[i].data); err != nil {
			return nil, ioError(fmt.Errorf("writing payload %q: %w", blobs[i].path, err))
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, ioError(fmt.Errorf("flushing bundle: %w", err))
	}

	return entries, nil
}

// normalizeItems canonicalizes every path and rejects the second occurrence
// of any duplicate.
func normalizeItems(items []Item) ([]string, error) {
	paths := make([]string, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		p, err := NormalizePath(item.Path)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, p)
		}
		seen[p] = struct{}{}
		paths[i] = p
	}
	return paths, nil
}

// compressItems runs the compress phase. Each result lands in the slot of
// its input so the layout keeps input order regardless of scheduling.
func compressItems(items []Item, paths []string, cfg writeConfig) ([]compressed, error) {
	blobs := make([]compressed, len(items))
	progress := newProgressReporter(cfg.progress, len(items))

	var g errgroup.Group
	g.SetLimit(cfg.concurrency)
	for i := range items {
		g.Go(func() error {
			data, err := compressBlock(items[i].Data, cfg.level)
			if err != nil {
				return fmt.Errorf("%w: %q: %v", ErrCompression, paths[i], err)
			}
			blobs[i] = compressed{path: paths[i], data: data, raw: len(items[i].Data)}
			progress.step(paths[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}

// layout assigns contiguous offsets starting right after the index.
func layout(blobs []compressed) []Entry {
	entries := make([]Entry, len(blobs))
	for i := range blobs {
		entries[i] = Entry{
			Path:           blobs[i].path,
			CompressedSize: uint64(len(blobs[i].data)),
			RawSize:        uint64(blobs[i].raw),
		}
	}

	cursor := uint64(HeaderSize + indexSize(entries))
	for i := range entries {
		entries[i].Offset = cursor
		cursor += entries[i].CompressedSize
	}
	return entries
}
