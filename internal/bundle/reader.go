package bundle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"sync"
)

// Reader serves decompressed blobs from an open bundle. It is immutable
// after open and safe for concurrent use; reads against the underlying file
// are serialized per bundle.
type Reader struct {
	name    string
	version Version
	size    int64
	index   *index

	mu     sync.Mutex // guards data
	data   io.ReaderAt
	closer io.Closer
}

// Open opens and validates the bundle file at name. The file stays open
// until Close.
func Open(name string) (*Reader, error) {
	info, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotFound}
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: ioError(err)}
	}
	if !info.Mode().IsRegular() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotFound}
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ioError(err)}
	}

	r, err := newReader(f, info.Size(), name)
	if err != nil {
		f.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	r.closer = f
	return r, nil
}

// NewReader validates a bundle held in ra, which must be size bytes long.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	return newReader(ra, size, "")
}

func newReader(ra io.ReaderAt, size int64, name string) (*Reader, error) {
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes, header needs %d", ErrMalformed, size, HeaderSize)
	}

	h, err := readHeader(io.NewSectionReader(ra, 0, HeaderSize))
	if err != nil {
		return nil, err
	}

	v := h.version()
	ahead, err := checkVersion(v)
	if err != nil {
		return nil, err
	}
	if ahead {
		slog.Warn("Bundle revision is newer than engine", "path", name, "bundle", v.String(), "engine", EngineVersion.String())
	}

	idx, consumed, err := readIndex(io.NewSectionReader(ra, HeaderSize, size-HeaderSize), h.EntryCount, size-HeaderSize)
	if err != nil {
		return nil, err
	}

	payloadStart := uint64(HeaderSize + consumed)
	if want := uint64(HeaderSize + indexSize(idx.entries)); payloadStart != want {
		return nil, fmt.Errorf("%w: payload starts at %d, index implies %d", ErrMalformed, payloadStart, want)
	}
	if err := idx.validate(payloadStart, uint64(size)); err != nil {
		return nil, err
	}

	slog.Debug("Bundle opened", "path", name, "version", v.String(), "entries", len(idx.entries))

	return &Reader{
		name:    name,
		version: v,
		size:    size,
		index:   idx,
		data:    ra,
	}, nil
}

// Name returns the file path the bundle was opened from, or "" for NewReader.
func (r *Reader) Name() string {
	return r.name
}

// Version returns the format version recorded in the header.
func (r *Reader) Version() Version {
	return r.version
}

// Size returns the bundle file size in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Len returns the number of entries.
func (r *Reader) Len() int {
	return len(r.index.entries)
}

// Entries returns a copy of the index in file order.
func (r *Reader) Entries() []Entry {
	out := make([]Entry, len(r.index.entries))
	copy(out, r.index.entries)
	return out
}

// Entry returns the index record for path.
func (r *Reader) Entry(path string) (Entry, bool) {
	return r.index.lookup(path)
}

// Read returns the decompressed contents of path. An empty or unknown path
// reports ok == false with a nil error; that is not a failure.
func (r *Reader) Read(path string) (data []byte, ok bool, err error) {
	if path == "" {
		return nil, false, nil
	}
	e, ok := r.index.lookup(path)
	if !ok {
		return nil, false, nil
	}
	data, err = r.readEntry(&e)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

func (r *Reader) readEntry(e *Entry) ([]byte, error) {
	if e.CompressedSize > math.MaxInt || e.RawSize > math.MaxInt || e.Offset > math.MaxInt64 ||
		!rawSizeFits(e.CompressedSize, e.RawSize) {
		return nil, &fs.PathError{Op: "read", Path: e.Path, Err: ErrCorrupt}
	}

	buf := make([]byte, e.CompressedSize)
	r.mu.Lock()
	n, err := r.data.ReadAt(buf, int64(e.Offset))
	r.mu.Unlock()
	if n != len(buf) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &fs.PathError{Op: "read", Path: e.Path, Err: ioError(err)}
	}

	raw, err := decompressBlock(buf, int(e.RawSize))
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: e.Path, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	return raw, nil
}

// Close releases the file handle. Readers from NewReader have nothing to close.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
