package bundle

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Entry describes one named blob inside a bundle.
type Entry struct {
	Path           string
	Offset         uint64
	CompressedSize uint64
	RawSize        uint64
}

// End returns the offset one past the entry's payload.
func (e Entry) End() uint64 {
	return e.Offset + e.CompressedSize
}

// index is the parsed index region of an open bundle.
type index struct {
	entries []Entry        // in file order
	byPath  map[string]int // path -> position in entries
	sorted  []int          // positions in entries, ordered by path
}

func indexSize(entries []Entry) int64 {
	var n int64
	for i := range entries {
		n += recordSize(entries[i].Path)
	}
	return n
}

func writeIndex(w io.Writer, entries []Entry) error {
	var fixed [24]byte
	var plen [2]byte
	for i := range entries {
		e := &entries[i]
		binary.LittleEndian.PutUint16(plen[:], uint16(len(e.Path)))
		if _, err := w.Write(plen[:]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.Path); err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(fixed[0:], e.Offset)
		binary.LittleEndian.PutUint64(fixed[8:], e.CompressedSize)
		binary.LittleEndian.PutUint64(fixed[16:], e.RawSize)
		if _, err := w.Write(fixed[:]); err != nil {
			return err
		}
	}
	return nil
}

// readIndex decodes count records from r. limit is the number of bytes
// available after the header; records may not run past it.
func readIndex(r io.Reader, count uint32, limit int64) (*index, int64, error) {
	// every record is at least recordFixedSize bytes; refuse counts the
	// file cannot possibly hold before allocating for them
	if int64(count)*recordFixedSize > limit {
		return nil, 0, fmt.Errorf("%w: %d entries do not fit in %d bytes", ErrMalformed, count, limit)
	}

	br := bufio.NewReader(io.LimitReader(r, limit))
	idx := &index{
		entries: make([]Entry, 0, count),
		byPath:  make(map[string]int, count),
	}

	var consumed int64
	var fixed [24]byte
	var plen [2]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(br, plen[:]); err != nil {
			return nil, 0, indexReadError("path length", i, err)
		}
		pathBytes := make([]byte, binary.LittleEndian.Uint16(plen[:]))
		if _, err := io.ReadFull(br, pathBytes); err != nil {
			return nil, 0, indexReadError("path", i, err)
		}
		if _, err := io.ReadFull(br, fixed[:]); err != nil {
			return nil, 0, indexReadError("sizes", i, err)
		}

		e := Entry{
			Path:           string(pathBytes),
			Offset:         binary.LittleEndian.Uint64(fixed[0:]),
			CompressedSize: binary.LittleEndian.Uint64(fixed[8:]),
			RawSize:        binary.LittleEndian.Uint64(fixed[16:]),
		}
		if _, exists := idx.byPath[e.Path]; exists {
			return nil, 0, fmt.Errorf("%w: duplicate path %q", ErrMalformed, e.Path)
		}
		idx.byPath[e.Path] = len(idx.entries)
		idx.entries = append(idx.entries, e)
		consumed += recordSize(e.Path)
	}

	idx.sorted = make([]int, len(idx.entries))
	for i := range idx.sorted {
		idx.sorted[i] = i
	}
	sort.Slice(idx.sorted, func(i, j int) bool {
		return idx.entries[idx.sorted[i]].Path < idx.entries[idx.sorted[j]].Path
	})

	return idx, consumed, nil
}

// indexReadError classifies a failed index read. Running out of bytes means
// the index is truncated; anything else came from the underlying reader.
func indexReadError(field string, record uint32, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s of record %d: %v", ErrMalformed, field, record, err)
	}
	return fmt.Errorf("reading %s of record %d: %w", field, record, ioError(err))
}

// validate checks payload layout against the file size: entries must be
// contiguous from payloadStart and lie within the file.
func (idx *index) validate(payloadStart, size uint64) error {
	cursor := payloadStart
	for i := range idx.entries {
		e := &idx.entries[i]
		if e.Offset != cursor {
			return fmt.Errorf("%w: entry %q at offset %d, expected %d", ErrMalformed, e.Path, e.Offset, cursor)
		}
		end, ok := addUint64(e.Offset, e.CompressedSize)
		if !ok || end > size {
			return fmt.Errorf("%w: entry %q extends past end of file", ErrMalformed, e.Path)
		}
		if !rawSizeFits(e.CompressedSize, e.RawSize) {
			return fmt.Errorf("%w: entry %q claims %d raw bytes from %d compressed", ErrMalformed, e.Path, e.RawSize, e.CompressedSize)
		}
		cursor = end
	}
	return nil
}

func (idx *index) lookup(path string) (Entry, bool) {
	i, ok := idx.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// search returns the first position in sorted order whose path is >= name.
func (idx *index) search(name string) int {
	return sort.Search(len(idx.sorted), func(i int) bool {
		return idx.entries[idx.sorted[i]].Path >= name
	})
}

func (idx *index) at(sortedPos int) *Entry {
	return &idx.entries[idx.sorted[sortedPos]]
}

// addUint64 adds two uint64 values, returning (result, false) on overflow.
func addUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}
