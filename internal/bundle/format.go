package bundle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic identifies a bundle file.
const Magic uint32 = 0xACEA55E7

const (
	// HeaderSize is the fixed size of the bundle prelude.
	HeaderSize = 12

	// MaxPathLen is the longest path the 16-bit length field can describe.
	MaxPathLen = 1<<16 - 1

	// recordFixedSize is the per-record overhead: path length plus
	// offset, compressed size and raw size.
	recordFixedSize = 2 + 3*8
)

// header mirrors the on-disk prelude, little-endian.
type header struct {
	Magic      uint32
	Major      uint8
	Minor      uint8
	Revision   uint16
	EntryCount uint32
}

func (h header) version() Version {
	return Version{Major: h.Major, Minor: h.Minor, Revision: h.Revision}
}

func newHeader(v Version, count int) header {
	return header{
		Magic:      Magic,
		Major:      v.Major,
		Minor:      v.Minor,
		Revision:   v.Revision,
		EntryCount: uint32(count),
	}
}

func readHeader(r io.Reader) (header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return header{}, fmt.Errorf("%w: reading header: %v", ErrMalformed, err)
		}
		return header{}, fmt.Errorf("reading header: %w", ioError(err))
	}
	if h.Magic != Magic {
		return header{}, fmt.Errorf("%w: bad magic %#08x", ErrMalformed, h.Magic)
	}
	return h, nil
}

func writeHeader(w io.Writer, h header) error {
	return binary.Write(w, binary.LittleEndian, &h)
}

// recordSize is the encoded size of one index record.
func recordSize(path string) int64 {
	return recordFixedSize + int64(len(path))
}
