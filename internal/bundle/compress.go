package bundle

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pierrec/lz4/v4"
)

// Level selects the LZ4 block compressor. LevelFast is the default
// compressor; levels 1 through 9 use the high-compression variant with
// increasing search depth.
type Level int

const (
	LevelFast Level = 0
	LevelMax  Level = 9
)

var hcLevels = [...]lz4.CompressionLevel{
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

func (l Level) String() string {
	if l == LevelFast {
		return "fast"
	}
	return strconv.Itoa(int(l))
}

// ParseLevel parses "fast" or a high-compression level "1".."9".
func ParseLevel(name string) (Level, error) {
	if name == "" || name == "fast" {
		return LevelFast, nil
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 1 || n > int(LevelMax) {
		return 0, fmt.Errorf("unknown compression level: %q (want fast or 1-9)", name)
	}
	return Level(n), nil
}

// compressBlock compresses data into a freshly allocated buffer sized to the
// LZ4 upper bound and returns the used prefix.
func compressBlock(data []byte, level Level) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))

	var written int
	var err error
	if level == LevelFast {
		written, err = lz4.CompressBlock(data, destination, nil)
	} else {
		written, err = lz4.CompressBlockHC(data, destination, hcLevels[level-1], nil, nil)
	}
	if err != nil {
		return nil, err
	}
	if written <= 0 {
		return nil, fmt.Errorf("lz4 returned %d bytes", written)
	}
	return destination[:written], nil
}

// An LZ4 block expands at most 255 output bytes per input byte (a maximal
// match length run), plus the short literal tail.
const (
	maxBlockExpansion = 255
	blockSlack        = 16
)

// rawSizeFits reports whether a block of compressed bytes can decode to raw
// bytes. It bounds allocations made on behalf of an untrusted index.
func rawSizeFits(compressed, raw uint64) bool {
	if compressed == 0 {
		return raw == 0
	}
	if compressed > (math.MaxUint64-blockSlack)/maxBlockExpansion {
		return true
	}
	return raw <= compressed*maxBlockExpansion+blockSlack
}

// decompressBlock decodes an LZ4 block that must expand to exactly rawSize bytes.
func decompressBlock(compressed []byte, rawSize int) ([]byte, error) {
	destination := make([]byte, rawSize)
	if rawSize == 0 {
		return destination, nil
	}
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return destination, nil
}
