package bundle

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when a bundle file does not exist or is not a regular file.
	ErrNotFound = fs.ErrNotExist

	// ErrMalformed is returned when the header or index fails validation.
	ErrMalformed = errors.New("malformed bundle")

	// ErrVersionMismatch is returned when the bundle version is incompatible
	// with the engine. It wraps ErrMalformed.
	ErrVersionMismatch = fmt.Errorf("%w: version mismatch", ErrMalformed)

	// ErrIO is returned when the underlying file cannot be read or written.
	ErrIO = errors.New("bundle i/o error")

	// ErrCorrupt is returned when a payload does not decompress to its declared size.
	ErrCorrupt = errors.New("corrupt bundle entry")

	// ErrCompression is returned when LZ4 refuses to compress an input.
	ErrCompression = errors.New("compression failed")

	// ErrDuplicatePath is returned when a path occurs twice in one write.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrInvalidPath is returned when a path cannot be normalized.
	ErrInvalidPath = errors.New("invalid path")

	// ErrPathTooLong is returned when a path does not fit the 16-bit length field.
	ErrPathTooLong = errors.New("path too long")
)

// ioError tags err as an I/O failure while keeping it inspectable.
func ioError(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}
