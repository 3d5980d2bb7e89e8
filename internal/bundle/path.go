package bundle

import (
	"fmt"
	"io/fs"
	"strings"
)

// NormalizePath canonicalizes a virtual path for storage: separators become
// forward slashes and the result must be a valid, unrooted fs path with no
// empty, "." or ".." elements. Case is preserved.
func NormalizePath(name string) (string, error) {
	p := strings.ReplaceAll(name, `\`, "/")
	if p == "" || p == "." || !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if len(p) > MaxPathLen {
		return "", fmt.Errorf("%w: %d bytes", ErrPathTooLong, len(p))
	}
	return p, nil
}
