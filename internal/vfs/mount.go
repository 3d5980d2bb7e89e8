package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/jchantrell/assetpack/internal/bundle"
)

// Mount is one source consulted by the VFS. Read reports ok == false when
// the mount does not hold name; a non-nil error is a hard failure that
// stops resolution.
type Mount interface {
	Name() string
	Read(name string) (data []byte, ok bool, err error)
	Close() error
}

// looseDir serves files from a directory on the native filesystem.
type looseDir struct {
	root string
}

// NewLooseDir returns a Mount over the directory root. The directory does
// not need to exist yet.
func NewLooseDir(root string) Mount {
	return &looseDir{root: root}
}

func (d *looseDir) Name() string {
	return d.root
}

func (d *looseDir) Read(name string) ([]byte, bool, error) {
	local, err := filepath.Localize(name)
	if err != nil {
		return nil, false, nil
	}

	// the root confines every lookup, symlinks included
	root, err := os.OpenRoot(d.root)
	if err != nil {
		if isMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("opening %s: %w", d.root, err)
	}
	defer root.Close()

	// only regular files are opened; opening a FIFO or device could block
	info, err := root.Stat(local)
	if err != nil {
		if isMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat %s in %s: %w", name, d.root, err)
	}
	if !info.Mode().IsRegular() {
		return nil, false, nil
	}

	data, err := root.ReadFile(local)
	if err != nil {
		if isMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s in %s: %w", name, d.root, err)
	}
	return data, true, nil
}

// isMiss reports whether err means the path is simply absent: a missing
// entry, or a file where a directory should be.
func isMiss(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (d *looseDir) Close() error {
	return nil
}

// bundleMount serves entries from an open bundle.
type bundleMount struct {
	r *bundle.Reader
}

// NewBundleMount returns a Mount over an already opened bundle. The mount
// takes ownership and closes the reader with the VFS.
func NewBundleMount(r *bundle.Reader) Mount {
	return &bundleMount{r: r}
}

func (b *bundleMount) Name() string {
	return b.r.Name()
}

func (b *bundleMount) Read(name string) ([]byte, bool, error) {
	return b.r.Read(name)
}

func (b *bundleMount) Close() error {
	return b.r.Close()
}
