// Package vfs resolves virtual paths across an ordered set of mounts.
// The most recently mounted source wins when several hold the same path.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jchantrell/assetpack/internal/bundle"
)

// ErrNotFound is returned when no mount holds the requested path.
var ErrNotFound = fs.ErrNotExist

// VFS is a registry of mounts. Mounting takes an exclusive lock; reads share it.
type VFS struct {
	mu     sync.RWMutex
	mounts []Mount // registration order; searched from the end
}

// New returns an empty VFS.
func New() *VFS {
	return &VFS{}
}

// Mount registers m ahead of every existing mount.
func (v *VFS) Mount(m Mount) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounts = append(v.mounts, m)
	slog.Debug("Mounted", "name", m.Name(), "position", len(v.mounts))
}

// MountLoose registers a loose directory. A missing directory is not an
// error; its reads simply miss.
func (v *VFS) MountLoose(dir string) {
	v.Mount(NewLooseDir(dir))
}

// MountBundle opens the bundle at path and registers it. Open errors are
// returned and nothing is mounted.
func (v *VFS) MountBundle(path string) error {
	r, err := bundle.Open(path)
	if err != nil {
		return fmt.Errorf("mounting bundle: %w", err)
	}
	v.Mount(NewBundleMount(r))
	return nil
}

// Read returns the bytes for name from the newest mount that holds it.
// A hard error from a mount is returned immediately without consulting
// older mounts.
func (v *VFS) Read(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	for i := len(v.mounts) - 1; i >= 0; i-- {
		m := v.mounts[i]
		data, ok, err := m.Read(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", name, m.Name(), err)
		}
		if ok {
			slog.Debug("Resolved", "path", name, "mount", m.Name())
			return data, nil
		}
	}

	return nil, &fs.PathError{Op: "read", Path: name, Err: ErrNotFound}
}

// Exists reports whether some mount can serve name. Hard errors count as
// absent.
func (v *VFS) Exists(name string) bool {
	_, err := v.Read(name)
	return err == nil
}

// Mounts returns mount names in resolution order, newest first.
func (v *VFS) Mounts() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.mounts))
	for i := len(v.mounts) - 1; i >= 0; i-- {
		names = append(names, v.mounts[i].Name())
	}
	return names
}

// Close closes every mount and empties the registry.
func (v *VFS) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var errs []error
	for _, m := range v.mounts {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", m.Name(), err))
		}
	}
	v.mounts = nil
	return errors.Join(errs...)
}
