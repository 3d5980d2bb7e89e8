package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/assetpack/internal/vfs"
)

// openVFS mounts each path in order. Regular files are opened as bundles;
// anything else is treated as a loose directory.
func openVFS(paths []string) (*vfs.VFS, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("nothing mounted: pass --mount or set mounts in the config file")
	}

	fsys := vfs.New()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			if err := fsys.MountBundle(p); err != nil {
				fsys.Close()
				return nil, err
			}
			slog.Debug("Mounted bundle", "path", p)
			continue
		}
		fsys.MountLoose(p)
		slog.Debug("Mounted loose directory", "path", p)
	}
	return fsys, nil
}
