// Package cache locates per-user state such as the default catalog.
package cache

import (
	"os"
	"path/filepath"
)

const appDir = "assetpack"

// Cache resolves paths inside the user cache directory.
type Cache struct {
	root string
}

// CacheManager returns a Cache rooted at the OS user cache directory, or
// at ./.assetpack/cache when that cannot be determined.
func CacheManager() *Cache {
	dir, err := os.UserCacheDir()
	if err != nil {
		return &Cache{root: filepath.Join(".", "."+appDir, "cache")}
	}
	return &Cache{root: filepath.Join(dir, appDir)}
}

// At returns a Cache rooted at dir.
func At(dir string) *Cache {
	return &Cache{root: dir}
}

// GetCacheDir returns the cache root.
func (m *Cache) GetCacheDir() string {
	return m.root
}

// GetCatalogPath returns the default catalog database path.
func (m *Cache) GetCatalogPath() string {
	return filepath.Join(m.root, "catalog.db")
}

// EnsureDir creates the cache root and all parent directories
func (m *Cache) EnsureDir() error {
	return os.MkdirAll(m.root, 0755)
}

// FileExists reports whether a regular file exists at filename
func (m *Cache) FileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}
