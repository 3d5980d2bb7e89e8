// Package catalog records bundle contents in SQLite so assets can be found
// by key after they move between paths or bundles.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by operations on a closed catalog.
var ErrClosed = errors.New("catalog is closed")

// Catalog is a connection to the catalog database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Options configures how the catalog database is opened.
type Options struct {
	// Path to the SQLite database file
	Path string

	// WALMode enables Write-Ahead Logging
	WALMode bool

	// ForeignKeys enables foreign key constraint checking. Re-indexing a
	// bundle relies on it to drop stale entries.
	ForeignKeys bool

	// BusyTimeout sets the timeout for locked database operations
	BusyTimeout time.Duration
}

// DefaultOptions returns the options the CLI uses.
func DefaultOptions(path string) *Options {
	return &Options{
		Path:        path,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 30 * time.Second,
	}
}

// Open connects to the database described by options, creating the file
// and schema if needed.
func Open(ctx context.Context, options *Options) (*Catalog, error) {
	if options == nil {
		return nil, fmt.Errorf("catalog options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}

	if err := ensureDirectory(options.Path); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", options.Path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing catalog connection: %w", err)
	}

	c := &Catalog{db: db, path: options.Path}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}

// Close closes the connection. Closing twice is a no-op.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil

	if err != nil {
		return fmt.Errorf("closing catalog connection: %w", err)
	}
	return nil
}

func (c *Catalog) conn() (*sql.DB, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	return c.db, nil
}

// buildConnectionString constructs the go-sqlite3 DSN. Pragmas use the
// driver's underscore parameters so they apply to every pooled connection.
func buildConnectionString(options *Options) string {
	var params []string

	if options.WALMode {
		params = append(params, "_journal_mode=WAL")
	}

	if options.ForeignKeys {
		params = append(params, "_foreign_keys=on")
	}

	if options.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_busy_timeout=%d", options.BusyTimeout.Milliseconds()))
	}

	params = append(params, "_synchronous=NORMAL")

	return "file:" + options.Path + "?" + strings.Join(params, "&")
}

// ensureDirectory creates the directory for the database file if needed
func ensureDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
