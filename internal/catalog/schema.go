package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

const schemaVersion = 1

// Entry keys are stored in UUID text form. Sizes and offsets are bounded
// by the bundle file size, so they fit SQLite's signed integers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS _meta (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bundles (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		version TEXT NOT NULL,
		size INTEGER NOT NULL,
		entry_count INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		indexed_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		bundle_id INTEGER NOT NULL REFERENCES bundles(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		asset_key TEXT NOT NULL,
		data_offset INTEGER NOT NULL,
		compressed_size INTEGER NOT NULL,
		raw_size INTEGER NOT NULL,
		PRIMARY KEY (bundle_id, path)
	)`,
	`CREATE INDEX IF NOT EXISTS entries_asset_key ON entries(asset_key)`,
	`CREATE INDEX IF NOT EXISTS entries_path ON entries(path)`,
}

func (c *Catalog) migrate(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating catalog schema: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO _meta (name, value) VALUES ('schema_version', ?)
		 ON CONFLICT(name) DO NOTHING`, fmt.Sprint(schemaVersion)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT CAST(value AS INTEGER) FROM _meta WHERE name = 'schema_version'`).Scan(&stored); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if stored != schemaVersion {
		return fmt.Errorf("catalog %s has schema version %d, expected %d", c.path, stored, schemaVersion)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog schema: %w", err)
	}

	slog.Debug("Catalog schema ready", "path", c.path, "version", schemaVersion)
	return nil
}
