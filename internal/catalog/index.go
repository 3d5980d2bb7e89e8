package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jchantrell/assetpack/internal/asset"
	"github.com/jchantrell/assetpack/internal/bundle"
)

// Bundle describes an indexed bundle file.
type Bundle struct {
	ID        int64
	Path      string
	Version   string
	Size      int64
	Entries   int
	IndexedAt time.Time
}

// IndexBundle records every entry of r under its path-derived key,
// replacing any earlier record of the same file. Bundles indexed later take
// precedence in Resolve.
func (c *Catalog) IndexBundle(ctx context.Context, r *bundle.Reader) (Bundle, error) {
	db, err := c.conn()
	if err != nil {
		return Bundle{}, err
	}
	if r.Name() == "" {
		return Bundle{}, fmt.Errorf("indexing bundle: reader has no file name")
	}
	path, err := filepath.Abs(r.Name())
	if err != nil {
		return Bundle{}, fmt.Errorf("resolving bundle path: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Bundle{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE bundle_id IN (SELECT id FROM bundles WHERE path = ?)`, path); err != nil {
		return Bundle{}, fmt.Errorf("removing stale entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bundles WHERE path = ?`, path); err != nil {
		return Bundle{}, fmt.Errorf("removing stale bundle: %w", err)
	}

	var generation int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(generation), 0) + 1 FROM bundles`).Scan(&generation); err != nil {
		return Bundle{}, fmt.Errorf("allocating generation: %w", err)
	}

	b := Bundle{
		Path:      path,
		Version:   r.Version().String(),
		Size:      r.Size(),
		Entries:   r.Len(),
		IndexedAt: time.Now().UTC(),
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bundles (path, version, size, entry_count, generation, indexed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.Path, b.Version, b.Size, b.Entries, generation, b.IndexedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Bundle{}, fmt.Errorf("inserting bundle: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return Bundle{}, fmt.Errorf("reading bundle id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (bundle_id, path, asset_key, data_offset, compressed_size, raw_size) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Bundle{}, fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.Entries() {
		key := asset.PathKey(e.Path)
		if _, err := stmt.ExecContext(ctx, b.ID, e.Path, key.String(),
			int64(e.Offset), int64(e.CompressedSize), int64(e.RawSize)); err != nil {
			return Bundle{}, fmt.Errorf("inserting entry %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Bundle{}, fmt.Errorf("committing bundle index: %w", err)
	}

	slog.Debug("Indexed bundle", "path", path, "entries", b.Entries, "generation", generation)
	return b, nil
}

// RemoveBundle drops the records of the bundle at path and reports whether
// it was indexed.
func (c *Catalog) RemoveBundle(ctx context.Context, path string) (bool, error) {
	db, err := c.conn()
	if err != nil {
		return false, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolving bundle path: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE bundle_id IN (SELECT id FROM bundles WHERE path = ?)`, abs); err != nil {
		return false, fmt.Errorf("removing entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bundles WHERE path = ?`, abs)
	if err != nil {
		return false, fmt.Errorf("removing bundle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("counting removed bundles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing removal: %w", err)
	}
	return n > 0, nil
}
