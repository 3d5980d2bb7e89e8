package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jchantrell/assetpack/internal/asset"
)

var _ asset.Resolver = (*Catalog)(nil)

// ErrNotFound is returned when no indexed entry matches.
var ErrNotFound = fs.ErrNotExist

// Record is one indexed entry.
type Record struct {
	Key            asset.Key
	Path           string
	Bundle         string
	Offset         uint64
	CompressedSize uint64
	RawSize        uint64
}

const recordQuery = `SELECT e.asset_key, e.path, b.path, e.data_offset, e.compressed_size, e.raw_size
	FROM entries e JOIN bundles b ON b.id = e.bundle_id`

// Resolve returns the virtual path recorded for key, preferring the most
// recently indexed bundle. It makes a Catalog usable as an asset.Resolver.
func (c *Catalog) Resolve(ctx context.Context, key asset.Key) (string, error) {
	db, err := c.conn()
	if err != nil {
		return "", err
	}

	var path string
	err = db.QueryRowContext(ctx,
		`SELECT e.path FROM entries e JOIN bundles b ON b.id = e.bundle_id
		 WHERE e.asset_key = ? ORDER BY b.generation DESC LIMIT 1`, key.String()).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: key %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("resolving key %s: %w", key, err)
	}
	return path, nil
}

// FindKey returns every record for key, newest bundle first.
func (c *Catalog) FindKey(ctx context.Context, key asset.Key) ([]Record, error) {
	return c.records(ctx, recordQuery+` WHERE e.asset_key = ? ORDER BY b.generation DESC`, key.String())
}

// FindPath returns every record for a virtual path, newest bundle first.
func (c *Catalog) FindPath(ctx context.Context, path string) ([]Record, error) {
	return c.records(ctx, recordQuery+` WHERE e.path = ? ORDER BY b.generation DESC`, path)
}

// Bundles lists indexed bundles, newest first.
func (c *Catalog) Bundles(ctx context.Context) ([]Bundle, error) {
	db, err := c.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, path, version, size, entry_count, indexed_at FROM bundles ORDER BY generation DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing bundles: %w", err)
	}
	defer rows.Close()

	var out []Bundle
	for rows.Next() {
		var b Bundle
		var indexedAt string
		if err := rows.Scan(&b.ID, &b.Path, &b.Version, &b.Size, &b.Entries, &indexedAt); err != nil {
			return nil, fmt.Errorf("scanning bundle: %w", err)
		}
		if b.IndexedAt, err = time.Parse(time.RFC3339Nano, indexedAt); err != nil {
			return nil, fmt.Errorf("parsing index time of %s: %w", b.Path, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing bundles: %w", err)
	}
	return out, nil
}

func (c *Catalog) records(ctx context.Context, query string, args ...any) ([]Record, error) {
	db, err := c.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                        Record
			key                        string
			offset, compressed, rawLen int64
		)
		if err := rows.Scan(&key, &rec.Path, &rec.Bundle, &offset, &compressed, &rawLen); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if rec.Key, err = asset.ParseKey(key); err != nil {
			return nil, err
		}
		rec.Offset, rec.CompressedSize, rec.RawSize = uint64(offset), uint64(compressed), uint64(rawLen)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	return out, nil
}
