// Package cacheindex maintains a SQLite side-index over the on-disk
// data package cache (internal/store), so operators can list and
// garbage-collect cached games without decompressing every file by
// hand. The cache files themselves remain the source of truth; this
// index only speeds up querying them.
package cacheindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// Entry describes one cached (game, checksum) data package file.
type Entry struct {
	Game          string
	Checksum      string
	Path          string
	SizeBytes     int64
	ModTime       time.Time
	ItemCount     int
	LocationCount int
}

// Index is a small SQLite-backed catalog of cache entries.
type Index struct {
	db *sql.DB
}

// Open creates or opens the index database at path, initializing its
// schema if needed.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("cacheindex: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS entries (
		path TEXT PRIMARY KEY,
		game TEXT NOT NULL,
		checksum TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		mod_time TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		location_count INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_game ON entries(game);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

// Upsert records or refreshes one cache entry.
func (idx *Index) Upsert(e Entry) error {
	_, err := idx.db.Exec(
		`INSERT OR REPLACE INTO entries(path, game, checksum, size_bytes, mod_time, item_count, location_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Path, e.Game, e.Checksum, e.SizeBytes, e.ModTime.UTC().Format(time.RFC3339Nano), e.ItemCount, e.LocationCount,
	)
	return err
}

// Remove drops an entry that no longer exists on disk.
func (idx *Index) Remove(path string) error {
	_, err := idx.db.Exec(`DELETE FROM entries WHERE path = ?`, path)
	return err
}

// Prune removes indexed entries whose path is not present in keep.
func (idx *Index) Prune(keep map[string]struct{}) error {
	rows, err := idx.db.Query(`SELECT path FROM entries`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return err
		}
		if _, ok := keep[p]; !ok {
			stale = append(stale, p)
		}
	}
	rows.Close()
	for _, p := range stale {
		if err := idx.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

// List returns all indexed entries, most recently modified first.
func (idx *Index) List() ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT path, game, checksum, size_bytes, mod_time, item_count, location_count
		 FROM entries ORDER BY mod_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var modTime string
		if err := rows.Scan(&e.Path, &e.Game, &e.Checksum, &e.SizeBytes, &modTime, &e.ItemCount, &e.LocationCount); err != nil {
			return nil, err
		}
		e.ModTime, _ = time.Parse(time.RFC3339Nano, modTime)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// RFC3339Nano strings vary in width, so the SQL text order is only
	// approximate within one second; sort on the parsed times.
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// OlderThan returns indexed entries last modified before cutoff.
func (idx *Index) OlderThan(cutoff time.Time) ([]Entry, error) {
	all, err := idx.List()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.ModTime.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}
