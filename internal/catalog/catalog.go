// Package catalog keeps an index of spectra read from disk in a SQLite
// database: one entry per path, replaced on every re-index.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for a path that was never indexed.
var ErrNotFound = errors.New("catalog entry not found")

// Entry statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry summarises one read attempt.
type Entry struct {
	ID             string
	Path           string
	Format         string
	Status         string
	ErrorKind      string
	Message        string
	Samples        int
	AxisUnit       string
	FluxUnit       string
	AxisMin        float64
	AxisMax        float64
	HasUncertainty bool
	IndexedAt      time.Time
}

// Catalog is a SQLite-backed entry store. Methods are safe for concurrent use.
type Catalog struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// Open returns a catalog backed by the database at path. ":memory:" keeps
// the catalog in memory. The schema is created on first use.
func Open(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the database location.
func (c *Catalog) Path() string { return c.path }

// Init opens the database and creates the schema.
func (c *Catalog) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return fmt.Errorf("open catalog %s: %w", c.path, err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS spectra (
  id TEXT PRIMARY KEY,
  path TEXT NOT NULL UNIQUE,
  format TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'ok',
  error_kind TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT '',
  samples INTEGER NOT NULL DEFAULT 0,
  axis_unit TEXT NOT NULL DEFAULT '',
  flux_unit TEXT NOT NULL DEFAULT '',
  axis_min REAL NOT NULL DEFAULT 0,
  axis_max REAL NOT NULL DEFAULT 0,
  has_uncertainty INTEGER NOT NULL DEFAULT 0,
  indexed_unix INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_spectra_format ON spectra(format);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("create catalog schema: %w", err)
	}
	c.db = db
	return nil
}

func (c *Catalog) ensureDB(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db != nil {
		return db, nil
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db, nil
}

// Upsert stores e keyed by its path. A path seen before keeps its ID; a new
// path gets a fresh UUID. The stored entry is returned.
func (c *Catalog) Upsert(ctx context.Context, e Entry) (Entry, error) {
	db, err := c.ensureDB(ctx)
	if err != nil {
		return Entry{}, err
	}
	if e.Path == "" {
		return Entry{}, errors.New("upsert catalog entry: empty path")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusOK
	}
	if e.IndexedAt.IsZero() {
		e.IndexedAt = time.Now()
	}
	e.IndexedAt = e.IndexedAt.UTC().Truncate(time.Second)

	_, err = db.ExecContext(ctx,
		`INSERT INTO spectra(id, path, format, status, error_kind, message, samples,
		   axis_unit, flux_unit, axis_min, axis_max, has_uncertainty, indexed_unix)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   format=excluded.format,
		   status=excluded.status,
		   error_kind=excluded.error_kind,
		   message=excluded.message,
		   samples=excluded.samples,
		   axis_unit=excluded.axis_unit,
		   flux_unit=excluded.flux_unit,
		   axis_min=excluded.axis_min,
		   axis_max=excluded.axis_max,
		   has_uncertainty=excluded.has_uncertainty,
		   indexed_unix=excluded.indexed_unix`,
		e.ID, e.Path, e.Format, e.Status, e.ErrorKind, e.Message, e.Samples,
		e.AxisUnit, e.FluxUnit, e.AxisMin, e.AxisMax, boolToInt(e.HasUncertainty), e.IndexedAt.Unix(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("upsert catalog entry %s: %w", e.Path, err)
	}
	return c.Get(ctx, e.Path)
}

const selectColumns = `SELECT id, path, format, status, error_kind, message, samples,
  axis_unit, flux_unit, axis_min, axis_max, has_uncertainty, indexed_unix FROM spectra`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e       Entry
		hasUnc  int
		indexed int64
	)
	err := s.Scan(&e.ID, &e.Path, &e.Format, &e.Status, &e.ErrorKind, &e.Message, &e.Samples,
		&e.AxisUnit, &e.FluxUnit, &e.AxisMin, &e.AxisMax, &hasUnc, &indexed)
	if err != nil {
		return Entry{}, err
	}
	e.HasUncertainty = hasUnc != 0
	e.IndexedAt = time.Unix(indexed, 0).UTC()
	return e, nil
}

// Get returns the entry for path.
func (c *Catalog) Get(ctx context.Context, path string) (Entry, error) {
	db, err := c.ensureDB(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, err := scanEntry(db.QueryRowContext(ctx, selectColumns+` WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", path, err)
	}
	return e, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Format string
	Status string
	Limit  int
}

// List returns entries ordered by path.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Entry, error) {
	db, err := c.ensureDB(ctx)
	if err != nil {
		return nil, err
	}
	query := selectColumns + ` WHERE (? = '' OR format = ?) AND (? = '' OR status = ?) ORDER BY path`
	args := []any{f.Format, f.Format, f.Status, f.Status}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, 16)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
