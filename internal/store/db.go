package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Options are the policy knobs of the store. Zero fields fall back to the
// defaults below.
type Options struct {
	// MaxContentLength bounds memory content, in bytes.
	MaxContentLength int
	// PromoteThreshold is the tap count at which a memory reaches
	// generation 2 (long-term).
	PromoteThreshold int
	// GracePeriodDays is the minimum age before an untapped memory becomes
	// a GC candidate.
	GracePeriodDays int
}

// DefaultOptions returns the stock policy: promote at 3 taps, collect
// untapped memories after 7 days, cap content at 2000 bytes.
func DefaultOptions() Options {
	return Options{
		MaxContentLength: 2000,
		PromoteThreshold: 3,
		GracePeriodDays:  7,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxContentLength <= 0 {
		o.MaxContentLength = d.MaxContentLength
	}
	if o.PromoteThreshold <= 0 {
		o.PromoteThreshold = d.PromoteThreshold
	}
	if o.GracePeriodDays <= 0 {
		o.GracePeriodDays = d.GracePeriodDays
	}
	return o
}

// DB wraps a sql.DB connection to the engram SQLite database. One file holds
// both relations: the append-only event log and the memory projection.
type DB struct {
	*sql.DB
	Path string
	opts Options
}

// DefaultDBPath returns the default database path: ~/.engram/engram.db
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "engram.db"
	}
	return filepath.Join(home, ".engram", "engram.db")
}

// Open opens (or creates) the SQLite database at the given path,
// configures pragmas, and runs migrations.
func Open(path string, opts Options) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{DB: sqlDB, Path: path, opts: opts.withDefaults()}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory(opts Options) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// A second pool connection would see a different, empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, Path: ":memory:", opts: opts.withDefaults()}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Options returns the policy the store was opened with.
func (db *DB) Options() Options {
	return db.opts
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		// FULL so a committed append survives power loss, not just a crash.
		"PRAGMA synchronous=FULL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}
