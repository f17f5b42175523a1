package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "events: append-only transaction log",
		SQL: `
CREATE TABLE events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp  INTEGER NOT NULL,
    action     TEXT NOT NULL CHECK (action IN ('ADD', 'TAP', 'EDIT', 'REMOVE', 'EXPIRE', 'PROMOTE')),
    memory_id  TEXT,
    payload    TEXT
);

CREATE INDEX idx_events_action ON events(action);
CREATE INDEX idx_events_memory ON events(memory_id);
`,
	},
	{
		Version:     2,
		Description: "memories: projection of the event log",
		SQL: `
CREATE TABLE memories (
    id             TEXT PRIMARY KEY,
    content        TEXT NOT NULL,
    scope          TEXT NOT NULL DEFAULT 'global',
    tap_count      INTEGER NOT NULL DEFAULT 0,
    last_tapped_at INTEGER,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_memories_scope   ON memories(scope);
CREATE INDEX idx_memories_created ON memories(created_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
