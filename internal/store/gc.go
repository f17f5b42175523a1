package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/engram/internal/scope"
)

const dayMillis = 24 * 60 * 60 * 1000

// GCCandidate is one memory the garbage collector would expire (dry run)
// or has expired (real run).
type GCCandidate struct {
	ID        string
	Content   string
	Scope     scope.Scope
	CreatedAt int64
	Reason    string
}

// Retention policy: a memory is collected only when all three hold —
// it was never tapped, it is at least GracePeriodDays old, and it is not
// the most recently created memory in its exact scope. Everything else
// survives.
const gcCandidatesSQL = `
SELECT id, content, scope, created_at FROM memories m
WHERE tap_count = 0
  AND created_at <= ?
  AND id <> (SELECT id FROM memories s WHERE s.scope = m.scope
             ORDER BY s.created_at DESC, s.rowid DESC LIMIT 1)
ORDER BY created_at, rowid`

// CollectGarbage expires garbage-eligible memories, oldest first. With
// dryRun it is a pure read returning exactly the set a real run at the
// same instant would expire.
func (db *DB) CollectGarbage(dryRun bool) ([]GCCandidate, error) {
	return db.collectAt(time.Now().UnixMilli(), dryRun)
}

func (db *DB) collectAt(now int64, dryRun bool) ([]GCCandidate, error) {
	cutoff := now - int64(db.opts.GracePeriodDays)*dayMillis

	if dryRun {
		rows, err := db.Query(gcCandidatesSQL, cutoff)
		if err != nil {
			return nil, wrapErr("gc candidates", err)
		}
		defer rows.Close()
		return db.scanCandidates(rows, now)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, wrapErr("begin gc", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(gcCandidatesSQL, cutoff)
	if err != nil {
		return nil, wrapErr("gc candidates", err)
	}
	candidates, err := db.scanCandidates(rows, now)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if _, err := tx.Exec("DELETE FROM memories WHERE id = ?", c.ID); err != nil {
			return nil, wrapErr("expire memory", err)
		}
		if err := appendEvent(tx, now, ActionExpire, c.ID, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit gc", err)
	}
	return candidates, nil
}

func (db *DB) scanCandidates(rows *sql.Rows, now int64) ([]GCCandidate, error) {
	var candidates []GCCandidate
	for rows.Next() {
		var c GCCandidate
		var rawScope string
		if err := rows.Scan(&c.ID, &c.Content, &rawScope, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gc candidate: %w", err)
		}
		sc, err := scope.Parse(rawScope)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", c.ID, err)
		}
		c.Scope = sc
		c.Reason = fmt.Sprintf("never tapped in %dd", (now-c.CreatedAt)/dayMillis)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
