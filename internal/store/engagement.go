package store

import (
	"fmt"
	"time"
)

// Tap records one use of a memory: tap_count increments, last_tapped_at
// moves to now, and a TAP event is logged. The tap that reaches the
// promote threshold also logs PROMOTE — once per memory life, since the
// count only ever crosses the threshold going up.
func (db *DB) Tap(ref string) (*Memory, error) {
	return db.tapAt(ref, time.Now().UnixMilli())
}

func (db *DB) tapAt(ref string, now int64) (*Memory, error) {
	m, err := db.Get(ref)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, wrapErr("begin tap", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"UPDATE memories SET tap_count = tap_count + 1, last_tapped_at = ? WHERE id = ?",
		now, m.ID,
	)
	if err != nil {
		return nil, wrapErr("tap memory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("memory %q: %w", m.ID, ErrNotFound)
	}

	// Re-read inside the transaction so the promote check is not fooled by
	// a concurrent tap between resolve and update.
	var count int
	if err := tx.QueryRow("SELECT tap_count FROM memories WHERE id = ?", m.ID).Scan(&count); err != nil {
		return nil, wrapErr("read tap count", err)
	}

	if err := appendEvent(tx, now, ActionTap, m.ID, nil); err != nil {
		return nil, err
	}
	if count == db.opts.PromoteThreshold {
		if err := appendEvent(tx, now, ActionPromote, m.ID, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit tap", err)
	}

	m.TapCount = count
	m.LastTappedAt = &now
	m.Generation = generationFor(count, db.opts.PromoteThreshold)
	return m, nil
}

// TapByMatch taps every live memory whose content contains the substring.
// Matching is case-sensitive byte comparison; an empty result is not an
// error. All taps share one transaction.
func (db *DB) TapByMatch(substr string) ([]Memory, error) {
	return db.tapByMatchAt(substr, time.Now().UnixMilli())
}

func (db *DB) tapByMatchAt(substr string, now int64) ([]Memory, error) {
	if substr == "" {
		return nil, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, wrapErr("begin tap match", err)
	}
	defer tx.Rollback()

	// instr() rather than LIKE: exact byte semantics, no case folding,
	// no pattern metacharacters.
	rows, err := tx.Query(
		"SELECT id, tap_count FROM memories WHERE instr(content, ?) > 0 ORDER BY created_at, rowid",
		substr,
	)
	if err != nil {
		return nil, wrapErr("match memories", err)
	}

	type match struct {
		id    string
		count int
	}
	var matches []match
	for rows.Next() {
		var m match
		if err := rows.Scan(&m.id, &m.count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, m := range matches {
		if _, err := tx.Exec(
			"UPDATE memories SET tap_count = tap_count + 1, last_tapped_at = ? WHERE id = ?",
			now, m.id,
		); err != nil {
			return nil, wrapErr("tap memory", err)
		}
		if err := appendEvent(tx, now, ActionTap, m.id, nil); err != nil {
			return nil, err
		}
		if m.count+1 == db.opts.PromoteThreshold {
			if err := appendEvent(tx, now, ActionPromote, m.id, nil); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit tap match", err)
	}

	if len(matches) == 0 {
		return nil, nil
	}
	tapped := make([]Memory, 0, len(matches))
	for _, m := range matches {
		mem, err := db.getByID(m.id)
		if err != nil {
			return nil, err
		}
		tapped = append(tapped, *mem)
	}
	return tapped, nil
}
