package store

import (
	"time"

	"github.com/lazypower/engram/internal/scope"
)

// Stats summarizes the projection. Generation counts are derived from
// tap_count with the same thresholds as reads, so ByGeneration[0] is also
// the never-tapped count.
type Stats struct {
	Total        int
	ByGeneration [3]int
	TotalTaps    int
	ByScope      []ScopeCount
}

// ScopeCount is the number of memories in one exact scope.
type ScopeCount struct {
	Scope scope.Scope
	Count int
}

// Stats returns projection totals.
func (db *DB) Stats() (*Stats, error) {
	var s Stats
	err := db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(tap_count), 0),
		       COALESCE(SUM(CASE WHEN tap_count = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN tap_count >= 1 AND tap_count < ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN tap_count >= ? THEN 1 ELSE 0 END), 0)
		FROM memories
	`, db.opts.PromoteThreshold, db.opts.PromoteThreshold).Scan(
		&s.Total, &s.TotalTaps, &s.ByGeneration[0], &s.ByGeneration[1], &s.ByGeneration[2],
	)
	if err != nil {
		return nil, wrapErr("query stats", err)
	}

	rows, err := db.Query("SELECT scope, COUNT(*) FROM memories GROUP BY scope ORDER BY COUNT(*) DESC, scope")
	if err != nil {
		return nil, wrapErr("query scope counts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, wrapErr("scan scope count", err)
		}
		sc, err := scope.Parse(raw)
		if err != nil {
			return nil, err
		}
		s.ByScope = append(s.ByScope, ScopeCount{Scope: sc, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// HotMemory is a memory with its TAP count inside a recent window.
type HotMemory struct {
	Memory
	RecentTaps int
}

// HotMemories returns the most-tapped live memories within the window,
// busiest first.
func (db *DB) HotMemories(window time.Duration, limit int) ([]HotMemory, error) {
	return db.hotAt(time.Now().UnixMilli(), window, limit)
}

func (db *DB) hotAt(now int64, window time.Duration, limit int) ([]HotMemory, error) {
	since := now - window.Milliseconds()
	rows, err := db.Query(`
		SELECT m.id, m.content, m.scope, m.tap_count, m.last_tapped_at, m.created_at, COUNT(e.id)
		FROM events e
		JOIN memories m ON m.id = e.memory_id
		WHERE e.action = 'TAP' AND e.timestamp >= ?
		GROUP BY m.id
		ORDER BY COUNT(e.id) DESC, m.created_at, m.rowid
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, wrapErr("query hot memories", err)
	}
	defer rows.Close()

	var hot []HotMemory
	for rows.Next() {
		var h HotMemory
		var rawScope string
		var lastTapped int64
		if err := rows.Scan(&h.ID, &h.Content, &rawScope, &h.TapCount, &lastTapped, &h.CreatedAt, &h.RecentTaps); err != nil {
			return nil, wrapErr("scan hot memory", err)
		}
		sc, err := scope.Parse(rawScope)
		if err != nil {
			return nil, err
		}
		h.Scope = sc
		h.LastTappedAt = &lastTapped
		h.Generation = generationFor(h.TapCount, db.opts.PromoteThreshold)
		hot = append(hot, h)
	}
	return hot, rows.Err()
}

// DayActivity is the per-day event volume, one row per UTC day.
type DayActivity struct {
	Day      string
	Adds     int
	Taps     int
	Edits    int
	Removes  int
	Expires  int
	Promotes int
}

// ActivityByDay returns event counts per day for the last N days, newest
// day first.
func (db *DB) ActivityByDay(days int) ([]DayActivity, error) {
	return db.activityAt(time.Now().UnixMilli(), days)
}

func (db *DB) activityAt(now int64, days int) ([]DayActivity, error) {
	since := now - int64(days)*dayMillis
	rows, err := db.Query(`
		SELECT date(timestamp / 1000, 'unixepoch') AS day,
		       SUM(CASE WHEN action = 'ADD' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN action = 'TAP' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN action = 'EDIT' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN action = 'REMOVE' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN action = 'EXPIRE' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN action = 'PROMOTE' THEN 1 ELSE 0 END)
		FROM events
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC
	`, since)
	if err != nil {
		return nil, wrapErr("query activity", err)
	}
	defer rows.Close()

	var activity []DayActivity
	for rows.Next() {
		var d DayActivity
		if err := rows.Scan(&d.Day, &d.Adds, &d.Taps, &d.Edits, &d.Removes, &d.Expires, &d.Promotes); err != nil {
			return nil, wrapErr("scan activity", err)
		}
		activity = append(activity, d)
	}
	return activity, rows.Err()
}
