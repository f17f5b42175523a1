package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Action is the kind of a logged event.
type Action string

const (
	ActionAdd     Action = "ADD"
	ActionTap     Action = "TAP"
	ActionEdit    Action = "EDIT"
	ActionRemove  Action = "REMOVE"
	ActionExpire  Action = "EXPIRE"
	ActionPromote Action = "PROMOTE"
)

var validActions = map[Action]bool{
	ActionAdd:     true,
	ActionTap:     true,
	ActionEdit:    true,
	ActionRemove:  true,
	ActionExpire:  true,
	ActionPromote: true,
}

// ParseAction resolves a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(s))
	if !validActions[a] {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Event is one row of the append-only log. SequenceID is assigned by the
// log and strictly increases; rows are never updated or deleted.
type Event struct {
	SequenceID int64
	Timestamp  int64
	Action     Action
	MemoryID   string
	Payload    string // action-specific JSON, "" when the action carries none
}

// appendEvent writes one event inside the caller's transaction. The same
// transaction also applies the projection change, so log and projection
// move together or not at all.
func appendEvent(tx *sql.Tx, timestamp int64, action Action, memoryID string, payload []byte) error {
	var p any
	if len(payload) > 0 {
		p = string(payload)
	}
	if _, err := tx.Exec(
		"INSERT INTO events (timestamp, action, memory_id, payload) VALUES (?, ?, ?, ?)",
		timestamp, string(action), memoryID, p,
	); err != nil {
		return fmt.Errorf("append %s event: %w", action, err)
	}
	return nil
}

// EventFilter narrows an event scan. Zero fields mean no constraint;
// Limit <= 0 means unbounded.
type EventFilter struct {
	Action   Action
	MemoryID string
	Limit    int
	// Descending returns newest first (recency views). Default is log order.
	Descending bool
}

// Events scans the log with the given filter.
func (db *DB) Events(f EventFilter) ([]Event, error) {
	query := "SELECT id, timestamp, action, memory_id, payload FROM events"
	var conds []string
	var args []any
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.MemoryID != "" {
		conds = append(conds, "memory_id = ?")
		args = append(args, f.MemoryID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.Descending {
		query += " ORDER BY id DESC"
	} else {
		query += " ORDER BY id"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("query events", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var ev Event
		var action string
		var memoryID, payload sql.NullString
		if err := rows.Scan(&ev.SequenceID, &ev.Timestamp, &action, &memoryID, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Action = Action(action)
		ev.MemoryID = memoryID.String
		ev.Payload = payload.String
		events = append(events, ev)
	}
	return events, rows.Err()
}
