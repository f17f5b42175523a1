package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Rebuild drops the projection and replays the full event log into it, all
// in one transaction. Returns the number of events replayed. Because the
// projection is a pure function of the log, this is both the recovery path
// and the correctness oracle.
func (db *DB) Rebuild() (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, wrapErr("begin rebuild", err)
	}
	defer tx.Rollback()

	events, err := eventsTx(tx)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec("DELETE FROM memories"); err != nil {
		return 0, wrapErr("clear projection", err)
	}
	for _, ev := range events {
		if err := applyEvent(tx, ev); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapErr("commit rebuild", err)
	}
	return len(events), nil
}

// Verify replays the log into memory and diffs it against the stored
// projection. A mismatch means the projection drifted from the log and
// returns ErrCorruption; Rebuild repairs it.
func (db *DB) Verify() error {
	// One transaction so events and projection are read from the same
	// snapshot.
	tx, err := db.Begin()
	if err != nil {
		return wrapErr("begin verify", err)
	}
	defer tx.Rollback()

	events, err := eventsTx(tx)
	if err != nil {
		return err
	}
	want, err := replayState(events)
	if err != nil {
		return err
	}

	rows, err := tx.Query("SELECT " + memoryCols + " FROM memories")
	if err != nil {
		return wrapErr("query projection", err)
	}
	stored, err := db.scanMemories(rows)
	rows.Close()
	if err != nil {
		return err
	}

	var mismatches []string
	for _, m := range stored {
		st, ok := want[m.ID]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: in projection but not in replay", m.ID))
			continue
		}
		if m.Content != st.content {
			mismatches = append(mismatches, fmt.Sprintf("%s: content differs", m.ID))
		}
		if m.Scope.String() != st.scope {
			mismatches = append(mismatches, fmt.Sprintf("%s: scope %s != replayed %s", m.ID, m.Scope, st.scope))
		}
		if m.TapCount != st.tapCount {
			mismatches = append(mismatches, fmt.Sprintf("%s: tap_count %d != replayed %d", m.ID, m.TapCount, st.tapCount))
		}
		if m.CreatedAt != st.createdAt {
			mismatches = append(mismatches, fmt.Sprintf("%s: created_at %d != replayed %d", m.ID, m.CreatedAt, st.createdAt))
		}
		if !sameTimestamp(m.LastTappedAt, st.lastTapped) {
			mismatches = append(mismatches, fmt.Sprintf("%s: last_tapped_at differs", m.ID))
		}
		delete(want, m.ID)
	}
	for id := range want {
		mismatches = append(mismatches, fmt.Sprintf("%s: in replay but missing from projection", id))
	}

	if len(mismatches) == 0 {
		return nil
	}
	sort.Strings(mismatches)
	if len(mismatches) > 5 {
		mismatches = append(mismatches[:5], "...")
	}
	return fmt.Errorf("%s: %w", strings.Join(mismatches, "; "), ErrCorruption)
}

func eventsTx(tx *sql.Tx) ([]Event, error) {
	rows, err := tx.Query("SELECT id, timestamp, action, memory_id, payload FROM events ORDER BY id")
	if err != nil {
		return nil, wrapErr("query events", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// applyEvent applies one event to the projection table. Events addressing
// a memory that no longer exists are no-ops, same as the SQL they replay.
func applyEvent(tx *sql.Tx, ev Event) error {
	switch ev.Action {
	case ActionAdd:
		var p AddPayload
		if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
			return fmt.Errorf("event %d: decode add payload: %w", ev.SequenceID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO memories (id, content, scope, tap_count, created_at) VALUES (?, ?, ?, 0, ?)",
			ev.MemoryID, p.Content, p.Scope, ev.Timestamp,
		); err != nil {
			return fmt.Errorf("event %d: replay add: %w", ev.SequenceID, err)
		}
	case ActionEdit:
		var p EditPayload
		if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
			return fmt.Errorf("event %d: decode edit payload: %w", ev.SequenceID, err)
		}
		if _, err := tx.Exec("UPDATE memories SET content = ? WHERE id = ?", p.New, ev.MemoryID); err != nil {
			return fmt.Errorf("event %d: replay edit: %w", ev.SequenceID, err)
		}
	case ActionTap:
		if _, err := tx.Exec(
			"UPDATE memories SET tap_count = tap_count + 1, last_tapped_at = ? WHERE id = ?",
			ev.Timestamp, ev.MemoryID,
		); err != nil {
			return fmt.Errorf("event %d: replay tap: %w", ev.SequenceID, err)
		}
	case ActionRemove, ActionExpire:
		if _, err := tx.Exec("DELETE FROM memories WHERE id = ?", ev.MemoryID); err != nil {
			return fmt.Errorf("event %d: replay %s: %w", ev.SequenceID, ev.Action, err)
		}
	case ActionPromote:
		// Generation is derived from tap_count; nothing to apply.
	default:
		return fmt.Errorf("event %d: unknown action %q", ev.SequenceID, ev.Action)
	}
	return nil
}

// memState is the in-memory replayed form of one projection row.
type memState struct {
	content    string
	scope      string
	tapCount   int
	lastTapped *int64
	createdAt  int64
}

func replayState(events []Event) (map[string]memState, error) {
	state := make(map[string]memState)
	for _, ev := range events {
		switch ev.Action {
		case ActionAdd:
			var p AddPayload
			if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
				return nil, fmt.Errorf("event %d: decode add payload: %w", ev.SequenceID, err)
			}
			state[ev.MemoryID] = memState{content: p.Content, scope: p.Scope, createdAt: ev.Timestamp}
		case ActionEdit:
			st, ok := state[ev.MemoryID]
			if !ok {
				continue
			}
			var p EditPayload
			if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
				return nil, fmt.Errorf("event %d: decode edit payload: %w", ev.SequenceID, err)
			}
			st.content = p.New
			state[ev.MemoryID] = st
		case ActionTap:
			st, ok := state[ev.MemoryID]
			if !ok {
				continue
			}
			st.tapCount++
			ts := ev.Timestamp
			st.lastTapped = &ts
			state[ev.MemoryID] = st
		case ActionRemove, ActionExpire:
			delete(state, ev.MemoryID)
		}
	}
	return state, nil
}

func sameTimestamp(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
