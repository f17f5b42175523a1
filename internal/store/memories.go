package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/engram/internal/scope"
)

// Memory is one row of the projection: current state derived from the
// event log.
type Memory struct {
	ID           string
	Content      string
	Scope        scope.Scope
	TapCount     int
	LastTappedAt *int64
	CreatedAt    int64

	// Generation is derived from TapCount on every read, never stored:
	// 0 untapped, 1 below the promote threshold, 2 at or above it.
	Generation int
}

// AddPayload is the ADD event payload; it carries everything replay needs
// to recreate the row.
type AddPayload struct {
	Content string `json:"content"`
	Scope   string `json:"scope"`
}

// EditPayload is the EDIT event payload. Old is not needed for replay but
// keeps the log readable as an audit trail.
type EditPayload struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func generationFor(tapCount, threshold int) int {
	switch {
	case tapCount == 0:
		return 0
	case tapCount < threshold:
		return 1
	default:
		return 2
	}
}

func (db *DB) checkContent(content string) error {
	if len(content) > db.opts.MaxContentLength {
		return fmt.Errorf("content is %d bytes, max %d: %w",
			len(content), db.opts.MaxContentLength, ErrContentTooLong)
	}
	return nil
}

// Add stores a new memory in the given scope and logs the ADD event.
func (db *DB) Add(content string, sc scope.Scope) (*Memory, error) {
	return db.addAt(content, sc, time.Now().UnixMilli())
}

func (db *DB) addAt(content string, sc scope.Scope, now int64) (*Memory, error) {
	if err := db.checkContent(content); err != nil {
		return nil, err
	}
	m, err := db.insertMemory(newID(), content, sc, now)
	if errors.Is(err, ErrDuplicateID) {
		// One retry with a fresh id; a second collision is fatal.
		m, err = db.insertMemory(newID(), content, sc, now)
	}
	return m, err
}

// insertMemory writes the projection row and the ADD event in one
// transaction.
func (db *DB) insertMemory(id, content string, sc scope.Scope, now int64) (*Memory, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, wrapErr("begin add", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO memories (id, content, scope, tap_count, created_at) VALUES (?, ?, ?, 0, ?)",
		id, content, sc.String(), now,
	); err != nil {
		if isConstraintErr(err) {
			return nil, fmt.Errorf("id %s: %w", id, ErrDuplicateID)
		}
		return nil, wrapErr("insert memory", err)
	}

	payload, err := json.Marshal(AddPayload{Content: content, Scope: sc.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal add payload: %w", err)
	}
	if err := appendEvent(tx, now, ActionAdd, id, payload); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit add", err)
	}
	return &Memory{ID: id, Content: content, Scope: sc, CreatedAt: now}, nil
}

// Get returns the memory with the given id or unique id prefix.
func (db *DB) Get(ref string) (*Memory, error) {
	id, err := db.resolve(ref)
	if err != nil {
		return nil, err
	}
	return db.getByID(id)
}

// resolve maps an exact id or unique prefix to a full id. Two-step: exact
// match first, then prefix scan.
func (db *DB) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty id: %w", ErrNotFound)
	}

	var id string
	err := db.QueryRow("SELECT id FROM memories WHERE id = ?", ref).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", wrapErr("resolve id", err)
	}

	rows, err := db.Query(
		"SELECT id FROM memories WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2",
		len(ref), ref,
	)
	if err != nil {
		return "", wrapErr("resolve prefix", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return "", fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, m)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("memory %q: %w", ref, ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("prefix %q matches multiple memories: %w", ref, ErrAmbiguousID)
	}
}

const memoryCols = "id, content, scope, tap_count, last_tapped_at, created_at"

func (db *DB) getByID(id string) (*Memory, error) {
	rows, err := db.Query("SELECT "+memoryCols+" FROM memories WHERE id = ?", id)
	if err != nil {
		return nil, wrapErr("get memory", err)
	}
	defer rows.Close()

	memories, err := db.scanMemories(rows)
	if err != nil {
		return nil, err
	}
	if len(memories) == 0 {
		return nil, fmt.Errorf("memory %q: %w", id, ErrNotFound)
	}
	return &memories[0], nil
}

// ListFilter narrows a listing. A nil Scope matches everything; a project
// scope also matches global records (scope.VisibleIn semantics). A nil
// Generation matches all generations.
type ListFilter struct {
	Scope      *scope.Scope
	Generation *int
}

// List returns memories in creation order.
func (db *DB) List(f ListFilter) ([]Memory, error) {
	query := "SELECT " + memoryCols + " FROM memories"
	var conds []string
	var args []any

	if f.Scope != nil {
		if f.Scope.IsGlobal() {
			conds = append(conds, "scope = ?")
			args = append(args, scope.Global.String())
		} else {
			conds = append(conds, "scope IN (?, ?)")
			args = append(args, scope.Global.String(), f.Scope.String())
		}
	}
	if f.Generation != nil {
		switch *f.Generation {
		case 0:
			conds = append(conds, "tap_count = 0")
		case 1:
			conds = append(conds, "tap_count >= 1 AND tap_count < ?")
			args = append(args, db.opts.PromoteThreshold)
		case 2:
			conds = append(conds, "tap_count >= ?")
			args = append(args, db.opts.PromoteThreshold)
		default:
			return nil, fmt.Errorf("generation %d out of range [0,2]", *f.Generation)
		}
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, rowid"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("list memories", err)
	}
	defer rows.Close()

	return db.scanMemories(rows)
}

// Edit replaces a memory's content and logs the EDIT event. Taps, scope,
// and created_at are untouched.
func (db *DB) Edit(ref, content string) (*Memory, error) {
	return db.editAt(ref, content, time.Now().UnixMilli())
}

func (db *DB) editAt(ref, content string, now int64) (*Memory, error) {
	if err := db.checkContent(content); err != nil {
		return nil, err
	}
	m, err := db.Get(ref)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, wrapErr("begin edit", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE memories SET content = ? WHERE id = ?", content, m.ID)
	if err != nil {
		return nil, wrapErr("edit memory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("memory %q: %w", m.ID, ErrNotFound)
	}

	payload, err := json.Marshal(EditPayload{Old: m.Content, New: content})
	if err != nil {
		return nil, fmt.Errorf("marshal edit payload: %w", err)
	}
	if err := appendEvent(tx, now, ActionEdit, m.ID, payload); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit edit", err)
	}
	m.Content = content
	return m, nil
}

// Remove deletes a memory and logs the REMOVE event. Returns the removed
// memory.
func (db *DB) Remove(ref string) (*Memory, error) {
	return db.removeAt(ref, time.Now().UnixMilli())
}

func (db *DB) removeAt(ref string, now int64) (*Memory, error) {
	m, err := db.Get(ref)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, wrapErr("begin remove", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM memories WHERE id = ?", m.ID)
	if err != nil {
		return nil, wrapErr("remove memory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("memory %q: %w", m.ID, ErrNotFound)
	}

	if err := appendEvent(tx, now, ActionRemove, m.ID, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit remove", err)
	}
	return m, nil
}

func (db *DB) scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		var m Memory
		var rawScope string
		var lastTapped sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Content, &rawScope, &m.TapCount, &lastTapped, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		sc, err := scope.Parse(rawScope)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", m.ID, err)
		}
		m.Scope = sc
		if lastTapped.Valid {
			m.LastTappedAt = &lastTapped.Int64
		}
		m.Generation = generationFor(m.TapCount, db.opts.PromoteThreshold)
		memories = append(memories, m)
	}
	return memories, rows.Err()
}
