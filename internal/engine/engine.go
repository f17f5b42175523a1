// Package engine layers session-facing behavior over the store: event
// enrichment for the log view and context assembly for session startup.
package engine

import (
	"github.com/lazypower/engram/internal/store"
)

// Engine wraps a store handle. It holds no other state; every method is a
// self-contained unit of work.
type Engine struct {
	DB *store.DB
}

// New creates a new Engine.
func New(db *store.DB) *Engine {
	return &Engine{DB: db}
}
