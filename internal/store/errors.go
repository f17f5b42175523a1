package store

import (
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors for the store's operation contract. Callers match with
// errors.Is; the wrapped message carries the specifics.
var (
	// ErrNotFound: no live memory has the given id or prefix.
	ErrNotFound = errors.New("memory not found")

	// ErrAmbiguousID: an id prefix matched more than one live memory.
	ErrAmbiguousID = errors.New("ambiguous id prefix")

	// ErrContentTooLong: content exceeds the configured maximum length.
	ErrContentTooLong = errors.New("content too long")

	// ErrDuplicateID: a freshly generated id collided twice in a row.
	ErrDuplicateID = errors.New("duplicate memory id")

	// ErrStoreLocked: another writer held the store past the lock timeout.
	// Retryable; the CLI backs off and retries write commands.
	ErrStoreLocked = errors.New("store locked")

	// ErrCorruption: the stored projection does not match a full replay of
	// the event log. Rebuild regenerates the projection.
	ErrCorruption = errors.New("projection does not match event log")
)

// wrapErr wraps a database error with the failing operation, translating
// SQLite busy/locked codes into ErrStoreLocked so callers can retry.
func wrapErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%s: %w", op, ErrStoreLocked)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isConstraintErr reports whether err is a SQLite constraint violation
// (primary key, unique, check).
func isConstraintErr(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
