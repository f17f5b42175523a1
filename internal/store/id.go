package store

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// newID returns a 32-character lowercase hex id from random UUIDv4
// bytes. Prefix resolution relies on ids being uniformly random.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
