package hooks

import (
	"github.com/charmbracelet/log"
)

// handleEnd runs a garbage collection pass when a session closes. The
// retention policy protects anything tapped or young, so this stays safe to
// run on every session end.
func handleEnd(input *HookInput) {
	db, err := openStore()
	if err != nil {
		ExitError(err)
		return
	}
	defer db.Close()

	collected, err := db.CollectGarbage(false)
	if err != nil {
		ExitError(err)
		return
	}
	log.Debug("session end gc", "session", input.SessionID, "collected", len(collected))
}
