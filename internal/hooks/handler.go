package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// Handle reads HookInput from the given reader and dispatches on the event
// argument. Handlers degrade rather than fail: a broken store or unreadable
// stdin must never block the session they serve.
func Handle(event string, stdin io.Reader) {
	var input HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		// Stdin may be empty for some events — degrade gracefully
		if event == "start" {
			WriteSessionStartOutput("")
			return
		}
		ExitError(fmt.Errorf("decode stdin: %w", err))
		return
	}

	switch event {
	case "start":
		handleStart(&input)
	case "end":
		handleEnd(&input)
	default:
		ExitError(fmt.Errorf("unknown hook event: %s", event))
	}
}
