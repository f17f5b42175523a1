package engine

import (
	"encoding/json"
	"errors"

	"github.com/lazypower/engram/internal/store"
)

// EnrichedEvent pairs a log event with the content of the memory it touched,
// so a log view can show what happened to what.
type EnrichedEvent struct {
	store.Event
	// Content of the memory at display time. For memories that no longer
	// exist it falls back to the content recorded in the event payload,
	// and is empty when neither is available.
	Content string
}

// EnrichEvents resolves memory content for a slice of events. Live memories
// are looked up once per distinct id; dead ones fall back to their payloads.
func (e *Engine) EnrichEvents(events []store.Event) ([]EnrichedEvent, error) {
	cache := make(map[string]string)

	enriched := make([]EnrichedEvent, 0, len(events))
	for _, ev := range events {
		ee := EnrichedEvent{Event: ev}
		if ev.MemoryID != "" {
			content, seen := cache[ev.MemoryID]
			if !seen {
				m, err := e.DB.Get(ev.MemoryID)
				switch {
				case err == nil:
					content = m.Content
				case errors.Is(err, store.ErrNotFound):
					// Removed or expired; the payload may still tell us.
				default:
					return nil, err
				}
				cache[ev.MemoryID] = content
			}
			if content == "" {
				content = payloadContent(ev)
			}
			ee.Content = content
		}
		enriched = append(enriched, ee)
	}
	return enriched, nil
}

func payloadContent(ev store.Event) string {
	if ev.Payload == "" {
		return ""
	}
	switch ev.Action {
	case store.ActionAdd:
		var p store.AddPayload
		if json.Unmarshal([]byte(ev.Payload), &p) == nil {
			return p.Content
		}
	case store.ActionEdit:
		var p store.EditPayload
		if json.Unmarshal([]byte(ev.Payload), &p) == nil {
			return p.New
		}
	}
	return ""
}
