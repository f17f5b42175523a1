package store

import (
	"encoding/json"
	"testing"

	"github.com/lazypower/engram/internal/scope"
)

func TestEventSequenceMonotonic(t *testing.T) {
	db := newTestStore(t)

	m, err := db.Add("counted", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := db.Tap(m.ID); err != nil {
			t.Fatalf("Tap: %v", err)
		}
	}

	events, err := db.Events(EventFilter{})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) < 5 {
		t.Fatalf("got %d events, want at least 5", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].SequenceID <= events[i-1].SequenceID {
			t.Errorf("sequence not increasing at %d: %d then %d",
				i, events[i-1].SequenceID, events[i].SequenceID)
		}
	}
}

func TestEventPayloads(t *testing.T) {
	db := newTestStore(t)
	projA, _ := scope.Project("/a")

	m, err := db.Add("payload check", projA)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := db.Tap(m.ID); err != nil {
		t.Fatalf("Tap: %v", err)
	}
	if _, err := db.Edit(m.ID, "payload check, edited"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	events, err := db.Events(EventFilter{MemoryID: m.ID})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	var add AddPayload
	if err := json.Unmarshal([]byte(events[0].Payload), &add); err != nil {
		t.Fatalf("decode ADD payload: %v", err)
	}
	if add.Content != "payload check" || add.Scope != "project:/a" {
		t.Errorf("ADD payload = %+v", add)
	}

	if events[1].Payload != "" {
		t.Errorf("TAP payload = %q, want empty", events[1].Payload)
	}

	var edit EditPayload
	if err := json.Unmarshal([]byte(events[2].Payload), &edit); err != nil {
		t.Fatalf("decode EDIT payload: %v", err)
	}
	if edit.Old != "payload check" || edit.New != "payload check, edited" {
		t.Errorf("EDIT payload = %+v", edit)
	}
}

func TestEventFilters(t *testing.T) {
	db := newTestStore(t)

	first, err := db.Add("first", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := db.Add("second", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := db.Tap(first.ID); err != nil {
		t.Fatalf("Tap: %v", err)
	}
	if _, err := db.Remove(second.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	byAction, err := db.Events(EventFilter{Action: ActionAdd})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(byAction) != 2 {
		t.Errorf("ADD events = %d, want 2", len(byAction))
	}
	for _, ev := range byAction {
		if ev.Action != ActionAdd {
			t.Errorf("filtered event has action %s", ev.Action)
		}
	}

	byMemory, err := db.Events(EventFilter{MemoryID: second.ID})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(byMemory) != 2 {
		t.Fatalf("events for %s = %d, want 2", second.ID, len(byMemory))
	}
	if byMemory[0].Action != ActionAdd || byMemory[1].Action != ActionRemove {
		t.Errorf("actions = [%s %s], want [ADD REMOVE]", byMemory[0].Action, byMemory[1].Action)
	}

	limited, err := db.Events(EventFilter{Limit: 2, Descending: true})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited events = %d, want 2", len(limited))
	}
	if limited[0].SequenceID < limited[1].SequenceID {
		t.Errorf("descending order broken: %d before %d",
			limited[0].SequenceID, limited[1].SequenceID)
	}
	if limited[0].Action != ActionRemove {
		t.Errorf("newest event = %s, want REMOVE", limited[0].Action)
	}
}

func TestParseAction(t *testing.T) {
	for raw, want := range map[string]Action{
		"add":     ActionAdd,
		"TAP":     ActionTap,
		"Edit":    ActionEdit,
		"remove":  ActionRemove,
		"expire":  ActionExpire,
		"PROMOTE": ActionPromote,
	} {
		got, err := ParseAction(raw)
		if err != nil {
			t.Errorf("ParseAction(%q): %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAction(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseAction("review"); err == nil {
		t.Error("ParseAction(review) succeeded, want error")
	}
	if _, err := ParseAction(""); err == nil {
		t.Error("ParseAction(\"\") succeeded, want error")
	}
}
