package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lazypower/engram/internal/scope"
	"github.com/lazypower/engram/internal/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.OpenMemory(store.DefaultOptions())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestBuildContextEmpty(t *testing.T) {
	eng := testEngine(t)

	out, err := eng.BuildContext(nil)
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if !strings.HasPrefix(out, "<engram-context>\n") {
		t.Errorf("missing opening tag:\n%s", out)
	}
	if !strings.HasSuffix(out, "</engram-context>\n") {
		t.Errorf("missing closing tag:\n%s", out)
	}
	if !strings.Contains(out, "No memories yet for this project.") {
		t.Errorf("missing empty-store line:\n%s", out)
	}
	if strings.Contains(out, "## Current Memories") {
		t.Errorf("empty store should not list memories:\n%s", out)
	}
	// The instructions always ship, even with nothing stored.
	if !strings.Contains(out, "engram add") || !strings.Contains(out, "engram tap") {
		t.Errorf("missing usage instructions:\n%s", out)
	}
}

func TestBuildContextListsMemories(t *testing.T) {
	eng := testEngine(t)
	projA, _ := scope.Project("/a")

	g, err := eng.DB.Add("shared fact", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	p, err := eng.DB.Add("project fact", projA)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := eng.BuildContext([]scope.Scope{projA})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if !strings.Contains(out, "## Current Memories") {
		t.Errorf("missing memories heading:\n%s", out)
	}
	for _, m := range []*store.Memory{g, p} {
		line := fmt.Sprintf("<!-- %s -->- %s", m.ID, m.Content)
		if !strings.Contains(out, line) {
			t.Errorf("missing line %q in:\n%s", line, out)
		}
	}
}

func TestBuildContextGlobalOnly(t *testing.T) {
	eng := testEngine(t)
	projA, _ := scope.Project("/a")

	if _, err := eng.DB.Add("global fact", scope.Global); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := eng.DB.Add("project fact", projA); err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := eng.BuildContext(nil)
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if !strings.Contains(out, "global fact") {
		t.Errorf("missing global memory:\n%s", out)
	}
	if strings.Contains(out, "project fact") {
		t.Errorf("project memory leaked into global context:\n%s", out)
	}
}

func TestBuildContextDeduplicatesAcrossScopes(t *testing.T) {
	eng := testEngine(t)
	projA, _ := scope.Project("/a")

	g, err := eng.DB.Add("seen once", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Global is visible through both scope queries.
	out, err := eng.BuildContext([]scope.Scope{scope.Global, projA})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if n := strings.Count(out, g.ID); n != 1 {
		t.Errorf("memory id appears %d times, want 1:\n%s", n, out)
	}
}

func TestEnrichEventsLiveAndDead(t *testing.T) {
	eng := testEngine(t)

	alive, err := eng.DB.Add("still here", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	dead, err := eng.DB.Add("soon gone", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := eng.DB.Tap(alive.ID); err != nil {
		t.Fatalf("Tap: %v", err)
	}
	if _, err := eng.DB.Remove(dead.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	events, err := eng.DB.Events(store.EventFilter{})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	enriched, err := eng.EnrichEvents(events)
	if err != nil {
		t.Fatalf("EnrichEvents: %v", err)
	}
	if len(enriched) != len(events) {
		t.Fatalf("enriched %d events, want %d", len(enriched), len(events))
	}

	for _, ee := range enriched {
		switch ee.MemoryID {
		case alive.ID:
			if ee.Content != "still here" {
				t.Errorf("%s event content = %q, want live content", ee.Action, ee.Content)
			}
		case dead.ID:
			switch ee.Action {
			case store.ActionAdd:
				if ee.Content != "soon gone" {
					t.Errorf("ADD content = %q, want payload fallback", ee.Content)
				}
			case store.ActionRemove:
				if ee.Content != "" {
					t.Errorf("REMOVE content = %q, want empty", ee.Content)
				}
			}
		}
	}
}

func TestEnrichEventsEditFallback(t *testing.T) {
	eng := testEngine(t)

	m, err := eng.DB.Add("draft wording", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := eng.DB.Edit(m.ID, "final wording"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if _, err := eng.DB.Remove(m.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	events, err := eng.DB.Events(store.EventFilter{Action: store.ActionEdit})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d EDIT events, want 1", len(events))
	}
	enriched, err := eng.EnrichEvents(events)
	if err != nil {
		t.Fatalf("EnrichEvents: %v", err)
	}
	if enriched[0].Content != "final wording" {
		t.Errorf("EDIT content = %q, want the edited wording", enriched[0].Content)
	}
}
