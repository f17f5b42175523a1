package hooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/engram/internal/scope"
	"github.com/lazypower/engram/internal/store"
)

// captureStdout replaces os.Stdout with a pipe, runs fn, then returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// tempStore points ENGRAM_DB_PATH at a fresh file and returns an open handle
// for seeding. The handle is closed before the hook under test runs.
func tempStore(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engram.db")
	t.Setenv("ENGRAM_DB_PATH", path)

	db, err := store.Open(path, store.DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return db
}

func TestHandleStartInjectsContext(t *testing.T) {
	db := tempStore(t)
	proj, _ := scope.Project("/my/project")
	if _, err := db.Add("global fact", scope.Global); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := db.Add("project fact", proj); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := db.Add("other project fact", mustProject(t, "/elsewhere")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	db.Close()

	input := `{"session_id":"s-001","cwd":"/my/project","hook_event_name":"SessionStart"}`
	output := captureStdout(t, func() {
		Handle("start", strings.NewReader(input))
	})

	var parsed SessionStartOutput
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output)
	}
	if parsed.HookSpecificOutput.HookEventName != "SessionStart" {
		t.Errorf("hookEventName = %q, want SessionStart", parsed.HookSpecificOutput.HookEventName)
	}
	ctx := parsed.HookSpecificOutput.AdditionalContext
	if !strings.Contains(ctx, "global fact") || !strings.Contains(ctx, "project fact") {
		t.Errorf("context missing visible memories:\n%s", ctx)
	}
	if strings.Contains(ctx, "other project fact") {
		t.Errorf("context leaked another project's memory:\n%s", ctx)
	}
}

func TestHandleStartEmptyOnBadStdin(t *testing.T) {
	output := captureStdout(t, func() {
		Handle("start", strings.NewReader("not json"))
	})

	var parsed SessionStartOutput
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output)
	}
	if parsed.HookSpecificOutput.AdditionalContext != "" {
		t.Errorf("expected empty context, got %q", parsed.HookSpecificOutput.AdditionalContext)
	}
}

func TestHandleEndRunsGC(t *testing.T) {
	db := tempStore(t)

	old, err := db.Add("stale never-tapped note", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Age every row and event, then add a fresh memory so the stale one is
	// no longer the newest in its scope.
	aged := int64(1) // epoch; decades past any grace period
	if _, err := db.Exec("UPDATE memories SET created_at = ?", aged); err != nil {
		t.Fatalf("age memories: %v", err)
	}
	if _, err := db.Exec("UPDATE events SET timestamp = ?", aged); err != nil {
		t.Fatalf("age events: %v", err)
	}
	fresh, err := db.Add("fresh note", scope.Global)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	db.Close()

	handleEnd(&HookInput{SessionID: "s-002"})

	db, err = store.Open(os.Getenv("ENGRAM_DB_PATH"), store.DefaultOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if _, err := db.Get(old.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stale memory still present after end hook: %v", err)
	}
	if _, err := db.Get(fresh.ID); err != nil {
		t.Errorf("fresh memory gone after end hook: %v", err)
	}
}

func TestHookInputParsing(t *testing.T) {
	raw := `{
		"session_id": "abc123",
		"transcript_path": "/path/to/transcript.jsonl",
		"cwd": "/working/dir",
		"hook_event_name": "SessionStart",
		"source": "startup"
	}`

	var input HookInput
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if input.SessionID != "abc123" {
		t.Errorf("SessionID = %q, want abc123", input.SessionID)
	}
	if input.CWD != "/working/dir" {
		t.Errorf("CWD = %q", input.CWD)
	}
	if input.Source != "startup" {
		t.Errorf("Source = %q, want startup", input.Source)
	}
}

func TestSessionStartOutputFormat(t *testing.T) {
	output := captureStdout(t, func() {
		WriteSessionStartOutput("test context")
	})

	var parsed map[string]any
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	hookOutput, ok := parsed["hookSpecificOutput"].(map[string]any)
	if !ok {
		t.Fatal("missing hookSpecificOutput")
	}
	if hookOutput["hookEventName"] != "SessionStart" {
		t.Errorf("hookEventName = %v", hookOutput["hookEventName"])
	}
	if hookOutput["additionalContext"] != "test context" {
		t.Errorf("additionalContext = %v", hookOutput["additionalContext"])
	}
}

func mustProject(t *testing.T, path string) scope.Scope {
	t.Helper()
	s, err := scope.Project(path)
	if err != nil {
		t.Fatalf("Project(%s): %v", path, err)
	}
	return s
}
