package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lazypower/engram/internal/scope"
	"github.com/lazypower/engram/internal/store"
)

// contextHeader opens every context block. The instructions teach the agent
// the store/tap loop; the memory lines that follow carry ids as HTML
// comments so taps can reference them.
const contextHeader = `<engram-context>
# Engram Memory System

When you learn something worth remembering about this project, store it:
` + "```bash" + `
engram add "<fact>" --scope "project:$PWD"
` + "```" + `

When an existing memory proves useful, record the use: ` + "`engram tap <id>`" + `.

Store: project conventions, user corrections, architecture decisions, gotchas.
Skip: obvious things from code, sensitive info, duplicates of existing memories.
`

// BuildContext renders the memories visible in the given scopes as a block
// suitable for injection at session start. Without scopes it covers global
// only. Memories visible through several scopes appear once.
func (e *Engine) BuildContext(scopes []scope.Scope) (string, error) {
	if len(scopes) == 0 {
		scopes = []scope.Scope{scope.Global}
	}

	seen := make(map[string]bool)
	var memories []store.Memory
	for _, sc := range scopes {
		sc := sc
		ms, err := e.DB.List(store.ListFilter{Scope: &sc})
		if err != nil {
			return "", err
		}
		for _, m := range ms {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			memories = append(memories, m)
		}
	}
	// Lists are per-scope creation-ordered; restore one global order.
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].CreatedAt < memories[j].CreatedAt
	})

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")
	if len(memories) == 0 {
		b.WriteString("No memories yet for this project.\n")
	} else {
		b.WriteString("## Current Memories\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "<!-- %s -->- %s\n", m.ID, m.Content)
		}
	}
	b.WriteString("</engram-context>\n")
	return b.String(), nil
}
