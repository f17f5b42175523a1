// Package scope defines the visibility partition of a memory: either
// global or bound to a single project directory. Raw scope strings are
// parsed exactly once at the boundary; everything past that point works
// with the typed value.
package scope

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidScope is returned for scope strings that are neither "global"
// nor "project:<absolute path>".
var ErrInvalidScope = errors.New("invalid scope")

const projectPrefix = "project:"

type kind int

const (
	kindGlobal kind = iota
	kindProject
)

// Scope is a closed variant: Global or Project(path). The zero value is Global.
type Scope struct {
	kind kind
	path string
}

// Global is the scope shared by every project context.
var Global = Scope{}

// Project returns a project scope for the given directory. The path must be
// absolute; it is cleaned so equivalent spellings compare equal.
func Project(path string) (Scope, error) {
	if path == "" {
		return Scope{}, fmt.Errorf("empty project path: %w", ErrInvalidScope)
	}
	if !filepath.IsAbs(path) {
		return Scope{}, fmt.Errorf("project path %q is not absolute: %w", path, ErrInvalidScope)
	}
	return Scope{kind: kindProject, path: filepath.Clean(path)}, nil
}

// Parse resolves a raw scope string: "global" or "project:<path>".
// Anything else is ErrInvalidScope.
func Parse(raw string) (Scope, error) {
	if raw == "global" {
		return Global, nil
	}
	if strings.HasPrefix(raw, projectPrefix) {
		return Project(raw[len(projectPrefix):])
	}
	return Scope{}, fmt.Errorf("scope %q: %w", raw, ErrInvalidScope)
}

// String returns the storage form: "global" or "project:<path>".
func (s Scope) String() string {
	if s.kind == kindProject {
		return projectPrefix + s.path
	}
	return "global"
}

// IsGlobal reports whether this is the global scope.
func (s Scope) IsGlobal() bool {
	return s.kind == kindGlobal
}

// Path returns the project directory, or "" for the global scope.
func (s Scope) Path() string {
	return s.path
}

// VisibleIn reports whether a record with this scope is visible to a query
// filtered by the given scope. Global records are visible in every project
// context; project records are visible only under their exact path.
func (s Scope) VisibleIn(query Scope) bool {
	return s == query || s.kind == kindGlobal
}
