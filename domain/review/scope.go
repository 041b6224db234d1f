// Package review provides domain types for change review: scope
// determination, extracted repository context, and run history.
package review

import "fmt"

// ScopeLevel is the breadth of a documentation update.
type ScopeLevel string

// Scope levels, narrowest to widest.
const (
	ScopeFile   ScopeLevel = "file"
	ScopeModule ScopeLevel = "module"
	ScopeRepo   ScopeLevel = "repo"
)

// ParseScopeLevel parses a scope level name.
func ParseScopeLevel(s string) (ScopeLevel, error) {
	switch ScopeLevel(s) {
	case ScopeFile, ScopeModule, ScopeRepo:
		return ScopeLevel(s), nil
	default:
		return "", fmt.Errorf("unknown scope level: %s", s)
	}
}

// String returns the level name.
func (l ScopeLevel) String() string { return string(l) }

// Widen returns the next wider level. Repo is already the widest.
func (l ScopeLevel) Widen() ScopeLevel {
	switch l {
	case ScopeFile:
		return ScopeModule
	case ScopeModule:
		return ScopeRepo
	default:
		return ScopeRepo
	}
}

// Scope is the immutable outcome of scope determination: which files a
// review covers and at what level.
type Scope struct {
	level            ScopeLevel
	files            []string
	escalated        bool
	escalationReason string
}

// NewScope creates a Scope over the given files.
func NewScope(level ScopeLevel, files []string) Scope {
	paths := make([]string, len(files))
	copy(paths, files)

	return Scope{
		level: level,
		files: paths,
	}
}

// Level returns the scope level.
func (s Scope) Level() ScopeLevel { return s.level }

// Files returns the file paths covered by the scope.
func (s Scope) Files() []string {
	paths := make([]string, len(s.files))
	copy(paths, s.files)
	return paths
}

// FileCount returns the number of files in scope.
func (s Scope) FileCount() int { return len(s.files) }

// Escalated reports whether an escalation trigger widened the scope.
func (s Scope) Escalated() bool { return s.escalated }

// EscalationReason returns the human-readable escalation reason, or ""
// when the scope was not escalated.
func (s Scope) EscalationReason() string { return s.escalationReason }

// WithEscalation returns a copy widened to level with the given reason.
func (s Scope) WithEscalation(level ScopeLevel, reason string) Scope {
	s.level = level
	s.escalated = true
	s.escalationReason = reason
	return s
}
