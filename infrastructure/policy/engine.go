// Package policy determines how much of a repository a review covers and
// whether the scope must be escalated.
package policy

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/internal/config"
)

// Marker tokens that flag a symbol signature as public API surface.
var publicAPIMarkers = []string{"export", "public"}

// Engine applies scope rules to extracted repository context. The file
// count ceiling is the only hard guard; level determination and
// escalation never fail.
type Engine struct {
	config config.PolicyConfig
}

// NewEngine creates an Engine with the given policy configuration.
func NewEngine(cfg config.PolicyConfig) *Engine {
	return &Engine{config: cfg}
}

// DetermineScope computes the scope for a review. The level starts from
// how the changed files are distributed across directories, then the
// configured escalation triggers may widen it by one level. It returns
// an error when the context holds more files than the configured
// ceiling and force is not set.
func (e *Engine) DetermineScope(requested []string, extracted review.ExtractedContext, force bool) (review.Scope, error) {
	files := extracted.FilePaths()

	if len(files) > e.config.MaxFiles() && !force {
		return review.Scope{}, fmt.Errorf(
			"file count %d exceeds limit %d (use --force to override)",
			len(files), e.config.MaxFiles(),
		)
	}

	scope := review.NewScope(e.determineLevel(requested, files), files)
	return e.escalate(scope, extracted), nil
}

// ValidateScope returns advisory warnings for a scope. It never fails
// and has no side effects.
func (e *Engine) ValidateScope(scope review.Scope) []string {
	var warnings []string
	if scope.Level() == review.ScopeRepo && scope.FileCount() > config.DefaultRepoWarnFileCount {
		warnings = append(warnings, fmt.Sprintf(
			"repo-level review of %d files may be slow", scope.FileCount(),
		))
	}
	return warnings
}

// determineLevel picks the narrowest level that covers the changed files.
func (e *Engine) determineLevel(requested, files []string) review.ScopeLevel {
	for _, p := range requested {
		if p == "." || p == "./" {
			return review.ScopeRepo
		}
	}

	if len(files) <= 1 {
		return review.ScopeFile
	}
	if len(topLevelDirs(files)) > 1 {
		return review.ScopeRepo
	}
	return review.ScopeModule
}

// escalate applies the configured triggers in order; the first match
// widens the scope one level and sets the reason.
func (e *Engine) escalate(scope review.Scope, extracted review.ExtractedContext) review.Scope {
	for _, trigger := range e.config.EscalateOn() {
		switch trigger {
		case config.TriggerSecurityPaths:
			if e.touchesSecurityPaths(extracted) {
				return scope.WithEscalation(scope.Level().Widen(), "changes touch security-sensitive paths")
			}
		case config.TriggerCrossModule:
			if dirs := topLevelDirs(extracted.FilePaths()); len(dirs) > 1 {
				return scope.WithEscalation(scope.Level().Widen(),
					fmt.Sprintf("changes span %d modules", len(dirs)))
			}
		case config.TriggerPublicAPI:
			if e.modifiesPublicAPI(extracted) {
				return scope.WithEscalation(scope.Level().Widen(), "changes modify public API signatures")
			}
		}
	}
	return scope
}

// touchesSecurityPaths reports whether any extracted file matches a
// configured security path pattern.
func (e *Engine) touchesSecurityPaths(extracted review.ExtractedContext) bool {
	for _, path := range extracted.FilePaths() {
		for _, pattern := range e.config.SecurityPaths() {
			if matchesPathPattern(pattern, path) {
				return true
			}
		}
	}
	return false
}

// modifiesPublicAPI reports whether any extracted symbol signature
// carries a public API marker.
func (e *Engine) modifiesPublicAPI(extracted review.ExtractedContext) bool {
	for _, file := range extracted.Files() {
		for _, sym := range file.Symbols() {
			signature := strings.ToLower(sym.Signature())
			for _, marker := range publicAPIMarkers {
				if strings.Contains(signature, marker) {
					return true
				}
			}
		}
	}
	return false
}

// matchesPathPattern matches a path against a glob pattern. A leading
// "**/" and trailing "/**" are stripped so that directory patterns like
// "**/auth/**" match any path with an "auth" segment. The remaining
// core is matched against the full path and against each segment.
func matchesPathPattern(pattern, path string) bool {
	core := strings.TrimPrefix(pattern, "**/")
	core = strings.TrimSuffix(core, "/**")
	path = filepath.ToSlash(path)

	if matched, err := filepath.Match(core, path); err == nil && matched {
		return true
	}
	for _, part := range strings.Split(path, "/") {
		if matched, err := filepath.Match(core, part); err == nil && matched {
			return true
		}
	}
	return false
}

// topLevelDirs returns the distinct first path segments of the given
// paths. A file at the repository root counts as its own segment.
func topLevelDirs(paths []string) map[string]struct{} {
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = filepath.ToSlash(p)
		if idx := strings.IndexByte(p, '/'); idx >= 0 {
			p = p[:idx]
		}
		dirs[p] = struct{}{}
	}
	return dirs
}
