// Package guard scrubs personally identifiable information and credentials
// from generated documentation before it is written or indexed.
package guard

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/memdocs-io/memdocs/internal/config"
)

// contextRadius is how many characters of surrounding text a Match keeps.
const contextRadius = 20

// Detector patterns, keyed by scrub type name.
var detectorPatterns = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+\w`),
	"phone": regexp.MustCompile(`\b(?:\+?1[-.\s])?(?:\(\d{3}\)\s?|\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`),
	"ssn":   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"api_key": regexp.MustCompile(
		`\bsk-[A-Za-z0-9_-]{8,}|\bAKIA[A-Z0-9]{16}\b|\bghp_[A-Za-z0-9]{20,}\b|(?i:\bbearer\s+[A-Za-z0-9._~+/-]{16,}=*)`),
	"ipv4": regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
}

// detectorOrder fixes the scan order so matches and audit counts are
// deterministic.
var detectorOrder = []string{"email", "phone", "ssn", "api_key", "ipv4"}

// Match is one detected piece of sensitive content.
type Match struct {
	matchType string
	value     string
	context   string
}

// Type returns the detector name that produced the match.
func (m Match) Type() string { return m.matchType }

// Value returns the matched text.
func (m Match) Value() string { return m.value }

// Context returns the matched text with surrounding characters.
func (m Match) Context() string { return m.context }

type detector struct {
	name string
	re   *regexp.Regexp
}

// Guard redacts sensitive content according to the configured privacy mode:
// strict runs every detector, standard runs the configured scrub types, off
// is a passthrough.
type Guard struct {
	mode      config.PrivacyMode
	detectors []detector
	audit     *AuditLog
	logger    *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithAuditLog attaches an audit log; every redaction is recorded to it.
func WithAuditLog(audit *AuditLog) Option {
	return func(g *Guard) {
		g.audit = audit
	}
}

// NewGuard creates a Guard from the privacy configuration.
func NewGuard(cfg config.PrivacyConfig, logger *slog.Logger, opts ...Option) (*Guard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Guard{
		mode:   cfg.Mode(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}

	var enabled map[string]bool
	switch cfg.Mode() {
	case config.PrivacyOff:
		return g, nil
	case config.PrivacyStrict:
		enabled = make(map[string]bool, len(detectorPatterns))
		for name := range detectorPatterns {
			enabled[name] = true
		}
	case config.PrivacyStandard:
		enabled = make(map[string]bool, len(cfg.ScrubTypes()))
		for _, name := range cfg.ScrubTypes() {
			if _, ok := detectorPatterns[name]; !ok {
				return nil, fmt.Errorf("unknown scrub type: %s", name)
			}
			enabled[name] = true
		}
	default:
		return nil, fmt.Errorf("unknown privacy mode: %s", cfg.Mode())
	}

	for _, name := range detectorOrder {
		if enabled[name] {
			g.detectors = append(g.detectors, detector{name: name, re: detectorPatterns[name]})
		}
	}

	return g, nil
}

// Scan returns every sensitive match in text without modifying it.
func (g *Guard) Scan(text string) []Match {
	var matches []Match
	for _, d := range g.detectors {
		for _, loc := range d.re.FindAllStringIndex(text, -1) {
			matches = append(matches, newMatch(text, d.name, loc[0], loc[1]))
		}
	}
	return matches
}

// Redact replaces every sensitive match with a [REDACTED:TYPE] token and
// returns the matches that were replaced. Newlines are never touched, so
// line counts survive redaction.
func (g *Guard) Redact(text string) (string, []Match) {
	matches := g.Scan(text)
	redacted := text
	for _, d := range g.detectors {
		redacted = d.re.ReplaceAllString(redacted, "[REDACTED:"+strings.ToUpper(d.name)+"]")
	}
	return redacted, matches
}

// RedactDocument redacts text and records the outcome in the audit log
// under the given document id.
func (g *Guard) RedactDocument(docID, text string) (string, []Match, error) {
	redacted, matches := g.Redact(text)
	if g.audit != nil {
		if err := g.audit.RecordRedaction(docID, matches); err != nil {
			return "", nil, fmt.Errorf("audit redaction: %w", err)
		}
	}
	if len(matches) > 0 {
		g.logger.Info("redacted sensitive content", "doc_id", docID, "matches", len(matches))
	}
	return redacted, matches, nil
}

// ValidateContent reports whether text is free of sensitive content, with
// one problem description per detector that fired.
func (g *Guard) ValidateContent(text string) (bool, []string) {
	counts := make(map[string]int)
	for _, m := range g.Scan(text) {
		counts[m.Type()]++
	}
	if len(counts) == 0 {
		return true, nil
	}

	var problems []string
	for _, name := range detectorOrder {
		if n := counts[name]; n > 0 {
			problems = append(problems, fmt.Sprintf("found %d %s value(s)", n, name))
		}
	}
	return false, problems
}

// Mode returns the privacy mode the guard runs in.
func (g *Guard) Mode() config.PrivacyMode { return g.mode }

func newMatch(text, name string, start, end int) Match {
	ctxStart := start - contextRadius
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + contextRadius
	if ctxEnd > len(text) {
		ctxEnd = len(text)
	}
	return Match{
		matchType: name,
		value:     text[start:end],
		context:   text[ctxStart:ctxEnd],
	}
}
