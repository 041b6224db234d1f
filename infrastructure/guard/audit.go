package guard

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditEvent is one JSON line in the audit log.
type auditEvent struct {
	Event      string           `json:"event"`
	DocID      string           `json:"doc_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Redactions []auditRedaction `json:"redactions"`
}

type auditRedaction struct {
	Type string `json:"type"`
}

const redactionEvent = "redaction_applied"

// AuditLog is an append-only JSON-lines record of redactions. Safe for
// concurrent use within one process.
type AuditLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewAuditLog creates an AuditLog writing to path. The parent directory is
// created on first write.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path, now: time.Now}
}

// RecordRedaction appends one event for a document, listing the type of
// every redaction applied to it. A call with no matches is still an event.
func (a *AuditLog) RecordRedaction(docID string, matches []Match) error {
	redactions := make([]auditRedaction, 0, len(matches))
	for _, m := range matches {
		redactions = append(redactions, auditRedaction{Type: m.Type()})
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	line, err := json.Marshal(auditEvent{
		Event:      redactionEvent,
		DocID:      docID,
		Timestamp:  a.now().UTC(),
		Redactions: redactions,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", a.path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// AuditSummary aggregates the audit log.
type AuditSummary struct {
	TotalEvents     int
	TotalRedactions int
	ByType          map[string]int
}

// Summary reads the whole audit log and aggregates it. A missing log file
// yields an empty summary.
func (a *AuditLog) Summary() (AuditSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := AuditSummary{ByType: make(map[string]int)}

	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return summary, nil
		}
		return AuditSummary{}, fmt.Errorf("open audit log %s: %w", a.path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event auditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		summary.TotalEvents++
		summary.TotalRedactions += len(event.Redactions)
		for _, r := range event.Redactions {
			summary.ByType[r.Type]++
		}
	}
	if err := scanner.Err(); err != nil {
		return AuditSummary{}, fmt.Errorf("read audit log: %w", err)
	}

	return summary, nil
}
