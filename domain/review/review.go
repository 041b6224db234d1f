package review

import "time"

// Review is one completed review run, as recorded in the catalog.
type Review struct {
	id               int64
	docID            string
	commit           string
	scopeLevel       ScopeLevel
	fileCount        int
	escalated        bool
	escalationReason string
	featureCount     int
	chunksIndexed    int
	createdAt        time.Time
}

// NewReview creates a catalog record for a completed run.
func NewReview(docID, commit string, scope Scope, featureCount, chunksIndexed int) Review {
	return Review{
		docID:            docID,
		commit:           commit,
		scopeLevel:       scope.Level(),
		fileCount:        scope.FileCount(),
		escalated:        scope.Escalated(),
		escalationReason: scope.EscalationReason(),
		featureCount:     featureCount,
		chunksIndexed:    chunksIndexed,
		createdAt:        time.Now(),
	}
}

// ReconstructReview reconstructs a Review from persistence.
func ReconstructReview(
	id int64,
	docID, commit string,
	scopeLevel ScopeLevel,
	fileCount int,
	escalated bool,
	escalationReason string,
	featureCount, chunksIndexed int,
	createdAt time.Time,
) Review {
	return Review{
		id:               id,
		docID:            docID,
		commit:           commit,
		scopeLevel:       scopeLevel,
		fileCount:        fileCount,
		escalated:        escalated,
		escalationReason: escalationReason,
		featureCount:     featureCount,
		chunksIndexed:    chunksIndexed,
		createdAt:        createdAt,
	}
}

// ID returns the catalog row ID.
func (r Review) ID() int64 { return r.id }

// DocID returns the generated document ID.
func (r Review) DocID() string { return r.docID }

// Commit returns the abbreviated commit hash reviewed.
func (r Review) Commit() string { return r.commit }

// ScopeLevel returns the level the review ran at.
func (r Review) ScopeLevel() ScopeLevel { return r.scopeLevel }

// FileCount returns the number of files in scope.
func (r Review) FileCount() int { return r.fileCount }

// Escalated reports whether the scope was escalated.
func (r Review) Escalated() bool { return r.escalated }

// EscalationReason returns the escalation reason, or "".
func (r Review) EscalationReason() string { return r.escalationReason }

// FeatureCount returns the number of features the summary produced.
func (r Review) FeatureCount() int { return r.featureCount }

// ChunksIndexed returns the number of chunks added to vector memory.
func (r Review) ChunksIndexed() int { return r.chunksIndexed }

// CreatedAt returns when the run completed.
func (r Review) CreatedAt() time.Time { return r.createdAt }
