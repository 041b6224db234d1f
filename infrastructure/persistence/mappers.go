package persistence

import (
	"github.com/memdocs-io/memdocs/domain/review"
)

// ReviewMapper maps between domain Review and persistence ReviewModel.
type ReviewMapper struct{}

// ToDomain converts a ReviewModel to a domain Review.
func (m ReviewMapper) ToDomain(e ReviewModel) review.Review {
	level, err := review.ParseScopeLevel(e.ScopeLevel)
	if err != nil {
		// Rows are only written through ToModel, so an unknown level means
		// manual database edits. Default rather than fail the read path.
		level = review.ScopeFile
	}

	return review.ReconstructReview(
		e.ID,
		e.DocID,
		e.Commit,
		level,
		e.FileCount,
		e.Escalated,
		e.EscalationReason,
		e.FeatureCount,
		e.ChunksIndexed,
		e.CreatedAt,
	)
}

// ToModel converts a domain Review to a ReviewModel.
func (m ReviewMapper) ToModel(r review.Review) ReviewModel {
	return ReviewModel{
		ID:               r.ID(),
		DocID:            r.DocID(),
		Commit:           r.Commit(),
		ScopeLevel:       r.ScopeLevel().String(),
		FileCount:        r.FileCount(),
		Escalated:        r.Escalated(),
		EscalationReason: r.EscalationReason(),
		FeatureCount:     r.FeatureCount(),
		ChunksIndexed:    r.ChunksIndexed(),
		CreatedAt:        r.CreatedAt(),
	}
}
