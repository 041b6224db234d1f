package review

import (
	"context"
	"time"
)

// Store defines operations for review run history persistence.
type Store interface {
	// Save persists a review run and returns it with its assigned ID.
	Save(ctx context.Context, rev Review) (Review, error)

	// ByDocID returns the review run that produced the given document.
	ByDocID(ctx context.Context, docID string) (Review, error)

	// Recent returns the most recent runs, newest first.
	Recent(ctx context.Context, limit int) ([]Review, error)

	// DeleteOlderThan removes runs created before the cutoff and returns
	// the removed records.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]Review, error)

	// Count returns the total number of recorded runs.
	Count(ctx context.Context) (int64, error)
}
