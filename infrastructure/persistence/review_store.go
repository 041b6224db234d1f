package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/internal/database"
)

// ReviewStore implements review.Store using GORM.
type ReviewStore struct {
	database.Repository[review.Review, ReviewModel]
	db database.Database
}

var _ review.Store = ReviewStore{}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(db database.Database) ReviewStore {
	return ReviewStore{
		Repository: database.NewRepository[review.Review, ReviewModel](db, ReviewMapper{}, "review"),
		db:         db,
	}
}

// Save persists a review run and returns it with its assigned ID.
func (s ReviewStore) Save(ctx context.Context, rev review.Review) (review.Review, error) {
	model := s.Mapper().ToModel(rev)

	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return review.Review{}, fmt.Errorf("save review: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// ByDocID returns the review run that produced the given document.
func (s ReviewStore) ByDocID(ctx context.Context, docID string) (review.Review, error) {
	return s.FindOne(ctx, database.NewQuery().Equal("doc_id", docID))
}

// Recent returns the most recent runs, newest first.
func (s ReviewStore) Recent(ctx context.Context, limit int) ([]review.Review, error) {
	q := database.NewQuery().OrderDesc("created_at").OrderDesc("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return s.Find(ctx, q)
}

// DeleteOlderThan removes runs created before the cutoff and returns the
// removed records. The read and the delete share one transaction so a row
// saved between them can neither be reported nor dropped.
func (s ReviewStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]review.Review, error) {
	q := database.NewQuery().LessThan("created_at", cutoff)

	return database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]review.Review, error) {
		var models []ReviewModel
		if result := q.Apply(tx.Model(&ReviewModel{})).Find(&models); result.Error != nil {
			return nil, fmt.Errorf("find review: %w", result.Error)
		}
		if len(models) == 0 {
			return []review.Review{}, nil
		}

		if result := q.Apply(tx).Delete(&ReviewModel{}); result.Error != nil {
			return nil, fmt.Errorf("delete review: %w", result.Error)
		}

		removed := make([]review.Review, len(models))
		for i, model := range models {
			removed[i] = s.Mapper().ToDomain(model)
		}
		return removed, nil
	})
}

// Count returns the total number of recorded runs.
func (s ReviewStore) Count(ctx context.Context) (int64, error) {
	return s.Repository.Count(ctx, database.NewQuery())
}
