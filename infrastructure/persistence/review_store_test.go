package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/persistence"
	"github.com/memdocs-io/memdocs/internal/database"
	"github.com/memdocs-io/memdocs/internal/testdb"
)

func newReview(docID, commit string, level review.ScopeLevel, files int) review.Review {
	paths := make([]string, files)
	for i := range paths {
		paths[i] = "src/file.go"
	}
	scope := review.NewScope(level, paths)
	return review.NewReview(docID, commit, scope, 2, 8)
}

func TestReviewStore_SaveAssignsID(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, newReview("docs-20260301-abc1234", "abc1234", review.ScopeFile, 3))
	require.NoError(t, err)

	assert.NotZero(t, saved.ID())
	assert.Equal(t, "docs-20260301-abc1234", saved.DocID())
	assert.Equal(t, review.ScopeFile, saved.ScopeLevel())
	assert.Equal(t, 3, saved.FileCount())
	assert.Equal(t, 2, saved.FeatureCount())
	assert.Equal(t, 8, saved.ChunksIndexed())
}

func TestReviewStore_ByDocID(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	_, err := store.Save(ctx, newReview("docs-1", "abc1234", review.ScopeFile, 1))
	require.NoError(t, err)
	_, err = store.Save(ctx, newReview("docs-2", "def5678", review.ScopeModule, 12))
	require.NoError(t, err)

	found, err := store.ByDocID(ctx, "docs-2")
	require.NoError(t, err)
	assert.Equal(t, "def5678", found.Commit())
	assert.Equal(t, review.ScopeModule, found.ScopeLevel())
}

func TestReviewStore_ByDocIDNotFound(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)

	_, err := store.ByDocID(context.Background(), "docs-missing")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestReviewStore_EscalationRoundTrip(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	scope := review.NewScope(review.ScopeFile, []string{"internal/auth/token.go"}).
		WithEscalation(review.ScopeModule, "security-sensitive paths changed")
	rev := review.NewReview("docs-esc", "abc1234", scope, 1, 4)

	_, err := store.Save(ctx, rev)
	require.NoError(t, err)

	found, err := store.ByDocID(ctx, "docs-esc")
	require.NoError(t, err)
	assert.True(t, found.Escalated())
	assert.Equal(t, "security-sensitive paths changed", found.EscalationReason())
	assert.Equal(t, review.ScopeModule, found.ScopeLevel())
}

func TestReviewStore_RecentNewestFirst(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	for _, docID := range []string{"docs-a", "docs-b", "docs-c"} {
		_, err := store.Save(ctx, newReview(docID, "abc1234", review.ScopeFile, 1))
		require.NoError(t, err)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "docs-c", recent[0].DocID())
	assert.Equal(t, "docs-b", recent[1].DocID())
}

func TestReviewStore_RecentWithoutLimit(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	for _, docID := range []string{"docs-a", "docs-b"} {
		_, err := store.Save(ctx, newReview(docID, "abc1234", review.ScopeFile, 1))
		require.NoError(t, err)
	}

	recent, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestReviewStore_DeleteOlderThan(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	old := review.ReconstructReview(
		0, "docs-old", "abc1234", review.ScopeFile,
		1, false, "", 1, 2,
		time.Now().Add(-72*time.Hour),
	)
	_, err := store.Save(ctx, old)
	require.NoError(t, err)
	_, err = store.Save(ctx, newReview("docs-new", "def5678", review.ScopeFile, 1))
	require.NoError(t, err)

	removed, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "docs-old", removed[0].DocID())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.ByDocID(ctx, "docs-old")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestReviewStore_DeleteOlderThanReportsExactlyWhatItRemoves(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	for i, docID := range []string{"docs-old-1", "docs-old-2", "docs-old-3"} {
		rev := review.ReconstructReview(
			0, docID, "abc1234", review.ScopeFile,
			1, false, "", 1, 2,
			time.Now().Add(-time.Duration(48+i)*time.Hour),
		)
		_, err := store.Save(ctx, rev)
		require.NoError(t, err)
	}
	_, err := store.Save(ctx, newReview("docs-kept", "def5678", review.ScopeFile, 1))
	require.NoError(t, err)

	removed, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	removedIDs := make([]string, len(removed))
	for i, rec := range removed {
		removedIDs[i] = rec.DocID()
	}
	assert.ElementsMatch(t, []string{"docs-old-1", "docs-old-2", "docs-old-3"}, removedIDs)

	// Reported rows and deleted rows are the same set: nothing reported
	// survives, nothing surviving was reported.
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	for _, docID := range removedIDs {
		_, err := store.ByDocID(ctx, docID)
		require.ErrorIs(t, err, database.ErrNotFound)
	}
	_, err = store.ByDocID(ctx, "docs-kept")
	require.NoError(t, err)
}

func TestReviewStore_DeleteOlderThanNothingMatches(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	_, err := store.Save(ctx, newReview("docs-a", "abc1234", review.ScopeFile, 1))
	require.NoError(t, err)

	removed, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, removed)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReviewStore_Count(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewReviewStore(db)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	for _, docID := range []string{"docs-a", "docs-b", "docs-c"} {
		_, err := store.Save(ctx, newReview(docID, "abc1234", review.ScopeFile, 1))
		require.NoError(t, err)
	}

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestValidateSchema(t *testing.T) {
	db := testdb.New(t)
	require.NoError(t, persistence.ValidateSchema(context.Background(), db))
}
