package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memdocs-io/memdocs/application/service"
	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/chunking"
	"github.com/memdocs-io/memdocs/infrastructure/search"
)

const testDimension = 8

// stubEmbedder produces deterministic vectors without a model.
type stubEmbedder struct {
	available bool
	fail      bool
}

func (e *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	if e.fail {
		return nil, errors.New("model exploded")
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	if e.fail {
		return nil, errors.New("model exploded")
	}
	return e.vector(text), nil
}

func (e *stubEmbedder) Dimension() int  { return testDimension }
func (e *stubEmbedder) Available() bool { return e.available }

func (e *stubEmbedder) vector(text string) []float64 {
	vec := make([]float64, testDimension)
	for i, r := range text {
		vec[i%testDimension] += float64(r)
	}
	return vec
}

var _ memory.Embedder = (*stubEmbedder)(nil)

func newMemoryService(t *testing.T, embedder memory.Embedder) *service.MemoryService {
	t.Helper()
	chunker, err := chunking.NewTokenChunker(chunking.DefaultTokenParams())
	require.NoError(t, err)
	index, err := search.NewVectorIndex(t.TempDir(), testDimension, slog.Default())
	require.NoError(t, err)
	return service.NewMemoryService(chunker, embedder, index, slog.Default())
}

func testDocument(t *testing.T, commit string) docs.DocumentIndex {
	t.Helper()
	feature, err := docs.NewFeatureSummary(
		"feat-001", "Token refresh", "Added automatic token refresh on expiry.",
		nil, nil,
	)
	require.NoError(t, err)
	scope := review.NewScope(review.ScopeFile, []string{"src/auth.py"})
	return docs.NewDocumentIndex(
		commit,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		scope,
		[]docs.FeatureSummary{feature},
		docs.NewImpactSummary(nil, nil, 0, 0, false),
		docs.NewReferenceSummary(0, nil, []string{"src/auth.py"}, []string{commit}),
	)
}

func TestMemoryService_IndexDocument(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true})
	doc := testDocument(t, "abc1234")

	report, err := svc.IndexDocument(context.Background(), doc,
		"# Token refresh\n\nAdded automatic token refresh on expiry.")
	require.NoError(t, err)

	assert.True(t, report.Indexed)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.EmbeddingsGenerated)
	assert.Len(t, report.Indices, 1)

	stats := svc.Stats()
	assert.True(t, stats.Enabled())
	assert.Equal(t, 1, stats.Active())
}

func TestMemoryService_IndexDocumentDisabled(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: false})

	report, err := svc.IndexDocument(context.Background(), testDocument(t, "abc1234"), "some markdown")
	require.NoError(t, err)

	assert.False(t, report.Indexed)
	assert.Zero(t, report.Chunks)
}

func TestMemoryService_IndexDocumentEmptyMarkdown(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true})

	report, err := svc.IndexDocument(context.Background(), testDocument(t, "abc1234"), "   \n  ")
	require.NoError(t, err)
	assert.False(t, report.Indexed)
}

func TestMemoryService_IndexDocumentEmbedFailure(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true, fail: true})

	_, err := svc.IndexDocument(context.Background(), testDocument(t, "abc1234"), "markdown text")
	require.ErrorContains(t, err, "embed chunks")
}

func TestMemoryService_Query(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true})
	ctx := context.Background()

	_, err := svc.IndexDocument(ctx, testDocument(t, "abc1234"),
		"# Token refresh\n\nAdded automatic token refresh on expiry.")
	require.NoError(t, err)

	results, err := svc.Query(ctx, "token refresh", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abc1234", results[0].Document().DocID())
	assert.Contains(t, results[0].Document().Features(), "Token refresh")
}

func TestMemoryService_QueryDisabled(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: false})

	results, err := svc.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryService_QueryEmptyIndex(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true})

	results, err := svc.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryService_Forget(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true})
	ctx := context.Background()

	_, err := svc.IndexDocument(ctx, testDocument(t, "abc1234"), "markdown for abc1234")
	require.NoError(t, err)
	_, err = svc.IndexDocument(ctx, testDocument(t, "def5678"), "markdown for def5678")
	require.NoError(t, err)

	purged, err := svc.Forget([]string{"abc1234"})
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	stats := svc.Stats()
	assert.Equal(t, 1, stats.Total())
	assert.Equal(t, 1, stats.Active())

	results, err := svc.Query(ctx, "markdown", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "def5678", results[0].Document().DocID())
}

func TestMemoryService_ForgetUnknownDocID(t *testing.T) {
	svc := newMemoryService(t, &stubEmbedder{available: true})

	purged, err := svc.Forget([]string{"missing"})
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestMemoryService_StatsDisabled(t *testing.T) {
	svc := service.NewMemoryService(nil, nil, nil, slog.Default())

	stats := svc.Stats()
	assert.False(t, stats.Enabled())
	assert.Zero(t, stats.Total())
}
