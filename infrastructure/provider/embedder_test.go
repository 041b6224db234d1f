package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns deterministic vectors and records batch sizes.
type stubEmbedder struct {
	dimension  int
	batchSizes []int
	failWith   error
}

func (s *stubEmbedder) Embed(_ context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	if s.failWith != nil {
		return EmbeddingResponse{}, s.failWith
	}
	texts := req.Texts()
	s.batchSizes = append(s.batchSizes, len(texts))

	vectors := make([][]float64, len(texts))
	for i := range texts {
		vec := make([]float64, s.dimension)
		vec[0] = float64(len(texts[i]))
		vectors[i] = vec
	}
	return NewEmbeddingResponse(vectors, NewUsage(0, 0, 0)), nil
}

func TestMemoryEmbedder_EmptyInputSkipsModel(t *testing.T) {
	stub := &stubEmbedder{dimension: 4}
	embedder := NewMemoryEmbedder(stub, 4, 8, true)

	vectors, err := embedder.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, stub.batchSizes, "empty input must not invoke the model")
}

func TestMemoryEmbedder_BatchesDocuments(t *testing.T) {
	stub := &stubEmbedder{dimension: 4}
	embedder := NewMemoryEmbedder(stub, 4, 2, true)

	texts := []string{"one", "two", "three", "four", "five"}
	vectors, err := embedder.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)

	assert.Len(t, vectors, 5)
	assert.Equal(t, []int{2, 2, 1}, stub.batchSizes)
	for _, vec := range vectors {
		assert.Len(t, vec, 4)
	}
}

func TestMemoryEmbedder_DimensionMismatchFails(t *testing.T) {
	stub := &stubEmbedder{dimension: 3}
	embedder := NewMemoryEmbedder(stub, 4, 8, true)

	_, err := embedder.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 4")
}

func TestMemoryEmbedder_EmbedQuery(t *testing.T) {
	stub := &stubEmbedder{dimension: 4}
	embedder := NewMemoryEmbedder(stub, 4, 8, true)

	vec, err := embedder.EmbedQuery(context.Background(), "query text")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestMemoryEmbedder_UnavailableRejectsCalls(t *testing.T) {
	embedder := DisabledEmbedder(384)

	assert.False(t, embedder.Available())
	assert.Equal(t, 384, embedder.Dimension())

	_, err := embedder.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	_, err = embedder.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
}

func TestMemoryEmbedder_PropagatesProviderError(t *testing.T) {
	boom := errors.New("model load failed")
	embedder := NewMemoryEmbedder(&stubEmbedder{dimension: 4, failWith: boom}, 4, 8, true)

	_, err := embedder.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestMemoryEmbedder_ClampsBatchToProviderCapacity(t *testing.T) {
	hugot := NewHugotEmbedding(t.TempDir())
	embedder := NewMemoryEmbedder(hugot, 384, 1000, false)

	assert.LessOrEqual(t, embedder.batchSize, hugot.Capacity())
}
