package provider

import (
	"context"
	"fmt"

	"github.com/memdocs-io/memdocs/domain/memory"
)

// batchCapped is implemented by providers with a hard per-call batch limit.
type batchCapped interface {
	Capacity() int
}

// MemoryEmbedder adapts a provider Embedder to the domain memory.Embedder
// contract: batched document embedding, single-query embedding through the
// same model, and a capability flag resolved once at construction.
type MemoryEmbedder struct {
	inner     Embedder
	dimension int
	batchSize int
	available bool
}

// NewMemoryEmbedder creates a MemoryEmbedder over inner. The available flag
// is resolved by the caller once (model artifacts on disk, credentials
// configured) and cached here; it is never re-probed.
func NewMemoryEmbedder(inner Embedder, dimension, batchSize int, available bool) *MemoryEmbedder {
	if capped, ok := inner.(batchCapped); ok && batchSize > capped.Capacity() {
		batchSize = capped.Capacity()
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &MemoryEmbedder{
		inner:     inner,
		dimension: dimension,
		batchSize: batchSize,
		available: available,
	}
}

// DisabledEmbedder returns a MemoryEmbedder that reports unavailable.
// Callers treat it as "memory disabled" and never invoke the embed methods.
func DisabledEmbedder(dimension int) *MemoryEmbedder {
	return &MemoryEmbedder{dimension: dimension}
}

// Available reports whether the underlying model can run.
func (m *MemoryEmbedder) Available() bool { return m.available }

// Dimension returns the configured vector dimension.
func (m *MemoryEmbedder) Dimension() int { return m.dimension }

// EmbedDocuments embeds a batch of document chunks. Empty input returns an
// empty slice without invoking the model.
func (m *MemoryEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	if !m.available {
		return nil, fmt.Errorf("embedding provider not available")
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += m.batchSize {
		end := min(start+m.batchSize, len(texts))

		resp, err := m.inner.Embed(ctx, NewEmbeddingRequest(texts[start:end]))
		if err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}

		batch := resp.Embeddings()
		if len(batch) != end-start {
			return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(batch), end-start)
		}
		for _, vec := range batch {
			if err := m.checkDimension(vec); err != nil {
				return nil, err
			}
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string with the document model.
func (m *MemoryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if !m.available {
		return nil, fmt.Errorf("embedding provider not available")
	}

	resp, err := m.inner.Embed(ctx, NewEmbeddingRequest([]string{text}))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors := resp.Embeddings()
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for 1 text", len(vectors))
	}
	if err := m.checkDimension(vectors[0]); err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *MemoryEmbedder) checkDimension(vec []float64) error {
	if len(vec) != m.dimension {
		return fmt.Errorf("model returned vector of dimension %d, expected %d", len(vec), m.dimension)
	}
	return nil
}

var _ memory.Embedder = (*MemoryEmbedder)(nil)
