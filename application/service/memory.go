package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/infrastructure/chunking"
	"github.com/memdocs-io/memdocs/internal/config"
)

// IndexReport describes what one IndexDocument call put into memory.
type IndexReport struct {
	// Indexed reports whether anything was written to the vector index.
	Indexed bool
	// Chunks is the number of chunks the markdown was split into.
	Chunks int
	// EmbeddingsGenerated is the number of vectors produced.
	EmbeddingsGenerated int
	// Indices are the vector index ids assigned to the chunks.
	Indices []int
}

// MemoryService maintains the semantic memory: it chunks review markdown,
// embeds the chunks, and serves similarity queries. When the embedder is
// unavailable the service is disabled and every operation degrades to a
// no-op rather than an error, so the review flow is never blocked by the
// optional memory feature.
type MemoryService struct {
	chunker  *chunking.TokenChunker
	embedder memory.Embedder
	index    memory.Index
	enabled  bool
	logger   *slog.Logger
}

// NewMemoryService creates a MemoryService. The enabled state is resolved
// once here from the embedder capability and never re-probed.
func NewMemoryService(chunker *chunking.TokenChunker, embedder memory.Embedder, index memory.Index, logger *slog.Logger) *MemoryService {
	if logger == nil {
		logger = slog.Default()
	}
	enabled := chunker != nil && index != nil && embedder != nil && embedder.Available()
	return &MemoryService{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		enabled:  enabled,
		logger:   logger,
	}
}

// Enabled reports whether semantic memory is available.
func (s *MemoryService) Enabled() bool { return s.enabled }

// IndexDocument chunks the review markdown, embeds the chunks, and inserts
// them into the vector index with document metadata. A disabled service
// returns {Indexed: false} with no error.
func (s *MemoryService) IndexDocument(ctx context.Context, doc docs.DocumentIndex, markdown string) (IndexReport, error) {
	if !s.enabled {
		return IndexReport{}, nil
	}

	chunks := s.chunker.Chunk(markdown)
	if len(chunks) == 0 {
		return IndexReport{}, nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return IndexReport{}, fmt.Errorf("embed chunks: %w", err)
	}

	documents := make([]memory.Document, len(chunks))
	for i, chunk := range chunks {
		documents[i] = memory.NewDocument(
			doc.DocID(),
			chunk,
			doc.FeatureTitles(),
			doc.Refs().FilesChanged(),
			doc.Timestamp(),
		)
	}

	ids, err := s.index.Add(vectors, documents)
	if err != nil {
		return IndexReport{}, fmt.Errorf("index chunks: %w", err)
	}
	if err := s.index.Save(); err != nil {
		return IndexReport{}, fmt.Errorf("save index: %w", err)
	}

	s.logger.Debug("indexed document",
		"doc_id", doc.DocID(),
		"chunks", len(chunks),
		"vectors", len(vectors),
	)

	return IndexReport{
		Indexed:             true,
		Chunks:              len(chunks),
		EmbeddingsGenerated: len(vectors),
		Indices:             ids,
	}, nil
}

// Query embeds the text and returns up to k results ranked by similarity.
// k defaults to config.DefaultQueryK when non-positive. A disabled service
// or an empty index returns an empty slice, never an error.
func (s *MemoryService) Query(ctx context.Context, text string, k int) ([]memory.Result, error) {
	if !s.enabled {
		return []memory.Result{}, nil
	}
	if k <= 0 {
		k = config.DefaultQueryK
	}
	if s.index.Stats().Active() == 0 {
		return []memory.Result{}, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.index.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}
	return results, nil
}

// Forget tombstones every chunk belonging to the given doc ids, compacts
// the index, and persists it. It returns the number of rows purged.
func (s *MemoryService) Forget(docIDs []string) (int, error) {
	if !s.enabled || len(docIDs) == 0 {
		return 0, nil
	}

	var ids []int
	for _, docID := range docIDs {
		ids = append(ids, s.index.IDsByDocID(docID)...)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.index.Remove(ids); err != nil {
		return 0, fmt.Errorf("remove chunks: %w", err)
	}
	removed, err := s.index.Rebuild()
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.index.Save(); err != nil {
		return 0, fmt.Errorf("save index: %w", err)
	}

	s.logger.Debug("forgot documents", "doc_ids", len(docIDs), "chunks_purged", removed)
	return removed, nil
}

// Stats returns memory statistics. Enabled is the cached construction-time
// capability.
func (s *MemoryService) Stats() memory.Stats {
	if !s.enabled {
		return memory.DisabledStats()
	}
	return memory.EnabledStats(s.index.Stats())
}
