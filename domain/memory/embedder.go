// Package memory provides domain types for the semantic memory subsystem:
// embeddings, indexed documents, and search results.
package memory

import "context"

// Embedder converts text into fixed-dimension embedding vectors. Documents
// and queries must be embedded by the same model so their vectors share one
// space.
type Embedder interface {
	// EmbedDocuments embeds a batch of document chunks. Empty input
	// returns an empty slice without invoking the model.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// Dimension returns the number of components in every vector the
	// embedder produces.
	Dimension() int

	// Available reports whether the embedder can run. Resolved once at
	// construction; callers treat false as "memory disabled", never as
	// an error.
	Available() bool
}
