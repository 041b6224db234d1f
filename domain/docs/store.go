package docs

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested document output does not exist.
var ErrNotFound = errors.New("document not found")

// Store persists and serves generated documentation outputs.
type Store interface {
	// WriteOutputs writes index.json, the per-document JSON, summary.md,
	// and symbols.yaml for a completed review.
	WriteOutputs(ctx context.Context, index DocumentIndex, markdown string, symbols []SymbolEntry) error

	// WriteGraph writes the memory graph.
	WriteGraph(ctx context.Context, graph MemoryGraph) error

	// LatestIndex returns the most recent document index.
	LatestIndex(ctx context.Context) (DocumentIndex, error)

	// DocumentByID returns the document index written for the given doc ID.
	DocumentByID(ctx context.Context, docID string) (DocumentIndex, error)

	// Summary returns the latest markdown summary.
	Summary(ctx context.Context) (string, error)

	// Symbols returns the symbol map, optionally filtered by file path.
	// An empty filter returns every entry.
	Symbols(ctx context.Context, filePath string) ([]SymbolEntry, error)

	// Graph returns the latest memory graph.
	Graph(ctx context.Context) (MemoryGraph, error)
}
