package search

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/memdocs-io/memdocs/domain/memory"
)

// Ensure VectorIndex implements the domain index.
var _ memory.Index = (*VectorIndex)(nil)

// VectorIndex stores embedding vectors in a flat in-memory arena backed
// by two companion files in the memory directory. Row positions are the
// ids: rows are only appended, so ids grow monotonically and are never
// reused until Rebuild compacts the arena and reassigns them.
//
// The file pair has no cross-process locking protocol. Two processes
// writing the same memory directory is undefined behavior; callers must
// serialize writes externally.
type VectorIndex struct {
	dir       string
	dimension int
	logger    *slog.Logger

	mu      sync.RWMutex
	vectors [][]float64
	entries []metadataEntry
}

// NewVectorIndex opens the index in dir, loading any persisted state.
// A missing file pair starts an empty index with the given dimension;
// an existing pair must match it.
func NewVectorIndex(dir string, dimension int, logger *slog.Logger) (*VectorIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension (%d) must be positive", dimension)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}

	idx := &VectorIndex{
		dir:       dir,
		dimension: dimension,
		logger:    logger,
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// load restores the vector arena and metadata side table from disk.
func (x *VectorIndex) load() error {
	arenaPath := filepath.Join(x.dir, IndexFileName)
	metaPath := filepath.Join(x.dir, MetadataFileName)

	dimension, vectors, err := readArena(arenaPath)
	if errors.Is(err, fs.ErrNotExist) {
		x.logger.Debug("starting empty vector index", "dir", x.dir, "dimension", x.dimension)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load vector arena: %w", err)
	}
	if dimension != x.dimension {
		return fmt.Errorf("index dimension %d does not match configured dimension %d", dimension, x.dimension)
	}

	entries, err := readMetadata(metaPath)
	if err != nil {
		return fmt.Errorf("load index metadata: %w", err)
	}
	if len(entries) != len(vectors) {
		return fmt.Errorf("metadata entries (%d) do not match vector rows (%d)", len(entries), len(vectors))
	}

	x.vectors = vectors
	x.entries = entries
	x.logger.Debug("loaded vector index",
		"dir", x.dir, "total", len(vectors), "active", x.activeLocked())
	return nil
}

// Add appends vectors with their documents and returns the assigned ids.
func (x *VectorIndex) Add(vectors [][]float64, docs []memory.Document) ([]int, error) {
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("vectors count (%d) does not match documents count (%d)", len(vectors), len(docs))
	}
	for i, vec := range vectors {
		if len(vec) != x.dimension {
			return nil, fmt.Errorf("vector %d dimension %d does not match index dimension %d", i, len(vec), x.dimension)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ids := make([]int, 0, len(vectors))
	for i, vec := range vectors {
		row := make([]float64, len(vec))
		copy(row, vec)

		ids = append(ids, len(x.vectors))
		x.vectors = append(x.vectors, row)
		x.entries = append(x.entries, entryFromDocument(docs[i]))
	}
	return ids, nil
}

// Search returns up to k live rows most similar to query, ordered by
// descending score. An empty index yields an empty result, not an error.
func (x *VectorIndex) Search(query []float64, k int) ([]memory.Result, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), x.dimension)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	candidates := make([]CandidateVector, 0, len(x.vectors))
	for id, vec := range x.vectors {
		if x.entries[id].Deleted {
			continue
		}
		candidates = append(candidates, NewCandidateVector(id, vec))
	}

	matches := TopKSimilar(query, candidates, k)
	results := make([]memory.Result, 0, len(matches))
	for _, m := range matches {
		doc := documentFromEntry(x.entries[m.ID()])
		results = append(results, memory.NewResult(m.ID(), m.Similarity(), doc))
	}
	return results, nil
}

// Remove tombstones the given ids. Unknown ids are ignored. The vectors
// stay in the arena until Rebuild.
func (x *VectorIndex) Remove(ids []int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, id := range ids {
		if id < 0 || id >= len(x.entries) {
			continue
		}
		x.entries[id].Deleted = true
	}
	return nil
}

// IDsByDocID returns the live ids whose document has the given doc id.
func (x *VectorIndex) IDsByDocID(docID string) []int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var ids []int
	for id, entry := range x.entries {
		if !entry.Deleted && entry.DocID == docID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Rebuild compacts tombstoned rows away, reassigns ids, and persists the
// compacted index. It returns the number of rows removed.
func (x *VectorIndex) Rebuild() (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := 0
	for _, entry := range x.entries {
		if !entry.Deleted {
			kept++
		}
	}
	removed := len(x.vectors) - kept
	if removed == 0 {
		return 0, x.saveLocked()
	}

	vectors := make([][]float64, 0, kept)
	entries := make([]metadataEntry, 0, kept)
	for id, entry := range x.entries {
		if entry.Deleted {
			continue
		}
		vectors = append(vectors, x.vectors[id])
		entries = append(entries, entry)
	}

	x.vectors = vectors
	x.entries = entries

	if err := x.saveLocked(); err != nil {
		return 0, err
	}
	x.logger.Info("rebuilt vector index", "removed", removed, "active", kept)
	return removed, nil
}

// Stats returns current index counts.
func (x *VectorIndex) Stats() memory.IndexStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	deleted := len(x.vectors) - x.activeLocked()
	return memory.NewIndexStats(len(x.vectors), deleted, x.dimension)
}

// Save persists the arena and metadata side table.
func (x *VectorIndex) Save() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.saveLocked()
}

func (x *VectorIndex) saveLocked() error {
	if err := writeArena(filepath.Join(x.dir, IndexFileName), x.dimension, x.vectors); err != nil {
		return err
	}
	return writeMetadata(filepath.Join(x.dir, MetadataFileName), x.entries)
}

func (x *VectorIndex) activeLocked() int {
	active := 0
	for _, entry := range x.entries {
		if !entry.Deleted {
			active++
		}
	}
	return active
}

// entryFromDocument converts a domain document to its on-disk form.
func entryFromDocument(doc memory.Document) metadataEntry {
	return metadataEntry{
		DocID:     doc.DocID(),
		ChunkText: doc.ChunkText(),
		Features:  doc.Features(),
		FilePaths: doc.FilePaths(),
		Timestamp: doc.Timestamp(),
	}
}

// documentFromEntry converts an on-disk entry back to a domain document.
func documentFromEntry(entry metadataEntry) memory.Document {
	return memory.NewDocument(entry.DocID, entry.ChunkText, entry.Features, entry.FilePaths, entry.Timestamp)
}
