package memory

// Index stores embedding vectors with per-vector document metadata and
// answers nearest-neighbour queries by cosine similarity. Removals are
// tombstones until Rebuild compacts the index.
type Index interface {
	// Add appends vectors with their documents and returns the assigned
	// ids. Vectors and docs must have equal length.
	Add(vectors [][]float64, docs []Document) ([]int, error)

	// Search returns up to k live rows most similar to query, ordered by
	// descending score.
	Search(query []float64, k int) ([]Result, error)

	// Remove tombstones the given ids. Unknown ids are ignored.
	Remove(ids []int) error

	// IDsByDocID returns the live ids whose document has the given doc id.
	IDsByDocID(docID string) []int

	// Rebuild compacts tombstoned rows away and reassigns ids. It returns
	// the number of rows removed.
	Rebuild() (int, error)

	// Stats returns current index counts.
	Stats() IndexStats

	// Save persists the index to its backing store.
	Save() error
}
