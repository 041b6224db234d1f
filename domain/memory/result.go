package memory

// Result is a single semantic search hit: the vector id, its cosine
// similarity to the query, and the stored document metadata.
type Result struct {
	id       int
	score    float64
	document Document
}

// NewResult creates a Result.
func NewResult(id int, score float64, document Document) Result {
	return Result{id: id, score: score, document: document}
}

// ID returns the vector id of the hit.
func (r Result) ID() int { return r.id }

// Score returns the cosine similarity in [-1, 1]; higher is closer.
func (r Result) Score() float64 { return r.score }

// Document returns the stored metadata for the hit.
func (r Result) Document() Document { return r.document }
