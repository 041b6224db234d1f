// Package search implements the persistent vector memory: a flat cosine
// similarity index over fixed-dimension vectors with a JSON metadata
// side table and soft-delete semantics.
package search

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(magA) * math.Sqrt(magB))
}

// SimilarityMatch holds a row id and its similarity score.
type SimilarityMatch struct {
	id         int
	similarity float64
}

// NewSimilarityMatch creates a SimilarityMatch.
func NewSimilarityMatch(id int, similarity float64) SimilarityMatch {
	return SimilarityMatch{
		id:         id,
		similarity: similarity,
	}
}

// ID returns the row identifier.
func (m SimilarityMatch) ID() int { return m.id }

// Similarity returns the similarity score.
func (m SimilarityMatch) Similarity() float64 { return m.similarity }

// CandidateVector is a row offered to top-k selection.
type CandidateVector struct {
	id        int
	embedding []float64
}

// NewCandidateVector creates a CandidateVector. The embedding is not
// copied; callers own the slice.
func NewCandidateVector(id int, embedding []float64) CandidateVector {
	return CandidateVector{
		id:        id,
		embedding: embedding,
	}
}

// TopKSimilar finds the k candidates most similar to the query.
// Returns results sorted by similarity in descending order.
func TopKSimilar(query []float64, candidates []CandidateVector, k int) []SimilarityMatch {
	if len(candidates) == 0 || k <= 0 {
		return []SimilarityMatch{}
	}

	matches := make([]SimilarityMatch, 0, len(candidates))
	for _, c := range candidates {
		similarity := CosineSimilarity(query, c.embedding)
		matches = append(matches, NewSimilarityMatch(c.id, similarity))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
