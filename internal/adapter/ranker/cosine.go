package ranker

import (
	"fmt"
	"math"
	"sort"

	"matsearch/internal/domain"
)

// epsilon keeps the cosine denominator non-zero so all-zero vectors score
// 0.0 instead of dividing by zero.
const epsilon = 1e-8

// Cosine ranks candidates by cosine similarity against a query vector using
// brute-force scoring.
type Cosine struct{}

// NewCosine creates a new cosine ranker.
func NewCosine() *Cosine {
	return &Cosine{}
}

// Rank scores every candidate and returns at most k results ordered by
// descending score, ties broken by insertion order. Candidates whose vector
// length differs from the query are skipped with a warning instead of
// failing the whole query.
func (r *Cosine) Rank(query []float64, candidates []domain.Record, k int) ([]domain.Result, []string) {
	var warnings []string

	scored := make([]domain.Result, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			warnings = append(warnings, fmt.Sprintf(
				"skipping %s: vector length %d does not match query length %d",
				c.ID, len(c.Vector), len(query)))
			continue
		}
		scored = append(scored, domain.Result{
			ID:     c.ID,
			Score:  cosineSimilarity(query, c.Vector),
			Text:   c.Text,
			Source: c.Source,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], warnings
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	return dotProduct / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}
