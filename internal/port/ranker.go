package port

import "matsearch/internal/domain"

// Ranker scores candidates against a query vector and returns the top k.
// Candidates whose vector length differs from the query are skipped, each
// adding a warning to the second return value. Pure function, no I/O.
type Ranker interface {
	Rank(query []float64, candidates []domain.Record, k int) ([]domain.Result, []string)
}
