package usecase

import (
	"fmt"
	"strings"

	"matsearch/internal/adapter/cache"
	"matsearch/internal/domain"
	"matsearch/internal/port"
)

// QueryUseCase answers free-text queries: vectorize against the current
// vocabulary, load all candidates, rank by cosine similarity. No persisted
// side effects.
type QueryUseCase struct {
	collection port.Collection
	vectorizer port.Vectorizer
	ranker     port.Ranker
	cache      *cache.QueryCache // nil disables caching
}

// NewQueryUseCase creates a new query use case.
func NewQueryUseCase(collection port.Collection, vectorizer port.Vectorizer, ranker port.Ranker, queryCache *cache.QueryCache) *QueryUseCase {
	return &QueryUseCase{
		collection: collection,
		vectorizer: vectorizer,
		ranker:     ranker,
		cache:      queryCache,
	}
}

// QueryOutput is the ranked answer plus per-candidate warnings.
type QueryOutput struct {
	Results  []domain.Result
	Warnings []string
}

// Query returns the top-k records for the query text.
func (u *QueryUseCase) Query(text string, k int) (*QueryOutput, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text must not be blank: %w", domain.ErrInvalidInput)
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d: %w", k, domain.ErrInvalidInput)
	}

	vocab, err := u.collection.Vocabulary()
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	if u.cache != nil {
		if results, hit := u.cache.Get(text, k, vocab.Epoch); hit {
			return &QueryOutput{Results: results}, nil
		}
	}

	queryVector := u.vectorizer.VectorizeWith(text, vocab.Terms)

	candidates, err := u.collection.GetAll()
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	results, warnings := u.ranker.Rank(queryVector, candidates, k)

	if u.cache != nil && len(warnings) == 0 {
		u.cache.Put(text, k, vocab.Epoch, results)
	}

	return &QueryOutput{Results: results, Warnings: warnings}, nil
}
