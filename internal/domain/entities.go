package domain

// Record is one ingested analysis text with its term-frequency vector.
// Records are replaced whole on re-ingestion, never mutated in place.
type Record struct {
	ID     string
	Text   string
	Source string
	Vector []float64

	// Seq is the insertion sequence assigned by the collection on first
	// insert and preserved across upserts. It defines candidate order and
	// result tie-breaking.
	Seq uint64

	// Epoch is the vocabulary epoch the vector conforms to. The collection
	// keeps it equal to the current epoch for every stored record.
	Epoch uint64
}

// Vocabulary is the ordered dimensional basis shared by all vectors in a
// collection: the code-point-sorted set of every term ever ingested.
type Vocabulary struct {
	Terms []string
	Epoch uint64
}

// Size returns the current vector dimensionality.
func (v Vocabulary) Size() int {
	return len(v.Terms)
}

// Result is one ranked answer to a query.
type Result struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
}

// IngestStats summarizes a batch ingestion run.
type IngestStats struct {
	Ingested int
	Failed   int
	NewTerms int
	Errors   []string
}
