package port

// Vectorizer turns text into term-frequency vectors. Implementations are
// stateless and deterministic: the vocabulary is always passed explicitly.
type Vectorizer interface {
	// Tokenize lowercases the text and splits it into word tokens.
	Tokenize(text string) []string

	// Vectorize computes a vector in vocabulary-defining mode: the returned
	// vocabulary is the code-point-sorted set of distinct tokens in the text
	// and the vector holds their frequencies in that order.
	Vectorize(text string) ([]float64, []string)

	// VectorizeWith computes a vector in projection mode: the result has
	// exactly len(vocab) positions holding each term's frequency in the
	// text. Input tokens outside the vocabulary are dropped.
	VectorizeWith(text string, vocab []string) []float64

	// Grow returns the sorted union of the current vocabulary and the
	// text's tokens, the candidate vocabulary for an ingestion.
	Grow(text string, current []string) []string
}
