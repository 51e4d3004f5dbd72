package vectorizer

import (
	"sort"
	"strings"
	"unicode"
)

// TermFrequency converts text into term-frequency vectors over an explicit
// vocabulary. It holds no state: identical input and vocabulary always yield
// identical output. Tokens are kept verbatim after lowercasing; no stemming,
// stopword removal, or length filtering, so exact frequencies are preserved.
type TermFrequency struct{}

// NewTermFrequency creates a new TermFrequency vectorizer.
func NewTermFrequency() *TermFrequency {
	return &TermFrequency{}
}

// Tokenize lowercases the text and splits it on unicode word boundaries.
func (v *TermFrequency) Tokenize(text string) []string {
	return splitWords(strings.ToLower(text))
}

// Vectorize computes a vector in vocabulary-defining mode: the vocabulary is
// the code-point-sorted set of distinct tokens, the vector their counts.
func (v *TermFrequency) Vectorize(text string) ([]float64, []string) {
	counts := v.termCounts(text)

	vocab := make([]string, 0, len(counts))
	for term := range counts {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	vec := make([]float64, len(vocab))
	for i, term := range vocab {
		vec[i] = float64(counts[term])
	}
	return vec, vocab
}

// VectorizeWith computes a vector in projection mode. The result has exactly
// len(vocab) positions; tokens outside the vocabulary are dropped.
func (v *TermFrequency) VectorizeWith(text string, vocab []string) []float64 {
	counts := v.termCounts(text)

	vec := make([]float64, len(vocab))
	for i, term := range vocab {
		vec[i] = float64(counts[term])
	}
	return vec
}

// Grow returns the sorted union of the current vocabulary and the text's
// distinct tokens.
func (v *TermFrequency) Grow(text string, current []string) []string {
	seen := make(map[string]struct{}, len(current))
	union := make([]string, 0, len(current))
	for _, term := range current {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		union = append(union, term)
	}

	for _, token := range v.Tokenize(text) {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		union = append(union, token)
	}

	sort.Strings(union)
	return union
}

func (v *TermFrequency) termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range v.Tokenize(text) {
		counts[token]++
	}
	return counts
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
