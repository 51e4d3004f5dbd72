package vectorizer

import (
	"reflect"
	"testing"
)

func TestVectorize_DefiningMode(t *testing.T) {
	v := NewTermFrequency()

	vec, vocab := v.Vectorize("Alloy strength density alloy")

	wantVocab := []string{"alloy", "density", "strength"}
	if !reflect.DeepEqual(vocab, wantVocab) {
		t.Fatalf("expected vocabulary %v, got %v", wantVocab, vocab)
	}
	wantVec := []float64{2, 1, 1}
	if !reflect.DeepEqual(vec, wantVec) {
		t.Errorf("expected vector %v, got %v", wantVec, vec)
	}
}

func TestVectorizeWith_ExactLength(t *testing.T) {
	v := NewTermFrequency()
	vocab := []string{"alloy", "corrosion", "density", "strength"}

	vec := v.VectorizeWith("strength density unknownterm", vocab)

	if len(vec) != len(vocab) {
		t.Fatalf("expected length %d, got %d", len(vocab), len(vec))
	}
	want := []float64{0, 0, 1, 1}
	if !reflect.DeepEqual(vec, want) {
		t.Errorf("expected %v, got %v", want, vec)
	}
}

func TestVectorizeWith_EmptyVocabulary(t *testing.T) {
	v := NewTermFrequency()

	vec := v.VectorizeWith("anything at all", nil)
	if len(vec) != 0 {
		t.Errorf("expected empty vector for empty vocabulary, got %v", vec)
	}
}

func TestVectorize_Deterministic(t *testing.T) {
	v := NewTermFrequency()
	text := "density corrosion strength density"

	vec1, vocab1 := v.Vectorize(text)
	vec2, vocab2 := v.Vectorize(text)

	if !reflect.DeepEqual(vec1, vec2) || !reflect.DeepEqual(vocab1, vocab2) {
		t.Errorf("vectorizing the same text twice differed: %v/%v vs %v/%v", vec1, vocab1, vec2, vocab2)
	}

	proj1 := v.VectorizeWith(text, vocab1)
	proj2 := v.VectorizeWith(text, vocab1)
	if !reflect.DeepEqual(proj1, proj2) {
		t.Errorf("projection differed across calls: %v vs %v", proj1, proj2)
	}
}

func TestGrow_SortedUnion(t *testing.T) {
	v := NewTermFrequency()
	current := []string{"alloy", "density", "strength"}

	grown := v.Grow("density corrosion strength", current)

	want := []string{"alloy", "corrosion", "density", "strength"}
	if !reflect.DeepEqual(grown, want) {
		t.Errorf("expected %v, got %v", want, grown)
	}
}

func TestGrow_NoNewTerms(t *testing.T) {
	v := NewTermFrequency()
	current := []string{"alloy", "density", "strength"}

	grown := v.Grow("strength density", current)

	if !reflect.DeepEqual(grown, current) {
		t.Errorf("expected unchanged vocabulary %v, got %v", current, grown)
	}
}

func TestTokenize_LowercasesAndKeepsShortWords(t *testing.T) {
	v := NewTermFrequency()

	tokens := v.Tokenize("The Alloy a I x2")
	want := []string{"the", "alloy", "a", "i", "x2"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"ti-6al-4v", 3},
		{"123numbers456", 1},
		{"", 0},
		{"прочность сплава", 2},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}
