package store

import (
	"fmt"
	"sort"

	"matsearch/internal/domain"
)

// padVector zero-pads a vector at the tail to the target length. Vectors
// already at the target length are returned unchanged.
func padVector(vec []float64, size int) []float64 {
	if len(vec) >= size {
		return vec
	}
	padded := make([]float64, size)
	copy(padded, vec)
	return padded
}

// mergeTerms returns the code-point-sorted union of two term sets. The
// result never drops a term from current, keeping the vocabulary monotonic.
func mergeTerms(current, candidate []string) []string {
	seen := make(map[string]struct{}, len(current)+len(candidate))
	merged := make([]string, 0, len(current)+len(candidate))
	for _, set := range [][]string{current, candidate} {
		for _, term := range set {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			merged = append(merged, term)
		}
	}
	sort.Strings(merged)
	return merged
}

// reprojectAll remaps every record's vector from the old vocabulary basis to
// the new one: each old term's weight moves to the term's index in the new
// vocabulary, positions of new terms take 0.0.
func reprojectAll(records map[string]domain.Record, oldVocab, newVocab []string, epoch uint64) map[string]domain.Record {
	newIndex := make(map[string]int, len(newVocab))
	for i, term := range newVocab {
		newIndex[term] = i
	}

	out := make(map[string]domain.Record, len(records))
	for id, rec := range records {
		vec := make([]float64, len(newVocab))
		for i, term := range oldVocab {
			if i < len(rec.Vector) {
				vec[newIndex[term]] = rec.Vector[i]
			}
		}
		rec.Vector = vec
		rec.Epoch = epoch
		out[id] = rec
	}
	return out
}

// verifyConsistency fails closed when any record's dimensionality or epoch
// disagrees with the collection's, so a half-grown vocabulary is never
// served to a ranker.
func verifyConsistency(records []domain.Record, size int, epoch uint64) error {
	for _, rec := range records {
		if len(rec.Vector) != size {
			return fmt.Errorf("%w: record %s has %d dimensions, vocabulary has %d",
				domain.ErrStorageIO, rec.ID, len(rec.Vector), size)
		}
		if rec.Epoch != epoch {
			return fmt.Errorf("%w: record %s is at vocabulary epoch %d, collection is at %d",
				domain.ErrStorageIO, rec.ID, rec.Epoch, epoch)
		}
	}
	return nil
}
