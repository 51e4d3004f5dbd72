package port

import "matsearch/internal/domain"

// Collection is a durable store of records sharing one growing vocabulary.
// Implementations must never let a reader observe vectors of mixed
// dimensionality: vocabulary growth and the re-projection of stored vectors
// happen in a single atomic transaction.
type Collection interface {
	// Upsert inserts or fully replaces the record for rec.ID. A vector
	// shorter than the current vocabulary is zero-padded at the tail; a
	// longer one fails with domain.ErrDimensionMismatch. First insert
	// assigns the next sequence number; replacement keeps the original.
	Upsert(rec domain.Record) error

	// GrowVocabulary merges the candidate terms into the stored vocabulary.
	// If the union adds terms, the epoch increments and every stored vector
	// is re-projected to the new basis in the same transaction. A union
	// that adds nothing is a no-op.
	GrowVocabulary(candidate []string) error

	// Get returns the record for the given id, or domain.ErrNotFound.
	Get(id string) (domain.Record, error)

	// GetAll returns every record in ascending insertion order, verifying
	// uniform dimensionality and epoch first (fails closed with
	// domain.ErrStorageIO on any inconsistency).
	GetAll() ([]domain.Record, error)

	// Vocabulary returns the current terms and epoch.
	Vocabulary() (domain.Vocabulary, error)

	// Count returns the number of stored records.
	Count() (int, error)

	// Persist flushes state to durable media. Idempotent.
	Persist() error

	Close() error
}
