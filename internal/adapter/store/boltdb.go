package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"matsearch/internal/domain"
)

const schemaVersion = 1

var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")

	keyVocabulary    = []byte("vocabulary")
	keyEpoch         = []byte("epoch")
	keySchemaVersion = []byte("schema_version")
)

// storedRecord is the on-disk encoding of a record (the ID is the key).
type storedRecord struct {
	Text   string    `json:"text"`
	Source string    `json:"source,omitempty"`
	Vector []float64 `json:"vector"`
	Seq    uint64    `json:"seq"`
	Epoch  uint64    `json:"epoch"`
}

// BoltCollection is a bbolt-backed collection. All records are mirrored in
// memory for fast reads; every mutation runs as a single bbolt transaction
// so a crash never leaves a half-grown vocabulary on disk.
type BoltCollection struct {
	db *bbolt.DB
	mu sync.RWMutex

	records map[string]domain.Record
	vocab   []string
	epoch   uint64
}

// NewBoltCollection opens or creates the collection at the given path.
func NewBoltCollection(path string) (*BoltCollection, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open collection %s: %v", domain.ErrStorageIO, path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRecords, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if data := meta.Get(keySchemaVersion); data != nil {
			if v := binary.BigEndian.Uint64(data); v != schemaVersion {
				return fmt.Errorf("unsupported schema version %d (want %d)", v, schemaVersion)
			}
			return nil
		}
		return meta.Put(keySchemaVersion, encodeUint64(schemaVersion))
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init collection: %v", domain.ErrStorageIO, err)
	}

	c := &BoltCollection{
		db:      db,
		records: make(map[string]domain.Record),
	}
	if err := c.load(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// load reads the vocabulary, epoch, and all records into the memory mirror.
func (c *BoltCollection) load() error {
	err := c.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if data := meta.Get(keyVocabulary); data != nil {
			if err := json.Unmarshal(data, &c.vocab); err != nil {
				return fmt.Errorf("decode vocabulary: %w", err)
			}
		}
		if data := meta.Get(keyEpoch); data != nil {
			c.epoch = binary.BigEndian.Uint64(data)
		}

		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			c.records[string(k)] = domain.Record{
				ID:     string(k),
				Text:   stored.Text,
				Source: stored.Source,
				Vector: stored.Vector,
				Seq:    stored.Seq,
				Epoch:  stored.Epoch,
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("%w: load collection: %v", domain.ErrStorageIO, err)
	}
	return nil
}

// Upsert inserts or fully replaces the record for rec.ID.
func (c *BoltCollection) Upsert(rec domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(rec.Vector) > len(c.vocab) {
		return fmt.Errorf("upsert %s: vector has %d dimensions, vocabulary has %d: %w",
			rec.ID, len(rec.Vector), len(c.vocab), domain.ErrDimensionMismatch)
	}
	rec.Vector = padVector(rec.Vector, len(c.vocab))
	rec.Epoch = c.epoch

	// Replacement keeps the original insertion sequence; a fresh record gets
	// the next one inside the transaction regardless of what the caller set.
	rec.Seq = 0
	if existing, ok := c.records[rec.ID]; ok {
		rec.Seq = existing.Seq
	}

	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if rec.Seq == 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			rec.Seq = seq
		}
		data, err := json.Marshal(storedRecord{
			Text:   rec.Text,
			Source: rec.Source,
			Vector: rec.Vector,
			Seq:    rec.Seq,
			Epoch:  rec.Epoch,
		})
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStorageIO, rec.ID, err)
	}

	c.records[rec.ID] = rec
	return nil
}

// GrowVocabulary merges the candidate terms into the vocabulary and
// re-projects every stored vector in the same transaction.
func (c *BoltCollection) GrowVocabulary(candidate []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := mergeTerms(c.vocab, candidate)
	if len(merged) == len(c.vocab) {
		return nil
	}

	newEpoch := c.epoch + 1
	reprojected := reprojectAll(c.records, c.vocab, merged, newEpoch)

	err := c.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		vocabData, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		if err := meta.Put(keyVocabulary, vocabData); err != nil {
			return err
		}
		if err := meta.Put(keyEpoch, encodeUint64(newEpoch)); err != nil {
			return err
		}

		b := tx.Bucket(bucketRecords)
		for id, rec := range reprojected {
			data, err := json.Marshal(storedRecord{
				Text:   rec.Text,
				Source: rec.Source,
				Vector: rec.Vector,
				Seq:    rec.Seq,
				Epoch:  rec.Epoch,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: grow vocabulary: %v", domain.ErrStorageIO, err)
	}

	c.vocab = merged
	c.epoch = newEpoch
	c.records = reprojected
	return nil
}

// Get returns the record for the given id.
func (c *BoltCollection) Get(id string) (domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec, nil
}

// GetAll returns every record in ascending insertion order after verifying
// uniform dimensionality and epoch.
func (c *BoltCollection) GetAll() ([]domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]domain.Record, 0, len(c.records))
	for _, rec := range c.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})

	if err := verifyConsistency(records, len(c.vocab), c.epoch); err != nil {
		return nil, err
	}
	return records, nil
}

// Vocabulary returns a copy of the current terms and the epoch.
func (c *BoltCollection) Vocabulary() (domain.Vocabulary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	terms := make([]string, len(c.vocab))
	copy(terms, c.vocab)
	return domain.Vocabulary{Terms: terms, Epoch: c.epoch}, nil
}

// Count returns the number of stored records.
func (c *BoltCollection) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

// Persist fsyncs the database file. Every Update already commits durably,
// so this is a no-op safety valve and safe to call repeatedly.
func (c *BoltCollection) Persist() error {
	if err := c.db.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", domain.ErrStorageIO, err)
	}
	return nil
}

func (c *BoltCollection) Close() error {
	return c.db.Close()
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
