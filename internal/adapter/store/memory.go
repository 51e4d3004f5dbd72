package store

import (
	"fmt"
	"sort"
	"sync"

	"matsearch/internal/domain"
)

// MemoryCollection is an in-process collection for tests and ephemeral runs.
// It follows the same semantics as the durable backends; Persist is a no-op.
type MemoryCollection struct {
	mu      sync.RWMutex
	records map[string]domain.Record
	vocab   []string
	epoch   uint64
	nextSeq uint64
}

// NewMemoryCollection creates an empty in-memory collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{
		records: make(map[string]domain.Record),
	}
}

func (c *MemoryCollection) Upsert(rec domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(rec.Vector) > len(c.vocab) {
		return fmt.Errorf("upsert %s: vector has %d dimensions, vocabulary has %d: %w",
			rec.ID, len(rec.Vector), len(c.vocab), domain.ErrDimensionMismatch)
	}
	rec.Vector = padVector(rec.Vector, len(c.vocab))
	rec.Epoch = c.epoch

	if existing, ok := c.records[rec.ID]; ok {
		rec.Seq = existing.Seq
	} else {
		c.nextSeq++
		rec.Seq = c.nextSeq
	}

	c.records[rec.ID] = rec
	return nil
}

func (c *MemoryCollection) GrowVocabulary(candidate []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := mergeTerms(c.vocab, candidate)
	if len(merged) == len(c.vocab) {
		return nil
	}

	c.epoch++
	c.records = reprojectAll(c.records, c.vocab, merged, c.epoch)
	c.vocab = merged
	return nil
}

func (c *MemoryCollection) Get(id string) (domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec, nil
}

func (c *MemoryCollection) GetAll() ([]domain.Record, error) {
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

func (c *MemoryCollection) Vocabulary() (domain.Vocabulary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	terms := make([]string, len(c.vocab))
	copy(terms, c.vocab)
	return domain.Vocabulary{Terms: terms, Epoch: c.epoch}, nil
}

func (c *MemoryCollection) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func (c *MemoryCollection) Persist() error {
	return nil
}

func (c *MemoryCollection) Close() error {
	return nil
}
