package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"matsearch/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
    id     TEXT PRIMARY KEY,
    seq    INTEGER NOT NULL UNIQUE,
    text   TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    epoch  INTEGER NOT NULL,
    vector BLOB
);

CREATE TABLE IF NOT EXISTS vocabulary (
    id    INTEGER PRIMARY KEY CHECK (id = 1),
    terms TEXT NOT NULL,
    epoch INTEGER NOT NULL
);

INSERT OR IGNORE INTO vocabulary (id, terms, epoch) VALUES (1, '[]', 0);
`

// SQLiteCollection is a pure-Go SQLite-backed collection. Vocabulary growth
// and upserts run in immediate transactions so readers never observe vectors
// of mixed dimensionality.
type SQLiteCollection struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCollection opens or creates the collection database at the given
// path.
func NewSQLiteCollection(path string) (*SQLiteCollection, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create collection directory: %v", domain.ErrStorageIO, err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open collection %s: %v", domain.ErrStorageIO, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping collection: %v", domain.ErrStorageIO, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate collection schema: %v", domain.ErrStorageIO, err)
	}

	return &SQLiteCollection{db: db}, nil
}

// Upsert inserts or fully replaces the record for rec.ID.
func (c *SQLiteCollection) Upsert(rec domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", domain.ErrStorageIO, err)
	}
	defer tx.Rollback()

	vocab, epoch, err := readVocabulary(tx)
	if err != nil {
		return err
	}

	if len(rec.Vector) > len(vocab) {
		return fmt.Errorf("upsert %s: vector has %d dimensions, vocabulary has %d: %w",
			rec.ID, len(rec.Vector), len(vocab), domain.ErrDimensionMismatch)
	}
	blob := encodeVector(padVector(rec.Vector, len(vocab)))

	var seq uint64
	err = tx.QueryRow(`SELECT seq FROM records WHERE id = ?`, rec.ID).Scan(&seq)
	switch {
	case err == nil:
		// Replacement keeps the original insertion sequence.
		_, err = tx.Exec(`UPDATE records SET text = ?, source = ?, epoch = ?, vector = ? WHERE id = ?`,
			rec.Text, rec.Source, epoch, blob, rec.ID)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.Exec(`INSERT INTO records (id, seq, text, source, epoch, vector)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM records), ?, ?, ?, ?)`,
			rec.ID, rec.Text, rec.Source, epoch, blob)
	default:
		return fmt.Errorf("%w: look up %s: %v", domain.ErrStorageIO, rec.ID, err)
	}
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStorageIO, rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", domain.ErrStorageIO, err)
	}
	return nil
}

// GrowVocabulary merges the candidate terms into the vocabulary and
// re-projects every stored vector in the same transaction.
func (c *SQLiteCollection) GrowVocabulary(candidate []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin vocabulary growth: %v", domain.ErrStorageIO, err)
	}
	defer tx.Rollback()

	vocab, epoch, err := readVocabulary(tx)
	if err != nil {
		return err
	}

	merged := mergeTerms(vocab, candidate)
	if len(merged) == len(vocab) {
		return nil
	}
	newEpoch := epoch + 1

	records, err := readRecords(tx)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	for id, rec := range reprojectAll(byID, vocab, merged, newEpoch) {
		if _, err := tx.Exec(`UPDATE records SET epoch = ?, vector = ? WHERE id = ?`,
			rec.Epoch, encodeVector(rec.Vector), id); err != nil {
			return fmt.Errorf("%w: re-project %s: %v", domain.ErrStorageIO, id, err)
		}
	}

	termsData, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("%w: encode vocabulary: %v", domain.ErrStorageIO, err)
	}
	if _, err := tx.Exec(`UPDATE vocabulary SET terms = ?, epoch = ? WHERE id = 1`,
		string(termsData), newEpoch); err != nil {
		return fmt.Errorf("%w: store vocabulary: %v", domain.ErrStorageIO, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit vocabulary growth: %v", domain.ErrStorageIO, err)
	}
	return nil
}

// Get returns the record for the given id.
func (c *SQLiteCollection) Get(id string) (domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var rec domain.Record
	var blob []byte
	err := c.db.QueryRow(`SELECT id, seq, text, source, epoch, vector FROM records WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Seq, &rec.Text, &rec.Source, &rec.Epoch, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: read %s: %v", domain.ErrStorageIO, id, err)
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: record %s: %v", domain.ErrStorageIO, id, err)
	}
	rec.Vector = vec
	return rec, nil
}

// GetAll returns every record in ascending insertion order after verifying
// uniform dimensionality and epoch.
func (c *SQLiteCollection) GetAll() ([]domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: begin read: %v", domain.ErrStorageIO, err)
	}
	defer tx.Rollback()

	vocab, epoch, err := readVocabulary(tx)
	if err != nil {
		return nil, err
	}
	records, err := readRecords(tx)
	if err != nil {
		return nil, err
	}

	if err := verifyConsistency(records, len(vocab), epoch); err != nil {
		return nil, err
	}
	return records, nil
}

// Vocabulary returns the current terms and epoch.
func (c *SQLiteCollection) Vocabulary() (domain.Vocabulary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tx, err := c.db.Begin()
	if err != nil {
		return domain.Vocabulary{}, fmt.Errorf("%w: begin read: %v", domain.ErrStorageIO, err)
	}
	defer tx.Rollback()

	terms, epoch, err := readVocabulary(tx)
	if err != nil {
		return domain.Vocabulary{}, err
	}
	return domain.Vocabulary{Terms: terms, Epoch: epoch}, nil
}

// Count returns the number of stored records.
func (c *SQLiteCollection) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count records: %v", domain.ErrStorageIO, err)
	}
	return count, nil
}

// Persist checkpoints the WAL. Committed transactions are already durable,
// so this is idempotent.
func (c *SQLiteCollection) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("%w: checkpoint: %v", domain.ErrStorageIO, err)
	}
	return nil
}

func (c *SQLiteCollection) Close() error {
	return c.db.Close()
}

func readVocabulary(tx *sql.Tx) ([]string, uint64, error) {
	var termsData string
	var epoch uint64
	if err := tx.QueryRow(`SELECT terms, epoch FROM vocabulary WHERE id = 1`).Scan(&termsData, &epoch); err != nil {
		return nil, 0, fmt.Errorf("%w: read vocabulary: %v", domain.ErrStorageIO, err)
	}
	var terms []string
	if err := json.Unmarshal([]byte(termsData), &terms); err != nil {
		return nil, 0, fmt.Errorf("%w: decode vocabulary: %v", domain.ErrStorageIO, err)
	}
	return terms, epoch, nil
}

func readRecords(tx *sql.Tx) ([]domain.Record, error) {
	rows, err := tx.Query(`SELECT id, seq, text, source, epoch, vector FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: read records: %v", domain.ErrStorageIO, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var blob []byte
		if err := rows.Scan(&rec.ID, &rec.Seq, &rec.Text, &rec.Source, &rec.Epoch, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", domain.ErrStorageIO, err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", domain.ErrStorageIO, rec.ID, err)
		}
		rec.Vector = vec
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %v", domain.ErrStorageIO, err)
	}
	return records, nil
}

// encodeVector encodes a vector as a little-endian sequence of IEEE 754
// float64 values; the length is derived from the blob size on decode.
func encodeVector(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

// decodeVector decodes a blob produced by encodeVector.
func decodeVector(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return []float64{}, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d (not multiple of 8)", len(b))
	}
	vec := make([]float64, len(b)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return vec, nil
}
