package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"matsearch/internal/adapter/fs"
	"matsearch/internal/domain"
	"matsearch/internal/port"
)

// IngestUseCase turns analysis text into records: grow the vocabulary with
// the text's new terms, then upsert the record vectorized against the final
// vocabulary.
type IngestUseCase struct {
	collection port.Collection
	vectorizer port.Vectorizer
	walker     port.FileWalker

	// mu serializes whole grow+upsert pairs so concurrent ingestions cannot
	// interleave between vocabulary growth and the record write.
	mu sync.Mutex
}

// NewIngestUseCase creates a new ingest use case. The walker may be nil when
// only single-text ingestion is needed.
func NewIngestUseCase(collection port.Collection, vectorizer port.Vectorizer, walker port.FileWalker) *IngestUseCase {
	return &IngestUseCase{
		collection: collection,
		vectorizer: vectorizer,
		walker:     walker,
	}
}

// Ingest vectorizes the text against the grown vocabulary and upserts the
// record. A failure before vocabulary growth leaves no visible state; a
// failure after growth is reported without rolling the growth back, and the
// caller re-submits the document.
func (u *IngestUseCase) Ingest(id, text, source string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id must not be empty: %w", domain.ErrInvalidInput)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	vocab, err := u.collection.Vocabulary()
	if err != nil {
		return fmt.Errorf("read vocabulary: %w", err)
	}

	candidate := u.vectorizer.Grow(text, vocab.Terms)
	if len(candidate) != len(vocab.Terms) {
		if err := u.collection.GrowVocabulary(candidate); err != nil {
			return fmt.Errorf("grow vocabulary for %s: %w", id, err)
		}
	}

	// Under the mutex the merged vocabulary equals the candidate, so the
	// vector can be computed against it directly.
	vector := u.vectorizer.VectorizeWith(text, candidate)

	if err := u.collection.Upsert(domain.Record{
		ID:     id,
		Text:   text,
		Source: source,
		Vector: vector,
	}); err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}

// IngestFile ingests one file. The default ID is the file name without its
// extension (a stable identifier, unlike a content hash); the default source
// is the path. Both can be overridden.
func (u *IngestUseCase) IngestFile(path, id, source string) error {
	text, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if id == "" {
		base := filepath.Base(path)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if source == "" {
		source = path
	}
	return u.Ingest(id, text, source)
}

// ProgressFunc reports batch-ingestion progress to the caller.
type ProgressFunc func(done, total int, current string)

// IngestDir walks the root with the configured globs and ingests every
// match. Per-file failures are collected instead of aborting the batch.
func (u *IngestUseCase) IngestDir(root string, progress ProgressFunc) (*domain.IngestStats, error) {
	if u.walker == nil {
		return nil, fmt.Errorf("directory ingestion requires a file walker: %w", domain.ErrInvalidInput)
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	before, err := u.collection.Vocabulary()
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	stats := &domain.IngestStats{}
	for i, f := range files {
		if progress != nil {
			progress(i, len(files), f.Path)
		}
		if err := u.IngestFile(f.Path, "", ""); err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		stats.Ingested++
	}
	if progress != nil {
		progress(len(files), len(files), "")
	}

	after, err := u.collection.Vocabulary()
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	stats.NewTerms = len(after.Terms) - len(before.Terms)

	if err := u.collection.Persist(); err != nil {
		return nil, fmt.Errorf("persist collection: %w", err)
	}
	return stats, nil
}
