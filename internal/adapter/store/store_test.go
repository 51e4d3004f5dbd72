package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"matsearch/internal/domain"
	"matsearch/internal/port"
)

// backends returns a constructor per backend so every backend runs the same
// contract tests.
func backends(t *testing.T) map[string]func(t *testing.T) port.Collection {
	return map[string]func(t *testing.T) port.Collection{
		"memory": func(t *testing.T) port.Collection {
			return NewMemoryCollection()
		},
		"bolt": func(t *testing.T) port.Collection {
			c, err := NewBoltCollection(filepath.Join(t.TempDir(), "collection.db"))
			if err != nil {
				t.Fatal(err)
			}
			return c
		},
		"sqlite": func(t *testing.T) port.Collection {
			c, err := NewSQLiteCollection(filepath.Join(t.TempDir(), "collection.db"))
			if err != nil {
				t.Fatal(err)
			}
			return c
		},
	}
}

func TestCollection_UpsertAndGetAll(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"alloy", "density", "strength"}); err != nil {
				t.Fatal(err)
			}
			rec := domain.Record{ID: "doc1", Text: "alloy strength density", Source: "doc1.txt", Vector: []float64{1, 1, 1}}
			if err := c.Upsert(rec); err != nil {
				t.Fatal(err)
			}

			all, err := c.GetAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 1 {
				t.Fatalf("expected 1 record, got %d", len(all))
			}
			got := all[0]
			if got.ID != "doc1" || got.Text != rec.Text || got.Source != rec.Source {
				t.Errorf("record fields not preserved: %+v", got)
			}
			if !reflect.DeepEqual(got.Vector, rec.Vector) {
				t.Errorf("expected vector %v, got %v", rec.Vector, got.Vector)
			}
		})
	}
}

func TestCollection_UpsertPadsShortVectors(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a", "b", "c", "d"}); err != nil {
				t.Fatal(err)
			}
			if err := c.Upsert(domain.Record{ID: "short", Text: "x", Vector: []float64{2, 3}}); err != nil {
				t.Fatal(err)
			}

			all, err := c.GetAll()
			if err != nil {
				t.Fatal(err)
			}
			want := []float64{2, 3, 0, 0}
			if !reflect.DeepEqual(all[0].Vector, want) {
				t.Errorf("expected padded vector %v, got %v", want, all[0].Vector)
			}
		})
	}
}

func TestCollection_UpsertRejectsOversizedVectors(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a", "b"}); err != nil {
				t.Fatal(err)
			}
			err := c.Upsert(domain.Record{ID: "big", Text: "x", Vector: []float64{1, 2, 3}})
			if !errors.Is(err, domain.ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestCollection_UpsertReplacesWholeRecord(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a", "b"}); err != nil {
				t.Fatal(err)
			}
			if err := c.Upsert(domain.Record{ID: "doc1", Text: "first", Vector: []float64{1, 0}}); err != nil {
				t.Fatal(err)
			}
			if err := c.Upsert(domain.Record{ID: "doc2", Text: "other", Vector: []float64{0, 1}}); err != nil {
				t.Fatal(err)
			}
			if err := c.Upsert(domain.Record{ID: "doc1", Text: "second", Vector: []float64{0, 2}}); err != nil {
				t.Fatal(err)
			}

			all, err := c.GetAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 2 {
				t.Fatalf("expected 2 records after re-upsert, got %d", len(all))
			}
			// The replacement keeps doc1's insertion sequence, so order is stable.
			if all[0].ID != "doc1" || all[1].ID != "doc2" {
				t.Errorf("expected insertion order doc1, doc2; got %s, %s", all[0].ID, all[1].ID)
			}
			if all[0].Text != "second" || !reflect.DeepEqual(all[0].Vector, []float64{0, 2}) {
				t.Errorf("re-upsert did not replace record: %+v", all[0])
			}
		})
	}
}

func TestCollection_GrowVocabularyReprojects(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"alloy", "density", "strength"}); err != nil {
				t.Fatal(err)
			}
			if err := c.Upsert(domain.Record{ID: "doc1", Text: "alloy strength density", Vector: []float64{1, 1, 1}}); err != nil {
				t.Fatal(err)
			}

			// "corrosion" sorts into the middle, shifting old term indexes.
			if err := c.GrowVocabulary([]string{"corrosion", "density", "strength"}); err != nil {
				t.Fatal(err)
			}

			vocab, err := c.Vocabulary()
			if err != nil {
				t.Fatal(err)
			}
			wantTerms := []string{"alloy", "corrosion", "density", "strength"}
			if !reflect.DeepEqual(vocab.Terms, wantTerms) {
				t.Fatalf("expected vocabulary %v, got %v", wantTerms, vocab.Terms)
			}

			all, err := c.GetAll()
			if err != nil {
				t.Fatal(err)
			}
			want := []float64{1, 0, 1, 1}
			if !reflect.DeepEqual(all[0].Vector, want) {
				t.Errorf("expected re-projected vector %v, got %v", want, all[0].Vector)
			}
		})
	}
}

func TestCollection_GrowVocabularyNoopKeepsEpoch(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a", "b"}); err != nil {
				t.Fatal(err)
			}
			before, err := c.Vocabulary()
			if err != nil {
				t.Fatal(err)
			}

			// A subset adds nothing, so neither terms nor epoch change.
			if err := c.GrowVocabulary([]string{"b"}); err != nil {
				t.Fatal(err)
			}
			after, err := c.Vocabulary()
			if err != nil {
				t.Fatal(err)
			}
			if after.Epoch != before.Epoch {
				t.Errorf("expected epoch %d after no-op growth, got %d", before.Epoch, after.Epoch)
			}
			if !reflect.DeepEqual(after.Terms, before.Terms) {
				t.Errorf("expected unchanged terms %v, got %v", before.Terms, after.Terms)
			}
		})
	}
}

func TestCollection_GrowVocabularyNeverShrinks(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a", "b", "c"}); err != nil {
				t.Fatal(err)
			}
			// A disjoint candidate merges instead of replacing.
			if err := c.GrowVocabulary([]string{"d"}); err != nil {
				t.Fatal(err)
			}

			vocab, err := c.Vocabulary()
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"a", "b", "c", "d"}
			if !reflect.DeepEqual(vocab.Terms, want) {
				t.Errorf("expected %v, got %v", want, vocab.Terms)
			}
		})
	}
}

func TestCollection_GetByID(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a"}); err != nil {
				t.Fatal(err)
			}
			if err := c.Upsert(domain.Record{ID: "doc1", Text: "a", Vector: []float64{1}}); err != nil {
				t.Fatal(err)
			}

			rec, err := c.Get("doc1")
			if err != nil {
				t.Fatal(err)
			}
			if rec.ID != "doc1" || rec.Text != "a" {
				t.Errorf("unexpected record: %+v", rec)
			}

			if _, err := c.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestCollection_Count(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			if err := c.GrowVocabulary([]string{"a"}); err != nil {
				t.Fatal(err)
			}
			for _, id := range []string{"x", "y", "x"} {
				if err := c.Upsert(domain.Record{ID: id, Text: id, Vector: []float64{1}}); err != nil {
					t.Fatal(err)
				}
			}

			count, err := c.Count()
			if err != nil {
				t.Fatal(err)
			}
			if count != 2 {
				t.Errorf("expected 2 records, got %d", count)
			}
		})
	}
}

func TestCollection_PersistIsIdempotent(t *testing.T) {
	for name, newCollection := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newCollection(t)
			defer c.Close()

			for i := 0; i < 3; i++ {
				if err := c.Persist(); err != nil {
					t.Fatalf("persist call %d failed: %v", i, err)
				}
			}
		})
	}
}

func TestBoltCollection_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.db")

	c, err := NewBoltCollection(path)
	if err != nil {
		t.Fatal(err)
	}
	seedAndClose(t, c)

	reopened, err := NewBoltCollection(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	verifyReopened(t, reopened)
}

func TestSQLiteCollection_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.db")

	c, err := NewSQLiteCollection(path)
	if err != nil {
		t.Fatal(err)
	}
	seedAndClose(t, c)

	reopened, err := NewSQLiteCollection(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	verifyReopened(t, reopened)
}

func seedAndClose(t *testing.T, c port.Collection) {
	t.Helper()
	if err := c.GrowVocabulary([]string{"alloy", "strength"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Upsert(domain.Record{ID: "doc1", Text: "alloy strength", Source: "doc1.txt", Vector: []float64{1, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func verifyReopened(t *testing.T, c port.Collection) {
	t.Helper()
	vocab, err := c.Vocabulary()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(vocab.Terms, []string{"alloy", "strength"}) {
		t.Errorf("vocabulary not preserved across reopen: %v", vocab.Terms)
	}
	if vocab.Epoch != 1 {
		t.Errorf("expected epoch 1 after reopen, got %d", vocab.Epoch)
	}

	all, err := c.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != "doc1" || all[0].Text != "alloy strength" {
		t.Errorf("records not preserved across reopen: %+v", all)
	}
	if !reflect.DeepEqual(all[0].Vector, []float64{1, 1}) {
		t.Errorf("vector not preserved across reopen: %v", all[0].Vector)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("cassandra", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
