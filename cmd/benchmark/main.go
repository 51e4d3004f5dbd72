package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"matsearch/internal/adapter/ranker"
	"matsearch/internal/adapter/store"
	"matsearch/internal/adapter/vectorizer"
	"matsearch/internal/usecase"
)

// Synthetic ingest/query benchmark for the term-frequency pipeline. Measures
// how ingestion cost grows with the vocabulary (every new term re-projects
// the whole collection) and the brute-force query latency that follows.
func main() {
	backend := flag.String("backend", "memory", "store backend: memory, bolt, sqlite")
	docs := flag.Int("docs", 500, "number of synthetic documents")
	poolSize := flag.Int("pool", 2000, "distinct terms in the synthetic pool")
	docTerms := flag.Int("doc-terms", 80, "terms per document")
	topK := flag.Int("k", 3, "results per query")
	queries := flag.Int("queries", 50, "number of timed queries")
	flag.Parse()

	dir, err := os.MkdirTemp("", "matsearch_bench")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	coll, err := store.Open(*backend, filepath.Join(dir, "collection.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening collection: %v\n", err)
		os.Exit(1)
	}
	defer coll.Close()

	rng := rand.New(rand.NewSource(42))
	pool := make([]string, *poolSize)
	for i := range pool {
		pool[i] = fmt.Sprintf("term%04d", i)
	}

	ingestUC := usecase.NewIngestUseCase(coll, vectorizer.NewTermFrequency(), nil)
	queryUC := usecase.NewQueryUseCase(coll, vectorizer.NewTermFrequency(), ranker.NewCosine(), nil)

	fmt.Println("TERM-FREQUENCY PIPELINE BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Backend: %s, documents: %d, term pool: %d, terms/doc: %d\n\n",
		*backend, *docs, *poolSize, *docTerms)

	ingestStart := time.Now()
	for i := 0; i < *docs; i++ {
		words := make([]string, *docTerms)
		for j := range words {
			words[j] = pool[rng.Intn(len(pool))]
		}
		id := fmt.Sprintf("doc%05d", i)
		if err := ingestUC.Ingest(id, strings.Join(words, " "), "synthetic"); err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting %s: %v\n", id, err)
			os.Exit(1)
		}
	}
	ingestElapsed := time.Since(ingestStart)

	vocab, err := coll.Vocabulary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading vocabulary: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Ingestion: %d docs in %v (%.1f docs/s)\n",
		*docs, ingestElapsed.Round(time.Millisecond),
		float64(*docs)/ingestElapsed.Seconds())
	fmt.Printf("Vocabulary: %d terms, epoch %d\n\n", vocab.Size(), vocab.Epoch)

	queryStart := time.Now()
	for i := 0; i < *queries; i++ {
		words := make([]string, 5)
		for j := range words {
			words[j] = pool[rng.Intn(len(pool))]
		}
		if _, err := queryUC.Query(strings.Join(words, " "), *topK); err != nil {
			fmt.Fprintf(os.Stderr, "Error querying: %v\n", err)
			os.Exit(1)
		}
	}
	queryElapsed := time.Since(queryStart)

	fmt.Printf("Queries: %d in %v (%.2f ms/query, k=%d)\n",
		*queries, queryElapsed.Round(time.Millisecond),
		float64(queryElapsed.Milliseconds())/float64(*queries), *topK)
}
