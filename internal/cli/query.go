package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"matsearch/config"
	"matsearch/internal/adapter/cache"
	"matsearch/internal/adapter/ranker"
	"matsearch/internal/adapter/store"
	"matsearch/internal/adapter/vectorizer"
	"matsearch/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the collection",
	Long: `Search ingested analysis documents by cosine similarity of
term-frequency vectors.

Examples:
  matsearch query -q "creep strength titanium"
  matsearch query -q "corrosion resistance" -k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	dbPath := config.CollectionPath(rootDir)
	if cfg.Store.Backend != "memory" {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("no collection found. Run 'matsearch ingest' first")
		}
	}

	coll, err := store.Open(cfg.Store.Backend, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	defer coll.Close()

	var queryCache *cache.QueryCache
	if cfg.Query.Cache {
		queryCache = cache.NewQueryCache(cfg.Query.CacheEntries, time.Duration(cfg.Query.CacheTTLSecs)*time.Second)
	}

	queryUC := usecase.NewQueryUseCase(coll, vectorizer.NewTermFrequency(), ranker.NewCosine(), queryCache)

	topK := cfg.Query.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	out, err := queryUC.Query(queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(out.Results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(out.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(out.Results), queryText)
	for i, r := range out.Results {
		fmt.Printf("--- [%d] %s (score: %.4f, source: %s) ---\n", i+1, r.ID, r.Score, r.Source)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	if len(out.Warnings) > 0 {
		fmt.Printf("Warnings:\n")
		for _, w := range out.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	return nil
}
