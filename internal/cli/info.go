package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matsearch/config"
	"matsearch/internal/adapter/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show collection statistics",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
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

	count, err := coll.Count()
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	vocab, err := coll.Vocabulary()
	if err != nil {
		return fmt.Errorf("failed to read vocabulary: %w", err)
	}

	fmt.Printf("Collection:\n")
	fmt.Printf("  Backend:          %s\n", cfg.Store.Backend)
	fmt.Printf("  Path:             %s\n", dbPath)
	fmt.Printf("  Records:          %d\n", count)
	fmt.Printf("  Vocabulary size:  %d terms\n", vocab.Size())
	fmt.Printf("  Vocabulary epoch: %d\n", vocab.Epoch)
	return nil
}
