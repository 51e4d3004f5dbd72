package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"matsearch/config"
	"matsearch/internal/adapter/fs"
	"matsearch/internal/adapter/store"
	"matsearch/internal/adapter/vectorizer"
	"matsearch/internal/usecase"
)

var (
	ingestID     string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Ingest analysis files into the collection",
	Long: `Ingest analysis text files or directories of them into the collection.
The collection is stored in .matsearch/collection.db within the root directory.

For single files the record id defaults to the file name without its
extension and can be overridden with --id. Directories are walked with the
configured include/exclude patterns.

Examples:
  matsearch ingest report.txt                  # Ingest one file
  matsearch ingest report.txt --id alloy-7075  # Ingest with an explicit id
  matsearch ingest reports/ archive/           # Ingest directories`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "record id (single file only; default is the file stem)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source metadata (single file only; default is the path)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	if ingestID != "" && len(args) != 1 {
		return fmt.Errorf("--id requires exactly one input file")
	}

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	coll, err := store.Open(cfg.Store.Backend, config.CollectionPath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	defer coll.Close()

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	ingestUC := usecase.NewIngestUseCase(coll, vectorizer.NewTermFrequency(), walker)

	totalIngested := 0
	totalFailed := 0
	var warnings []string

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", arg, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("path does not exist: %w", err)
		}

		if !info.IsDir() {
			if err := ingestUC.IngestFile(path, ingestID, ingestSource); err != nil {
				return fmt.Errorf("ingesting %s failed: %w", path, err)
			}
			totalIngested++
			continue
		}

		if ingestID != "" {
			return fmt.Errorf("--id cannot be used with a directory: %s", path)
		}

		fmt.Printf("Scanning %s...\n", path)
		stats, err := ingestUC.IngestDir(path, dirProgress())
		if err != nil {
			return fmt.Errorf("ingesting %s failed: %w", path, err)
		}
		totalIngested += stats.Ingested
		totalFailed += stats.Failed
		warnings = append(warnings, stats.Errors...)
	}

	if err := coll.Persist(); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}

	vocab, err := coll.Vocabulary()
	if err != nil {
		return fmt.Errorf("failed to read vocabulary: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents ingested: %d\n", totalIngested)
	if totalFailed > 0 {
		fmt.Printf("  Documents failed:   %d\n", totalFailed)
	}
	fmt.Printf("  Vocabulary size:    %d terms (epoch %d)\n", vocab.Size(), vocab.Epoch)

	if len(warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nCollection stored at: %s\n", config.CollectionPath(rootDir))
	return nil
}

// dirProgress renders a progress bar lazily, once the file total is known.
func dirProgress() usecase.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int, current string) {
		if total == 0 {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}
}
