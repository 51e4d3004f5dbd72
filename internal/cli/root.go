package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matsearch/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "matsearch",
	Short: "Ingest analysis text and search it by similarity",
	Long: `matsearch ingests plain-text analysis documents, converts each into a
term-frequency vector over a shared growing vocabulary, stores the records in
a durable collection, and answers free-text queries with cosine-ranked
results.

Example usage:
  matsearch ingest reports/            # Ingest a directory of analysis files
  matsearch query -q "creep strength"  # Search the collection
  matsearch info                       # Show collection statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./matsearch.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
