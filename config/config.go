package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the matsearch tool.
type Config struct {
	Store  StoreConfig  `yaml:"store" koanf:"store"`
	Ingest IngestConfig `yaml:"ingest" koanf:"ingest"`
	Query  QueryConfig  `yaml:"query" koanf:"query"`
}

// StoreConfig selects and locates the collection backend.
type StoreConfig struct {
	Backend string `yaml:"backend" koanf:"backend"` // "bolt", "sqlite", "memory"
}

// IngestConfig holds batch-ingestion configuration.
type IngestConfig struct {
	Includes []string `yaml:"includes" koanf:"includes"`
	Excludes []string `yaml:"excludes" koanf:"excludes"`
}

// QueryConfig holds query configuration.
type QueryConfig struct {
	TopK         int  `yaml:"top_k" koanf:"top_k"`
	Cache        bool `yaml:"cache" koanf:"cache"`
	CacheEntries int  `yaml:"cache_entries" koanf:"cache_entries"`
	CacheTTLSecs int  `yaml:"cache_ttl_secs" koanf:"cache_ttl_secs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "bolt",
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.matsearch/**"},
		},
		Query: QueryConfig{
			TopK:         3,
			Cache:        true,
			CacheEntries: 100,
			CacheTTLSecs: 300,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MATSEARCH_*). A missing file yields the
// defaults plus the overlay.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// MATSEARCH_STORE_BACKEND -> store.backend, MATSEARCH_QUERY_TOP_K ->
	// query.top_k: the first underscore separates the section.
	if err := k.Load(env.Provider("MATSEARCH_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "MATSEARCH_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory, looking for
// matsearch.yaml, then .matsearch/config.yaml.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "matsearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".matsearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// No file at all still goes through Load for the env overlay.
	return Load(filepath.Join(dir, "matsearch.yaml"))
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validBackends is the set of recognized store backend values.
var validBackends = map[string]bool{
	"bolt":   true,
	"sqlite": true,
	"memory": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store backend %q: must be one of bolt, sqlite, memory", c.Store.Backend)
	}
	if c.Query.TopK < 1 {
		return fmt.Errorf("query top_k must be at least 1, got %d", c.Query.TopK)
	}
	if c.Query.CacheEntries < 0 {
		return fmt.Errorf("query cache_entries must be non-negative")
	}
	if c.Query.CacheTTLSecs < 0 {
		return fmt.Errorf("query cache_ttl_secs must be non-negative")
	}
	return nil
}

// CollectionPath returns the path to the collection database.
func CollectionPath(dir string) string {
	return filepath.Join(dir, ".matsearch", "collection.db")
}

// EnsureDataDir ensures the .matsearch directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".matsearch"), 0o755)
}
