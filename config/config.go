package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"scour/internal/adapter/ranker"
)

// Config holds all configuration for the search engine.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Query   QueryConfig   `yaml:"query"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig holds corpus walking and normalization configuration.
type IndexConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	Stemming      bool     `yaml:"stemming"`
	MinTermLength int      `yaml:"min_term_length"`
	MaxTermLength int      `yaml:"max_term_length"`
}

// SearchConfig holds ranking and result-shaping configuration. Authority
// maps host fragments to trust scores and overrides the built-in table when
// set.
type SearchConfig struct {
	TopK            int                `yaml:"top_k"`
	SnippetLength   int                `yaml:"snippet_length"`
	Highlight       string             `yaml:"highlight"`
	ExpansionWeight float64            `yaml:"expansion_weight"`
	Weights         ranker.Weights     `yaml:"weights"`
	Authority       map[string]float64 `yaml:"authority"`
	CacheSize       int                `yaml:"cache_size"`
	CacheTTLSeconds int                `yaml:"cache_ttl_seconds"`
}

// QueryConfig holds validation, spelling and expansion configuration.
// CommonQueries seed the suggestion engine alongside vocabulary and history.
type QueryConfig struct {
	MaxLength      int      `yaml:"max_length"`
	SpellThreshold float64  `yaml:"spell_threshold"`
	MaxSynonyms    int      `yaml:"max_synonyms"`
	MaxRelated     int      `yaml:"max_related"`
	HistorySize    int      `yaml:"history_size"`
	CommonQueries  []string `yaml:"common_queries"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr                   string `yaml:"addr"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:      []string{"**/*.html", "**/*.htm", "**/*.txt", "**/*.md"},
			Excludes:      []string{"**/node_modules/**", "**/vendor/**", "**/.git/**"},
			Stemming:      true,
			MinTermLength: 2,
			MaxTermLength: 25,
		},
		Search: SearchConfig{
			TopK:            10,
			SnippetLength:   200,
			Highlight:       "**",
			ExpansionWeight: 0.5,
			Weights:         ranker.DefaultWeights(),
			CacheSize:       128,
			CacheTTLSeconds: 300,
		},
		Query: QueryConfig{
			MaxLength:      200,
			SpellThreshold: 0.6,
			MaxSynonyms:    3,
			MaxRelated:     3,
			HistorySize:    100,
			CommonQueries: []string{
				"machine learning",
				"python tutorial",
				"data structures",
				"web development",
				"algorithms",
			},
		},
		Server: ServerConfig{
			Addr:                   ":8080",
			ReadTimeoutSeconds:     5,
			WriteTimeoutSeconds:    10,
			ShutdownTimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects configurations the engine cannot run with. It reports the
// first violation found.
func (c *Config) Validate() error {
	if c.Index.MinTermLength <= 0 || c.Index.MaxTermLength <= 0 {
		return fmt.Errorf("index: term lengths must be positive, got min=%d max=%d",
			c.Index.MinTermLength, c.Index.MaxTermLength)
	}
	if c.Index.MinTermLength > c.Index.MaxTermLength {
		return fmt.Errorf("index: min_term_length %d exceeds max_term_length %d",
			c.Index.MinTermLength, c.Index.MaxTermLength)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search: top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.SnippetLength <= 0 {
		return fmt.Errorf("search: snippet_length must be positive, got %d", c.Search.SnippetLength)
	}
	if c.Search.ExpansionWeight < 0 || c.Search.ExpansionWeight > 1 {
		return fmt.Errorf("search: expansion_weight must be in [0,1], got %g", c.Search.ExpansionWeight)
	}
	w := c.Search.Weights
	if w.Similarity < 0 || w.Length < 0 || w.Title < 0 || w.Authority < 0 {
		return fmt.Errorf("search: rank weights must be non-negative, got %+v", w)
	}
	if sum := w.Similarity + w.Length + w.Title + w.Authority; sum > 1.0001 {
		return fmt.Errorf("search: rank weights sum to %g, must not exceed 1", sum)
	}
	for host, score := range c.Search.Authority {
		if score < 0 || score > 1 {
			return fmt.Errorf("search: authority score for %q must be in [0,1], got %g", host, score)
		}
	}
	if c.Search.CacheSize < 0 || c.Search.CacheTTLSeconds < 0 {
		return fmt.Errorf("search: cache_size and cache_ttl_seconds must not be negative")
	}
	if c.Query.MaxLength <= 0 {
		return fmt.Errorf("query: max_length must be positive, got %d", c.Query.MaxLength)
	}
	if c.Query.SpellThreshold <= 0 || c.Query.SpellThreshold >= 1 {
		return fmt.Errorf("query: spell_threshold must be in (0,1), got %g", c.Query.SpellThreshold)
	}
	if c.Query.MaxSynonyms < 0 || c.Query.MaxRelated < 0 {
		return fmt.Errorf("query: max_synonyms and max_related must not be negative")
	}
	if c.Query.HistorySize <= 0 {
		return fmt.Errorf("query: history_size must be positive, got %d", c.Query.HistorySize)
	}
	if c.Server.ReadTimeoutSeconds <= 0 || c.Server.WriteTimeoutSeconds <= 0 || c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server: timeouts must be positive")
	}
	return nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; an unreadable, unparsable or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for scour.yaml,
// then .scour/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "scour.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".scour", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".scour", "index.db")
}

// EnsureDataDir ensures the .scour directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".scour"), 0755)
}
