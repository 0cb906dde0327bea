// Package config handles loading and validating the runtime configuration
// for the near-duplicate detection pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nearduplicate/lshdedup/internal/hashfamily"
	"github.com/nearduplicate/lshdedup/internal/lsherr"
	"github.com/nearduplicate/lshdedup/internal/shingle"
)

// Config is the top-level configuration tree for a corpus build.
type Config struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Shingle ShingleConfig `yaml:"shingle"`
	Index   IndexConfig   `yaml:"index"`
	Query   QueryConfig   `yaml:"query"`
	Output  OutputConfig  `yaml:"output"`
}

// CorpusConfig describes where documents come from.
type CorpusConfig struct {
	Path       string `yaml:"path"`
	IDColumn   string `yaml:"id_column"`
	TextColumn string `yaml:"text_column"`
}

// ShingleConfig controls document normalization and shingle length.
type ShingleConfig struct {
	K                    int  `yaml:"k"`
	RemoveCapitalization bool `yaml:"remove_capitalization"`
	FilterPunctuation    bool `yaml:"filter_punctuation"`
	FilterStopwords      bool `yaml:"filter_stopwords"`
	StopwordStart        bool `yaml:"stopword_start"`
}

// Flags converts the YAML-facing ShingleConfig into shingle.Flags.
func (s ShingleConfig) Flags() shingle.Flags {
	return shingle.Flags{
		RemoveCapitalization: s.RemoveCapitalization,
		FilterPunctuation:    s.FilterPunctuation,
		FilterStopwords:      s.FilterStopwords,
		StopwordStart:        s.StopwordStart,
	}
}

// IndexConfig controls the MinHash signature length, band width and hash
// family.
type IndexConfig struct {
	M       int    `yaml:"m"`
	R       int    `yaml:"r"`
	Family  string `yaml:"family"`
	Workers int    `yaml:"threads"`
}

// HashFamily parses Family into a hashfamily.Name, defaulting to Xorhash
// when unset.
func (i IndexConfig) HashFamily() (hashfamily.Name, error) {
	if i.Family == "" {
		return hashfamily.Xorhash, nil
	}
	switch hashfamily.Name(i.Family) {
	case hashfamily.Xorhash, hashfamily.Linconhash, hashfamily.MD5hash:
		return hashfamily.Name(i.Family), nil
	default:
		return "", fmt.Errorf("%w: unknown hash family %q", lsherr.ErrConfigError, i.Family)
	}
}

// QueryConfig controls the similarity threshold applied by query and
// all-pairs operations.
type QueryConfig struct {
	Tau float64 `yaml:"tau"`
}

// OutputConfig controls where a built index and its derived artifacts are
// written.
type OutputConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	PairsCSVPath string `yaml:"pairs_csv_path"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			IDColumn:   "News_ID",
			TextColumn: "article",
		},
		Shingle: ShingleConfig{
			K: shingle.DefaultK,
		},
		Index: IndexConfig{
			M:       100,
			R:       5,
			Family:  string(hashfamily.Xorhash),
			Workers: 8,
		},
		Query: QueryConfig{
			Tau: 0.5,
		},
		Output: OutputConfig{
			SnapshotPath: "index.json",
			PairsCSVPath: "pairs.csv",
		},
	}
}

// Loader reads and parses Config from YAML, optionally in strict mode
// (unknown fields rejected).
type Loader struct {
	strictMode bool
}

// NewLoader creates a Loader that tolerates unknown YAML fields.
func NewLoader() *Loader {
	return &Loader{strictMode: false}
}

// NewStrictLoader creates a Loader that rejects unknown YAML fields.
func NewStrictLoader() *Loader {
	return &Loader{strictMode: true}
}

// LoadFile reads and parses Config from a YAML file at path, layered over
// DefaultConfig.
func (l *Loader) LoadFile(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.Load(data)
}

// Load parses Config from YAML bytes, layered over DefaultConfig.
func (l *Loader) Load(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	if l.strictMode {
		decoder.KnownFields(true)
	}

	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the cross-field invariants a YAML decode cannot enforce
// on its own.
func (c *Config) Validate() error {
	if c.Corpus.Path == "" {
		return fmt.Errorf("%w: corpus.path is required", lsherr.ErrConfigError)
	}
	if c.Shingle.K <= 0 {
		return fmt.Errorf("%w: shingle.k must be >= 1, got %d", lsherr.ErrConfigError, c.Shingle.K)
	}
	if c.Query.Tau < 0 || c.Query.Tau >= 1 {
		return fmt.Errorf("%w: query.tau must be in [0, 1), got %g", lsherr.ErrConfigError, c.Query.Tau)
	}
	if c.Index.R <= 0 {
		return fmt.Errorf("%w: index.r must be positive", lsherr.ErrConfigError)
	}
	if c.Index.M < c.Index.R {
		return fmt.Errorf("%w: index.m (%d) must be >= index.r (%d)", lsherr.ErrConfigError, c.Index.M, c.Index.R)
	}
	if c.Index.M%c.Index.R != 0 {
		return fmt.Errorf("%w: index.m (%d) must be a multiple of index.r (%d)", lsherr.ErrConfigError, c.Index.M, c.Index.R)
	}
	if _, err := c.Index.HashFamily(); err != nil {
		return err
	}
	return c.Shingle.Flags().Validate()
}
