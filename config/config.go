// Package config loads the factcheck YAML configuration file.
//
// A file only needs the keys it changes; everything else keeps its default.
//
//	embedding:
//	  host: http://localhost:11434/v1
//	  model: embeddinggemma
//	  dimension: 768
//	retrieval:
//	  top_k: 5
//	verdict:
//	  semantic_threshold: 0.55
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/factcheck/ai"
	"github.com/poiesic/factcheck/index"
	"github.com/poiesic/factcheck/ingestion"
	"github.com/poiesic/factcheck/retrieve"
	"github.com/poiesic/factcheck/verdict"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete configuration of a fact checker.
type Config struct {
	Embedding ai.Config        `yaml:"embedding"`
	Retrieval Retrieval        `yaml:"retrieval"`
	Verdict   verdict.Policy   `yaml:"verdict"`
	Ingestion ingestion.Config `yaml:"ingestion"`
}

// Retrieval configures the evidence retriever.
type Retrieval struct {
	// TopK is how many facts are retrieved per claim.
	TopK int `yaml:"top_k"`
	// Metric is the similarity metric of newly built indexes.
	Metric string `yaml:"metric"`
	// ExactTolerance and WideTolerance are relative differences.
	ExactTolerance float64 `yaml:"exact_tolerance"`
	WideTolerance  float64 `yaml:"wide_tolerance"`
}

// Tolerance returns the retriever tolerance described by r.
func (r Retrieval) Tolerance() retrieve.Tolerance {
	return retrieve.Tolerance{Exact: r.ExactTolerance, Wide: r.WideTolerance}
}

// Default returns the built-in configuration.
func Default() *Config {
	tol := retrieve.DefaultTolerance()
	return &Config{
		Embedding: *ai.DefaultConfig(),
		Retrieval: Retrieval{
			TopK:           5,
			Metric:         string(index.MetricCosine),
			ExactTolerance: tol.Exact,
			WideTolerance:  tol.Wide,
		},
		Verdict:   verdict.DefaultPolicy(),
		Ingestion: ingestion.DefaultConfig(),
	}
}

// Validate normalizes the embedding section and checks every section.
// The verdict engine's wide tolerance must equal the retriever's, since
// confidence is scaled by the band the retriever classified with.
func (c *Config) Validate() error {
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: retrieval.top_k must be at least 1, got %d", ErrInvalidConfig, c.Retrieval.TopK)
	}
	if _, err := index.ParseMetric(c.Retrieval.Metric); err != nil {
		return fmt.Errorf("%w: retrieval.metric: %w", ErrInvalidConfig, err)
	}
	if !c.Retrieval.Tolerance().Valid() {
		return fmt.Errorf("%w: retrieval tolerances need 0 <= exact (%g) <= wide (%g)",
			ErrInvalidConfig, c.Retrieval.ExactTolerance, c.Retrieval.WideTolerance)
	}
	if err := c.Verdict.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Verdict.WideTolerance != c.Retrieval.WideTolerance {
		return fmt.Errorf("%w: verdict.wide_tolerance (%g) differs from retrieval.wide_tolerance (%g)",
			ErrInvalidConfig, c.Verdict.WideTolerance, c.Retrieval.WideTolerance)
	}
	if err := c.Ingestion.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// EmbedTimeout returns the per-claim embedding timeout.
func (c *Config) EmbedTimeout() time.Duration {
	return c.Embedding.Timeout
}

// Parse reads YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Encode writes c as YAML.
func (c *Config) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return err
	}
	return encoder.Close()
}

// Write saves c to path, creating parent directories. An existing file is
// only replaced when overwrite is set.
func (c *Config) Write(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# factcheck configuration\n")
	if err := c.Encode(&buf); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// DefaultPath returns ~/.factcheck/config.yaml, or config.yaml in the
// working directory when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".factcheck", "config.yaml")
}
