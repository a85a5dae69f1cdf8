package ingestion

import (
	"fmt"
	"runtime"
	"time"
)

// Config tunes how a Pipeline embeds statements.
type Config struct {
	// BatchSize is the number of statements per embedding call.
	BatchSize int `yaml:"batch_size"`
	// PoolSize is the number of batches embedded concurrently.
	PoolSize int `yaml:"pool_size"`
	// MaxRetries is the number of attempts per batch.
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay is the first backoff delay; it doubles on each retry.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// ReportInterval is how many statements pass between progress lines.
	ReportInterval int `yaml:"report_interval"`
}

// DefaultConfig returns the defaults: batches of 32 on NumCPU/2 workers,
// three attempts starting at 500ms.
func DefaultConfig() Config {
	return Config{
		BatchSize:      32,
		PoolSize:       max(1, runtime.NumCPU()/2),
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
		ReportInterval: 100,
	}
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be at least 1, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool_size must be at least 1, got %d", ErrInvalidConfig, c.PoolSize)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry_delay cannot be negative", ErrInvalidConfig)
	}
	if c.ReportInterval < 1 {
		return fmt.Errorf("%w: report_interval must be at least 1, got %d", ErrInvalidConfig, c.ReportInterval)
	}
	return nil
}
