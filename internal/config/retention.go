package config

import (
	"fmt"
	"os"
	"strconv"
)

// RetentionConfig holds configuration for sampling history cleanup
type RetentionConfig struct {
	// KeepRuns is the number of newest runs kept when pruning
	// Default: 1000, Range: 1-1000000
	KeepRuns int `yaml:"keep_runs"`

	// AutoPrune prunes down to KeepRuns after every recorded run
	// Default: true
	AutoPrune bool `yaml:"auto_prune"`
}

// DefaultRetentionConfig returns the default retention configuration
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		KeepRuns:  1000,
		AutoPrune: true,
	}
}

// Validate checks if the configuration has valid values
func (c RetentionConfig) Validate() error {
	if c.KeepRuns < 1 {
		return fmt.Errorf("keep_runs must be at least 1 (got %d)", c.KeepRuns)
	}
	if c.KeepRuns > 1000000 {
		return fmt.Errorf("keep_runs too large (got %d, max 1000000)", c.KeepRuns)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c RetentionConfig) String() string {
	return fmt.Sprintf("RetentionConfig{KeepRuns: %d, AutoPrune: %t}", c.KeepRuns, c.AutoPrune)
}

// ApplyEnv overlays environment variables on the retention settings
//
// Environment variables:
//   - QUIZDEDUP_HISTORY_KEEP_RUNS: Newest runs kept when pruning (default: 1000)
//   - QUIZDEDUP_HISTORY_AUTO_PRUNE: Prune after every recorded run (default: true)
//
// Returns an error if any environment variable has an invalid value.
func (c RetentionConfig) ApplyEnv() (RetentionConfig, error) {
	cfg := c

	if err := parseEnvInt("QUIZDEDUP_HISTORY_KEEP_RUNS", &cfg.KeepRuns); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("QUIZDEDUP_HISTORY_AUTO_PRUNE", &cfg.AutoPrune); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid retention configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
