package deduplication

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// Config holds configuration for the similarity engine and sampler
type Config struct {
	// SimilarityThreshold is the stem similarity (0.0-1.0] at or above which
	// two questions are duplicates. Used when a request leaves it unset.
	// Higher values = only near-verbatim copies are rejected
	// Lower values = loosely related questions are rejected too
	// Default: 0.8
	SimilarityThreshold float64

	// CheckChoices enables the choice-text comparison rule when a request
	// leaves it unset
	// Default: true
	CheckChoices bool

	// RelaxationStep is subtracted from the threshold after a short pass
	// Default: 0.1
	RelaxationStep float64

	// RelaxationFloor stops relaxation once the threshold is at or below it
	// Default: 0.5
	RelaxationFloor float64

	// MaxAttempts caps the number of sampling passes, relaxed or not
	// Default: 10
	MaxAttempts int
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.8,
		CheckChoices:        true,
		RelaxationStep:      0.1,
		RelaxationFloor:     0.5,
		MaxAttempts:         10,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if math.IsNaN(c.SimilarityThreshold) || c.SimilarityThreshold <= 0.0 || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("similarity_threshold must be in (0.0, 1.0] (got %.2f)",
			c.SimilarityThreshold)
	}
	if math.IsNaN(c.RelaxationStep) || c.RelaxationStep <= 0.0 || c.RelaxationStep > 0.5 {
		return fmt.Errorf("relaxation_step must be in (0.0, 0.5] (got %.2f)", c.RelaxationStep)
	}
	if math.IsNaN(c.RelaxationFloor) || c.RelaxationFloor <= 0.0 || c.RelaxationFloor >= 1.0 {
		return fmt.Errorf("relaxation_floor must be in (0.0, 1.0) (got %.2f)", c.RelaxationFloor)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive (got %d)", c.MaxAttempts)
	}
	if c.MaxAttempts > 100 {
		return fmt.Errorf("max_attempts too large (got %d, max 100)", c.MaxAttempts)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Threshold: %.2f, CheckChoices: %t, Step: %.2f, Floor: %.2f, MaxAttempts: %d}",
		c.SimilarityThreshold, c.CheckChoices, c.RelaxationStep, c.RelaxationFloor, c.MaxAttempts,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - QUIZDEDUP_SIMILARITY_THRESHOLD: Stem similarity that marks a duplicate (default: 0.8)
//   - QUIZDEDUP_CHECK_CHOICES: Compare choice texts too (default: true)
//   - QUIZDEDUP_RELAXATION_STEP: Threshold decrement after a short pass (default: 0.1)
//   - QUIZDEDUP_RELAXATION_FLOOR: Lowest threshold relaxation may reach (default: 0.5)
//   - QUIZDEDUP_MAX_ATTEMPTS: Maximum sampling passes (default: 10)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overlays QUIZDEDUP_* environment variables on base and validates the result
func ApplyEnv(base Config) (Config, error) {
	cfg := base

	if err := parseEnvFloat("QUIZDEDUP_SIMILARITY_THRESHOLD", &cfg.SimilarityThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("QUIZDEDUP_CHECK_CHOICES", &cfg.CheckChoices); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("QUIZDEDUP_RELAXATION_STEP", &cfg.RelaxationStep); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("QUIZDEDUP_RELAXATION_FLOOR", &cfg.RelaxationFloor); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("QUIZDEDUP_MAX_ATTEMPTS", &cfg.MaxAttempts); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
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
