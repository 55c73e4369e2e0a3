// Package config loads the per-project .quizdedup/config.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/quizdedup/internal/deduplication"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the project directory
const FileName = "config.yaml"

// ProjectConfig represents the project configuration loaded from YAML.
type ProjectConfig struct {
	// Bank lists the question bank sources
	Bank BankConfig `yaml:"bank"`

	// History configures the sampling run database
	History HistoryConfig `yaml:"history"`

	// Dedup holds similarity and relaxation defaults
	Dedup DedupConfig `yaml:"dedup"`

	// Exam holds default question counts per mode
	Exam ExamConfig `yaml:"exam"`
}

// BankConfig lists question bank files or directories.
// Relative paths are resolved against the project root.
type BankConfig struct {
	Paths []string `yaml:"paths"`
}

// HistoryConfig configures run history storage.
type HistoryConfig struct {
	// Enabled controls whether sampling runs are recorded
	Enabled bool `yaml:"enabled"`

	// Path is relative to the project directory unless absolute
	Path string `yaml:"path"`

	Retention RetentionConfig `yaml:"retention"`
}

// DedupConfig mirrors deduplication.Config in the YAML file.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	CheckChoices        bool    `yaml:"check_choices"`
	RelaxationStep      float64 `yaml:"relaxation_step"`
	RelaxationFloor     float64 `yaml:"relaxation_floor"`
	MaxAttempts         int     `yaml:"max_attempts"`
}

// ExamConfig holds the default number of questions per mode.
type ExamConfig struct {
	ExamCount     int `yaml:"exam_count"`
	PracticeCount int `yaml:"practice_count"`
}

// DefaultConfig returns the configuration written by 'quizdedup init'.
func DefaultConfig() *ProjectConfig {
	d := deduplication.DefaultConfig()
	return &ProjectConfig{
		Bank: BankConfig{
			Paths: []string{"questions"},
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      "history.db",
			Retention: DefaultRetentionConfig(),
		},
		Dedup: DedupConfig{
			SimilarityThreshold: d.SimilarityThreshold,
			CheckChoices:        d.CheckChoices,
			RelaxationStep:      d.RelaxationStep,
			RelaxationFloor:     d.RelaxationFloor,
			MaxAttempts:         d.MaxAttempts,
		},
		Exam: ExamConfig{
			ExamCount:     20,
			PracticeCount: 10,
		},
	}
}

// LoadConfig loads project configuration from a YAML file.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Load reads config.yaml from projectDir, returning defaults when the file
// does not exist.
func Load(projectDir string) (*ProjectConfig, error) {
	path := filepath.Join(projectDir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// SaveDefaultConfig writes the default configuration to a file.
func SaveDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration has valid values
func (c *ProjectConfig) Validate() error {
	if err := c.Dedup.toDedup().Validate(); err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if c.Exam.ExamCount <= 0 {
		return fmt.Errorf("exam.exam_count must be positive (got %d)", c.Exam.ExamCount)
	}
	if c.Exam.PracticeCount <= 0 {
		return fmt.Errorf("exam.practice_count must be positive (got %d)", c.Exam.PracticeCount)
	}
	if err := c.History.Retention.Validate(); err != nil {
		return fmt.Errorf("history.retention: %w", err)
	}
	return nil
}

func (d DedupConfig) toDedup() deduplication.Config {
	return deduplication.Config{
		SimilarityThreshold: d.SimilarityThreshold,
		CheckChoices:        d.CheckChoices,
		RelaxationStep:      d.RelaxationStep,
		RelaxationFloor:     d.RelaxationFloor,
		MaxAttempts:         d.MaxAttempts,
	}
}

// DeduplicationConfig returns the dedup section with QUIZDEDUP_* environment
// overrides applied on top.
func (c *ProjectConfig) DeduplicationConfig() (deduplication.Config, error) {
	return deduplication.ApplyEnv(c.Dedup.toDedup())
}

// BankPaths resolves the bank sources against root, the directory holding
// .quizdedup/.
func (c *ProjectConfig) BankPaths(root string) []string {
	paths := make([]string, 0, len(c.Bank.Paths))
	for _, p := range c.Bank.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		paths = append(paths, p)
	}
	return paths
}

// HistoryPath resolves the history database against projectDir.
func (c *ProjectConfig) HistoryPath(projectDir string) string {
	if c.History.Path == ":memory:" || filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(projectDir, c.History.Path)
}
