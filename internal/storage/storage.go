package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/steveyegge/quizdedup/internal/storage/sqlite"
	"github.com/steveyegge/quizdedup/internal/types"
)

// Storage defines the interface for sampling history backends
type Storage interface {
	// Runs
	RecordRun(ctx context.Context, run *types.SamplingRun) error
	GetRun(ctx context.Context, id string) (*types.SamplingRun, error)
	ListRuns(ctx context.Context, filter types.RunFilter) ([]*types.SamplingRun, error)

	// Statistics
	GetRunStats(ctx context.Context) (*types.RunStats, error)

	// Retention
	CleanupRuns(ctx context.Context, keep int) (int, error)

	// Lifecycle
	Close() error
}

var _ Storage = (*sqlite.SQLiteStorage)(nil)

// HistoryFileName is the database file created inside the project directory
const HistoryFileName = "history.db"

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".quizdedup/history.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults.
// QUIZDEDUP_DB_PATH overrides the default path.
func DefaultConfig() *Config {
	if dbPath := os.Getenv("QUIZDEDUP_DB_PATH"); dbPath != "" {
		return &Config{Path: dbPath}
	}
	return &Config{
		Path: filepath.Join(ProjectDirName, HistoryFileName),
	}
}

// NewStorage opens the SQLite history backend, creating and migrating it as needed
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Default to standard path if not specified
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}

	return sqlite.New(ctx, cfg.Path)
}
