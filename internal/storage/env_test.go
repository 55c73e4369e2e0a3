package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/steveyegge/quizdedup/internal/types"
)

// TestDBPathDiscovery verifies that DiscoverDatabase respects QUIZDEDUP_DB_PATH
func TestDBPathDiscovery(t *testing.T) {
	t.Setenv("QUIZDEDUP_DB_PATH", ":memory:")
	path, err := DiscoverDatabase()
	if err != nil {
		t.Fatalf("DiscoverDatabase with QUIZDEDUP_DB_PATH=:memory: failed: %v", err)
	}
	if path != ":memory:" {
		t.Errorf("Expected :memory:, got %s", path)
	}

	t.Setenv("QUIZDEDUP_DB_PATH", "/tmp/test.db")
	path, err = DiscoverDatabase()
	if err != nil {
		t.Fatalf("DiscoverDatabase with QUIZDEDUP_DB_PATH=/tmp/test.db failed: %v", err)
	}
	if path != "/tmp/test.db" {
		t.Errorf("Expected /tmp/test.db, got %s", path)
	}
}

// TestDBPathFallsBackToHome verifies discovery through QUIZDEDUP_HOME
func TestDBPathFallsBackToHome(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("QUIZDEDUP_DB_PATH", "")
	t.Setenv("QUIZDEDUP_HOME", tmpDir)

	_, dbPath, err := InitProject(tmpDir)
	if err != nil {
		t.Fatalf("InitProject failed: %v", err)
	}

	// No database until the first connection
	if _, err := DiscoverDatabase(); err == nil {
		t.Error("Expected error before the database is created")
	}

	store, err := NewStorage(context.Background(), &Config{Path: dbPath})
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	found, err := DiscoverDatabase()
	if err != nil {
		t.Fatalf("DiscoverDatabase failed: %v", err)
	}
	if found != dbPath {
		t.Errorf("Expected %s, got %s", dbPath, found)
	}
}

// TestDBPathDefaultConfig verifies that DefaultConfig respects QUIZDEDUP_DB_PATH
func TestDBPathDefaultConfig(t *testing.T) {
	t.Setenv("QUIZDEDUP_DB_PATH", "")
	cfg := DefaultConfig()
	if cfg.Path != filepath.Join(".quizdedup", "history.db") {
		t.Errorf("Expected default path, got %s", cfg.Path)
	}

	t.Setenv("QUIZDEDUP_DB_PATH", ":memory:")
	cfg = DefaultConfig()
	if cfg.Path != ":memory:" {
		t.Errorf("Expected :memory:, got %s", cfg.Path)
	}
}

// TestNewStorageInMemory exercises the interface against an in-memory backend
func TestNewStorageInMemory(t *testing.T) {
	t.Setenv("QUIZDEDUP_DB_PATH", ":memory:")
	ctx := context.Background()

	store, err := NewStorage(ctx, nil)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	run := &types.SamplingRun{
		Mode:             types.ModeExam,
		Requested:        1,
		Returned:         1,
		InitialThreshold: 0.8,
		FinalThreshold:   0.8,
		QuestionIDs:      []string{"q1"},
	}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	stats, err := store.GetRunStats(ctx)
	if err != nil {
		t.Fatalf("GetRunStats failed: %v", err)
	}
	if stats.TotalRuns != 1 {
		t.Errorf("Expected 1 run, got %d", stats.TotalRuns)
	}
}
