// scripts/prune-history.go - Manual history pruning tool
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/steveyegge/quizdedup/internal/config"
	"github.com/steveyegge/quizdedup/internal/storage"
)

func main() {
	ctx := context.Background()

	// Honors QUIZDEDUP_DB_PATH
	cfg := storage.DefaultConfig()

	// QUIZDEDUP_HISTORY_KEEP_RUNS overrides the default of 1000
	retention, err := config.DefaultRetentionConfig().ApplyEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connecting to database: %s\n", cfg.Path)

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	fmt.Printf("Pruning history (keeping newest %d runs)...\n", retention.KeepRuns)

	deleted, err := store.CleanupRuns(ctx, retention.KeepRuns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during cleanup: %v\n", err)
		os.Exit(1)
	}

	if deleted > 0 {
		fmt.Printf("✓ Deleted %d old run(s)\n", deleted)
	} else {
		fmt.Println("✓ Nothing to prune")
	}
}
