package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/quizdedup/internal/config"
	"github.com/steveyegge/quizdedup/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a quizdedup project in the current directory",
	Long: `Initialize a quizdedup project by creating a .quizdedup/ directory.

This creates:
  - .quizdedup/ directory
  - .quizdedup/config.yaml (bank paths, dedup and exam defaults)
  - .quizdedup/history.db (SQLite sampling history)

An existing config.yaml is left untouched.

Example:
  cd ~/exams
  quizdedup init
  quizdedup sample --count 10`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get current directory: %v\n", err)
			os.Exit(1)
		}

		dir, historyDB, err := storage.InitProject(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		configPath := filepath.Join(dir, config.FileName)
		wroteConfig := false
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := config.SaveDefaultConfig(configPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			wroteConfig = true
		}

		// Initialize the database schema by opening and closing it
		ctx := context.Background()
		db, err := storage.NewStorage(ctx, &storage.Config{Path: historyDB})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize database: %v\n", err)
			os.Exit(1)
		}
		_ = db.Close() // Ignore close error during initialization

		root, err := storage.GetProjectRoot(historyDB)
		if err != nil {
			root = cwd
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized quizdedup project\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(historyDB))
		if wroteConfig {
			fmt.Printf("  Config: %s\n", cyan(configPath))
		} else {
			fmt.Printf("  Config: %s %s\n", cyan(configPath), gray("(kept existing)"))
		}
		fmt.Printf("  Project root: %s\n", cyan(root))
		fmt.Println()

		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("mkdir questions && cp <bank>.json questions/"))
		fmt.Printf("  %s\n", gray("quizdedup validate"))
		fmt.Printf("  %s\n", gray("quizdedup sample --mode practice"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
