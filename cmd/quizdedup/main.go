package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/quizdedup/internal/bank"
	"github.com/steveyegge/quizdedup/internal/config"
	"github.com/steveyegge/quizdedup/internal/deduplication"
	"github.com/steveyegge/quizdedup/internal/storage"
)

var (
	bankPaths []string
	dbPath    string
	verbose   bool
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "quizdedup",
	Short: "Draw duplicate-free question sets from quiz banks",
	Long: `quizdedup samples exam and practice question sets from JSON or YAML
question banks, rejecting questions that are near-duplicates of ones already
chosen. When a bank cannot supply enough distinct questions the similarity
threshold is relaxed step by step and each step is reported.

Settings come from flags, then QUIZDEDUP_* environment variables, then
.quizdedup/config.yaml, then built-in defaults.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&bankPaths, "bank", nil, "Question bank file or directory (repeatable; overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "History database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs a text slog handler on stderr. log.Printf output
// from the library packages is routed through it as well.
func setupLogging() {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// project is the resolved project context for a command
type project struct {
	root   string // directory holding .quizdedup/, or the working directory
	dir    string // .quizdedup/ path; empty when not initialized
	config *config.ProjectConfig
}

// loadProject discovers the project and its config. An uninitialized
// directory yields defaults so --bank works anywhere.
func loadProject() (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	p := &project{root: cwd, config: config.DefaultConfig()}

	dir, err := storage.DiscoverProject()
	if err != nil {
		slog.Debug("no project directory", "error", err)
		return p, nil
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	p.dir = dir
	p.root = filepath.Dir(dir)
	p.config = cfg
	return p, nil
}

// mustLoadProject is loadProject for command bodies
func mustLoadProject() *project {
	p, err := loadProject()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return p
}

// sources returns the bank paths from --bank or the project config
func (p *project) sources() ([]string, error) {
	if len(bankPaths) > 0 {
		return bankPaths, nil
	}
	if p.dir == "" {
		return nil, fmt.Errorf("no question bank given\n" +
			"  Use --bank to name a bank file or directory\n" +
			"  Or run 'quizdedup init' and list banks in .quizdedup/config.yaml")
	}
	return p.config.BankPaths(p.root), nil
}

// dedupConfig returns the YAML dedup section with environment overrides
func (p *project) dedupConfig() (deduplication.Config, error) {
	cfg, err := p.config.DeduplicationConfig()
	if err != nil {
		return cfg, fmt.Errorf("invalid dedup configuration: %w", err)
	}
	slog.Debug("deduplication config", "config", cfg.String())
	return cfg, nil
}

// openRepository builds a file repository over the configured banks.
// A zero seed draws one from the clock.
func (p *project) openRepository(cfg deduplication.Config, seed int64) (*bank.FileRepository, error) {
	paths, err := p.sources()
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return bank.NewFileRepository(paths, cfg,
		bank.WithRand(rand.New(rand.NewSource(seed))),
		bank.WithLogger(slog.Default()))
}

// historyPath resolves the history database: --db, then QUIZDEDUP_DB_PATH,
// then the project config.
func (p *project) historyPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if p.dir == "" {
		return storage.DiscoverDatabase()
	}
	if env := os.Getenv("QUIZDEDUP_DB_PATH"); env != "" {
		return env, nil
	}
	return p.config.HistoryPath(p.dir), nil
}

// openHistory opens the history database, or returns nil when history is
// disabled or no database can be located.
func (p *project) openHistory(ctx context.Context) (storage.Storage, error) {
	if !p.config.History.Enabled && dbPath == "" {
		return nil, nil
	}
	path, err := p.historyPath()
	if err != nil {
		slog.Debug("history disabled", "reason", err)
		return nil, nil
	}
	return storage.NewStorage(ctx, &storage.Config{Path: path})
}
