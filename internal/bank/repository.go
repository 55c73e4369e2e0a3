// Package bank loads question banks from disk and serves selections from them.
package bank

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/steveyegge/quizdedup/internal/deduplication"
	"github.com/steveyegge/quizdedup/internal/types"
	"golang.org/x/sync/errgroup"
)

// Repository provides read access to a question bank
type Repository interface {
	// FindAll returns every question, or only those in lang when lang is non-empty
	FindAll(ctx context.Context, lang string) ([]*types.Question, error)

	// FindByID returns the first question loaded with id, or a *types.NotFoundError
	FindByID(ctx context.Context, id string) (*types.Question, error)

	// FindRandom returns up to filter.Count shuffled questions without deduplication
	FindRandom(ctx context.Context, filter Filter) ([]*types.Question, error)

	// FindRandomWithoutDuplication draws a deduplicated selection
	FindRandomWithoutDuplication(ctx context.Context, req types.SamplingRequest) (*deduplication.SampleResult, error)

	// Summary reports the bank's size by domain and language
	Summary(ctx context.Context) (*Summary, error)

	// Reload discards the loaded questions and reads the sources again
	Reload(ctx context.Context) error
}

// Filter narrows FindRandom
type Filter struct {
	Domain types.Domain // empty for all domains
	Lang   string       // empty for all languages
	Count  int
}

// Summary describes the loaded bank
type Summary struct {
	Files    int
	Total    int
	ByDomain map[types.Domain]int
	ByLang   map[string]int
	LoadedAt time.Time
}

// Compile-time check that FileRepository implements Repository
var _ Repository = (*FileRepository)(nil)

// FileRepository serves questions loaded from JSON or YAML bank files.
// Files are read on first use and kept in memory until Reload.
type FileRepository struct {
	paths   []string
	sampler *deduplication.Sampler
	rng     *rand.Rand

	mu        sync.Mutex // guards everything below, and rng
	loaded    bool
	files     int
	questions []*types.Question
	byID      map[string]*types.Question
	loadedAt  time.Time
}

// Option configures a FileRepository
type Option func(*options)

type options struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// WithRand sets the random source shared by FindRandom and the sampler
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithLogger sets the logger handed to the sampler
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewFileRepository creates a repository over the given files or directories.
// Nothing is read until the first query.
func NewFileRepository(paths []string, cfg deduplication.Config, opts ...Option) (*FileRepository, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one bank path is required")
	}
	r, err := newRepository(cfg, opts)
	if err != nil {
		return nil, err
	}
	r.paths = append([]string(nil), paths...)
	return r, nil
}

// NewRepositoryFromQuestions creates a repository over questions already in memory.
// Reload is a no-op for such a repository.
func NewRepositoryFromQuestions(questions []*types.Question, cfg deduplication.Config, opts ...Option) (*FileRepository, error) {
	r, err := newRepository(cfg, opts)
	if err != nil {
		return nil, err
	}
	r.setQuestions(questions, 0)
	return r, nil
}

func newRepository(cfg deduplication.Config, opts []Option) (*FileRepository, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	samplerOpts := []deduplication.Option{deduplication.WithRand(o.rng)}
	if o.logger != nil {
		samplerOpts = append(samplerOpts, deduplication.WithLogger(o.logger))
	}
	sampler, err := deduplication.NewSampler(cfg, samplerOpts...)
	if err != nil {
		return nil, err
	}
	return &FileRepository{sampler: sampler, rng: o.rng}, nil
}

func (r *FileRepository) setQuestions(questions []*types.Question, files int) {
	byID := make(map[string]*types.Question, len(questions))
	for _, q := range questions {
		if _, exists := byID[q.ID]; !exists {
			byID[q.ID] = q
		}
	}
	r.questions = questions
	r.byID = byID
	r.files = files
	r.loaded = true
	r.loadedAt = time.Now()
}

// ensureLoaded loads the bank once. Caller must hold r.mu.
func (r *FileRepository) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	files, err := ExpandPaths(r.paths)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}

	results := make([][]*types.Question, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			qs, err := LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}

	var all []*types.Question
	for _, qs := range results {
		all = append(all, qs...)
	}
	r.setQuestions(all, len(files))
	log.Printf("[BANK] Loaded %d questions from %d files", len(all), len(files))
	return nil
}

// FindAll returns every question, or only those in lang
func (r *FileRepository) FindAll(ctx context.Context, lang string) ([]*types.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return deduplication.FilterCandidates(r.questions, lang, ""), nil
}

// FindByID returns the first question with id
func (r *FileRepository) FindByID(ctx context.Context, id string) (*types.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	q, ok := r.byID[id]
	if !ok {
		return nil, &types.NotFoundError{Resource: "question", ID: id}
	}
	return q, nil
}

// FindRandom returns up to filter.Count shuffled questions matching the filter
func (r *FileRepository) FindRandom(ctx context.Context, filter Filter) ([]*types.Question, error) {
	if filter.Count <= 0 {
		return nil, fmt.Errorf("count must be positive (got %d)", filter.Count)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	candidates := deduplication.FilterCandidates(r.questions, filter.Lang, filter.Domain)
	r.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > filter.Count {
		candidates = candidates[:filter.Count]
	}
	return candidates, nil
}

// FindRandomWithoutDuplication draws a deduplicated selection from the bank
func (r *FileRepository) FindRandomWithoutDuplication(ctx context.Context, req types.SamplingRequest) (*deduplication.SampleResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return r.sampler.Sample(r.questions, req)
}

// Summary reports the bank's size by domain and language
func (r *FileRepository) Summary(ctx context.Context) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s := &Summary{
		Files:    r.files,
		Total:    len(r.questions),
		ByDomain: make(map[types.Domain]int),
		ByLang:   make(map[string]int),
		LoadedAt: r.loadedAt,
	}
	for _, q := range r.questions {
		s.ByDomain[q.Domain]++
		s.ByLang[q.Lang]++
	}
	return s, nil
}

// Reload re-reads the bank files. On failure the previous questions are kept.
func (r *FileRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return nil
	}

	wasLoaded, questions, byID, files, loadedAt := r.loaded, r.questions, r.byID, r.files, r.loadedAt
	r.loaded = false
	if err := r.ensureLoaded(ctx); err != nil {
		r.loaded, r.questions, r.byID, r.files, r.loadedAt = wasLoaded, questions, byID, files, loadedAt
		return err
	}
	return nil
}
