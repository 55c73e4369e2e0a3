// Package exam turns a question bank into exam or practice selections.
package exam

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/quizdedup/internal/bank"
	"github.com/steveyegge/quizdedup/internal/types"
)

// HistoryStore records selections. It is satisfied by storage.Storage.
type HistoryStore interface {
	RecordRun(ctx context.Context, run *types.SamplingRun) error
	CleanupRuns(ctx context.Context, keep int) (int, error)
}

// Config holds configuration for the exam service
type Config struct {
	// Repository supplies the questions
	Repository bank.Repository

	// History records every selection
	// Optional: if nil, selections are not recorded
	History HistoryStore

	// ExamCount is the default size of a full exam
	// Default: 20
	ExamCount int

	// PracticeCount is the default size of a practice set
	// Default: 10
	PracticeCount int

	// KeepRuns prunes history to the newest N runs after each recorded run
	// Optional: 0 disables pruning
	KeepRuns int
}

// Service starts exams and practice sessions
type Service struct {
	config Config
}

// NewService creates an exam service with the provided configuration
func NewService(cfg Config) (*Service, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("Repository cannot be nil")
	}
	if cfg.ExamCount == 0 {
		cfg.ExamCount = 20
	}
	if cfg.PracticeCount == 0 {
		cfg.PracticeCount = 10
	}
	if cfg.ExamCount < 0 || cfg.PracticeCount < 0 {
		return nil, fmt.Errorf("default counts cannot be negative (exam %d, practice %d)",
			cfg.ExamCount, cfg.PracticeCount)
	}
	if cfg.KeepRuns < 0 {
		return nil, fmt.Errorf("KeepRuns cannot be negative (got %d)", cfg.KeepRuns)
	}
	return &Service{config: cfg}, nil
}

// Input describes the selection to make
type Input struct {
	// Mode defaults to exam
	Mode types.Mode

	// Domain restricts questions to one domain. Nil means all domains.
	Domain *types.Domain

	// Count overrides the mode's default count when positive
	Count int

	// Lang restricts questions to one language. Empty means all languages.
	Lang string

	// PreventDuplication defaults to true
	PreventDuplication *bool

	// SimilarityThreshold and CheckChoices fall back to the sampler's config
	SimilarityThreshold float64
	CheckChoices        *bool
}

// Selection is the outcome of Start
type Selection struct {
	RunID            string                   `json:"run_id"`
	Mode             types.Mode               `json:"mode"`
	Requested        int                      `json:"requested"`
	Questions        []*types.Question        `json:"questions"`
	Deduplicated     bool                     `json:"deduplicated"`
	CheckChoices     bool                     `json:"check_choices"`
	InitialThreshold float64                  `json:"initial_threshold,omitempty"`
	FinalThreshold   float64                  `json:"final_threshold,omitempty"`
	Relaxations      []types.RelaxationRecord `json:"relaxations,omitempty"`
}

// IDs returns the ids of the selected questions in order
func (s *Selection) IDs() []string {
	ids := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Start selects questions for a new exam or practice session.
//
// A short selection is returned together with a
// *types.InsufficientQuestionsError so callers can still report what was
// found. History failures are logged and never fail the selection.
func (s *Service) Start(ctx context.Context, in Input) (*Selection, error) {
	mode := in.Mode
	if mode == "" {
		mode = types.ModeExam
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid mode: %q", mode)
	}

	count := in.Count
	if count <= 0 {
		count = s.defaultCount(mode)
	}

	sel := &Selection{
		RunID:        uuid.New().String(),
		Mode:         mode,
		Requested:    count,
		Deduplicated: in.PreventDuplication == nil || *in.PreventDuplication,
	}

	if sel.Deduplicated {
		result, err := s.config.Repository.FindRandomWithoutDuplication(ctx, types.SamplingRequest{
			Count:               count,
			Domain:              in.Domain,
			Lang:                in.Lang,
			SimilarityThreshold: in.SimilarityThreshold,
			CheckChoices:        in.CheckChoices,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to select questions: %w", err)
		}
		sel.Questions = result.Questions
		sel.CheckChoices = result.CheckChoices
		sel.InitialThreshold = result.InitialThreshold
		sel.FinalThreshold = result.FinalThreshold
		sel.Relaxations = result.Relaxations
	} else {
		filter := bank.Filter{Lang: in.Lang, Count: count}
		if in.Domain != nil {
			filter.Domain = *in.Domain
		}
		questions, err := s.config.Repository.FindRandom(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to select questions: %w", err)
		}
		sel.Questions = questions
	}

	s.record(ctx, sel, in)

	if len(sel.Questions) < count {
		insufficient := &types.InsufficientQuestionsError{
			Requested: count,
			Available: len(sel.Questions),
		}
		if in.Domain != nil {
			insufficient.Domain = *in.Domain
		}
		return sel, insufficient
	}
	return sel, nil
}

func (s *Service) defaultCount(mode types.Mode) int {
	if mode == types.ModePractice {
		return s.config.PracticeCount
	}
	return s.config.ExamCount
}

// record stores the selection in history. Errors are logged only.
func (s *Service) record(ctx context.Context, sel *Selection, in Input) {
	if s.config.History == nil {
		return
	}

	run := &types.SamplingRun{
		ID:               sel.RunID,
		Mode:             sel.Mode,
		Lang:             in.Lang,
		Requested:        sel.Requested,
		Returned:         len(sel.Questions),
		Deduplicated:     sel.Deduplicated,
		CheckChoices:     sel.CheckChoices,
		InitialThreshold: sel.InitialThreshold,
		FinalThreshold:   sel.FinalThreshold,
		Relaxations:      sel.Relaxations,
		QuestionIDs:      sel.IDs(),
		CreatedAt:        time.Now(),
	}
	if in.Domain != nil {
		run.Domain = *in.Domain
	}

	if err := s.config.History.RecordRun(ctx, run); err != nil {
		log.Printf("[HISTORY] Failed to record run %s: %v", run.ID, err)
		return
	}

	if s.config.KeepRuns > 0 {
		deleted, err := s.config.History.CleanupRuns(ctx, s.config.KeepRuns)
		if err != nil {
			log.Printf("[HISTORY] Failed to prune runs: %v", err)
			return
		}
		if deleted > 0 {
			log.Printf("[HISTORY] Pruned %d old runs (keeping %d)", deleted, s.config.KeepRuns)
		}
	}
}
