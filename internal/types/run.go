package types

import (
	"fmt"
	"math"
	"time"
)

// SamplingRun is the persisted record of one selection
type SamplingRun struct {
	ID               string             `json:"id"`
	Mode             Mode               `json:"mode"`
	Domain           Domain             `json:"domain,omitempty"`
	Lang             string             `json:"lang,omitempty"`
	Requested        int                `json:"requested"`
	Returned         int                `json:"returned"`
	Deduplicated     bool               `json:"deduplicated"`
	CheckChoices     bool               `json:"check_choices"`
	InitialThreshold float64            `json:"initial_threshold"`
	FinalThreshold   float64            `json:"final_threshold"`
	Relaxations      []RelaxationRecord `json:"relaxations,omitempty"`
	QuestionIDs      []string           `json:"question_ids"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Validate checks if the run has valid field values
func (r *SamplingRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("invalid mode: %s", r.Mode)
	}
	if r.Domain != "" && !r.Domain.IsValid() {
		return fmt.Errorf("invalid domain: %s", r.Domain)
	}
	if r.Requested <= 0 {
		return fmt.Errorf("requested must be positive (got %d)", r.Requested)
	}
	if r.Returned < 0 || r.Returned > r.Requested {
		return fmt.Errorf("returned must be between 0 and %d (got %d)", r.Requested, r.Returned)
	}
	if r.Returned != len(r.QuestionIDs) {
		return fmt.Errorf("returned (%d) does not match question_ids (%d)", r.Returned, len(r.QuestionIDs))
	}
	if math.IsNaN(r.InitialThreshold) || math.IsNaN(r.FinalThreshold) {
		return fmt.Errorf("thresholds must be numbers (got %v -> %v)", r.InitialThreshold, r.FinalThreshold)
	}
	return nil
}

// Short reports whether the run returned fewer questions than requested
func (r *SamplingRun) Short() bool {
	return r.Returned < r.Requested
}

// RelaxationRecord is one threshold step taken while sampling
type RelaxationRecord struct {
	Attempt  int     `json:"attempt"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	Accepted int     `json:"accepted"` // accepted before the step
}

// RunFilter narrows ListRuns
type RunFilter struct {
	Mode      Mode
	Domain    Domain
	ShortOnly bool
	Limit     int
}

// RunStats aggregates stored runs
type RunStats struct {
	TotalRuns             int
	ShortRuns             int
	RelaxedRuns           int
	AverageFinalThreshold float64
	RunsByDomain          map[string]int
	QuestionsServed       int
}
