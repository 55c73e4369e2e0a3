package deduplication

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/steveyegge/quizdedup/internal/types"
)

// Sampler draws deduplicated question sets from a pool
type Sampler struct {
	config Config
	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures a Sampler
type Option func(*Sampler)

// WithRand sets the random source used to shuffle candidates
func WithRand(rng *rand.Rand) Option {
	return func(s *Sampler) {
		s.rng = rng
	}
}

// WithLogger sets the logger that receives relaxation warnings
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) {
		s.logger = logger
	}
}

// Compile-time check that Sampler implements QuestionSampler
var _ QuestionSampler = (*Sampler)(nil)

// QuestionSampler is implemented by anything that can draw a deduplicated selection
type QuestionSampler interface {
	Sample(pool []*types.Question, req types.SamplingRequest) (*SampleResult, error)
}

// NewSampler creates a Sampler.
// Returns an error if the configuration is invalid.
func NewSampler(cfg Config, opts ...Option) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deduplication config: %w", err)
	}

	s := &Sampler{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Config returns the sampler's configuration
func (s *Sampler) Config() Config {
	return s.config
}

// SampleResult is a selection plus the record of how it was made
type SampleResult struct {
	// Questions are the accepted questions in acceptance order
	Questions []*types.Question `json:"-"`

	// Requested is the count asked for
	Requested int `json:"requested"`

	// InitialThreshold is the threshold of the first pass
	InitialThreshold float64 `json:"initial_threshold"`

	// FinalThreshold is the threshold of the pass that produced Questions
	FinalThreshold float64 `json:"final_threshold"`

	// CheckChoices reports whether the choice rule was applied
	CheckChoices bool `json:"check_choices"`

	// Relaxations lists each threshold step, in order
	Relaxations []types.RelaxationRecord `json:"relaxations,omitempty"`

	Stats SampleStats `json:"stats"`
}

// SampleStats tracks the work a Sample call did
type SampleStats struct {
	// Candidates is the pool size after language/domain filtering
	Candidates int `json:"candidates"`

	// Attempts is the number of passes run
	Attempts int `json:"attempts"`

	// Comparisons counts engine comparisons across all passes
	Comparisons int `json:"comparisons"`

	// Rejected counts candidates rejected as duplicates in the final pass
	Rejected int `json:"rejected"`

	ProcessingTime time.Duration `json:"processing_time"`
}

// Shortfall is the number of requested questions that could not be supplied
func (r *SampleResult) Shortfall() int {
	return r.Requested - len(r.Questions)
}

// Relaxed reports whether the threshold was lowered
func (r *SampleResult) Relaxed() bool {
	return len(r.Relaxations) > 0
}

// IDs returns the ids of the selected questions in order
func (r *SampleResult) IDs() []string {
	ids := make([]string, len(r.Questions))
	for i, q := range r.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Validate checks if the result satisfies its size bounds
func (r *SampleResult) Validate() error {
	if len(r.Questions) > r.Requested {
		return fmt.Errorf("selected %d questions but only %d requested", len(r.Questions), r.Requested)
	}
	if len(r.Questions) > r.Stats.Candidates {
		return fmt.Errorf("selected %d questions from %d candidates", len(r.Questions), r.Stats.Candidates)
	}
	if r.FinalThreshold > r.InitialThreshold {
		return fmt.Errorf("final_threshold %.2f above initial %.2f", r.FinalThreshold, r.InitialThreshold)
	}
	return nil
}

// Sample selects up to req.Count questions from pool such that no two are
// duplicates under the pass's threshold. A short result is not an error.
func (s *Sampler) Sample(pool []*types.Question, req types.SamplingRequest) (*SampleResult, error) {
	start := time.Now()

	req = s.applyDefaults(req)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampling request: %w", err)
	}

	candidates := FilterCandidates(pool, req.Lang, req.DomainFilter())
	result := &SampleResult{
		Requested:        req.Count,
		InitialThreshold: req.SimilarityThreshold,
		CheckChoices:     req.ChecksChoices(),
		Stats:            SampleStats{Candidates: len(candidates)},
	}

	threshold := req.SimilarityThreshold
	for attempt := 1; ; attempt++ {
		engine := NewEngine(threshold, result.CheckChoices)
		accepted, comparisons, rejected := s.pass(candidates, req.Count, engine)

		result.Questions = accepted
		result.FinalThreshold = threshold
		result.Stats.Attempts = attempt
		result.Stats.Comparisons += comparisons
		result.Stats.Rejected = rejected

		if len(accepted) >= req.Count || threshold <= s.config.RelaxationFloor || attempt >= s.config.MaxAttempts {
			break
		}

		next := relax(threshold, s.config.RelaxationStep, s.config.RelaxationFloor)
		s.logger.Warn("similarity threshold relaxed",
			"attempt", attempt,
			"from", threshold,
			"to", next,
			"accepted", len(accepted),
			"requested", req.Count)
		result.Relaxations = append(result.Relaxations, types.RelaxationRecord{
			Attempt:  attempt,
			From:     threshold,
			To:       next,
			Accepted: len(accepted),
		})
		threshold = next
	}

	result.Stats.ProcessingTime = time.Since(start)
	return result, nil
}

func (s *Sampler) applyDefaults(req types.SamplingRequest) types.SamplingRequest {
	if req.SimilarityThreshold == 0 {
		req.SimilarityThreshold = s.config.SimilarityThreshold
	}
	if req.CheckChoices == nil {
		req.CheckChoices = types.BoolPtr(s.config.CheckChoices)
	}
	return req.WithDefaults()
}

// pass runs one shuffle-and-accept walk over the candidates
func (s *Sampler) pass(candidates []*types.Question, count int, engine Engine) (accepted []*types.Question, comparisons, rejected int) {
	order := make([]*types.Question, len(candidates))
	copy(order, candidates)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	accepted = make([]*types.Question, 0, min(count, len(order)))
	for _, candidate := range order {
		if len(accepted) >= count {
			break
		}
		duplicate := false
		for _, kept := range accepted {
			comparisons++
			if engine.Compare(candidate, kept).IsDuplicate {
				duplicate = true
				break
			}
		}
		if duplicate {
			rejected++
			continue
		}
		accepted = append(accepted, candidate)
	}
	return accepted, comparisons, rejected
}

// relax lowers threshold by step, rounded to one decimal place, and clamps
// the result to floor. Returns a value strictly below threshold as long as
// threshold is above floor.
func relax(threshold, step, floor float64) float64 {
	next := math.Round((threshold-step)*10) / 10
	if next >= threshold {
		next = threshold - step
	}
	return max(next, floor)
}

// FilterCandidates returns the questions matching lang and domain.
// Empty values match everything.
func FilterCandidates(pool []*types.Question, lang string, domain types.Domain) []*types.Question {
	out := make([]*types.Question, 0, len(pool))
	for _, q := range pool {
		if lang != "" && q.Lang != lang {
			continue
		}
		if domain != "" && q.Domain != domain {
			continue
		}
		out = append(out, q)
	}
	return out
}
