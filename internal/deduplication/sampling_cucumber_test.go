//go:build cucumber

package deduplication

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/steveyegge/quizdedup/internal/types"
)

// TestSamplingFeatures executes the sampling feature scenarios via godog.
func TestSamplingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "sampling",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "features", "sampling.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeScenario wires step definitions for the sampling feature tests.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &samplingState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a question "([^"]+)" in "([^"]+)" with stem "([^"]+)"$`, state.givenQuestion)
	ctx.Step(`^a question "([^"]+)" in "([^"]+)" with stem "([^"]+)" and choices "([^"]+)"$`, state.givenQuestionWithChoices)
	ctx.Step(`^I compare the two questions at threshold ([0-9.]+) with choices (checked|ignored)$`, state.compare)
	ctx.Step(`^the questions are duplicates with score ([0-9.]+)$`, state.duplicateWithScore)
	ctx.Step(`^the questions are duplicates with a score above ([0-9.]+)$`, state.duplicateAbove)
	ctx.Step(`^the questions are not duplicates$`, state.notDuplicate)
	ctx.Step(`^I sample (\d+) questions from "([^"]+)" with seed (\d+)$`, state.sample)
	ctx.Step(`^at most (\d+) questions are selected$`, state.atMostSelected)
	ctx.Step(`^at least (\d+) relaxation warnings? (?:was|were) logged$`, state.atLeastWarnings)
}

// samplingState holds scenario state for the feature tests.
type samplingState struct {
	questions []*types.Question
	verdict   Verdict
	result    *SampleResult
	logs      bytes.Buffer
}

func (s *samplingState) reset() {
	s.questions = nil
	s.verdict = Verdict{}
	s.result = nil
	s.logs.Reset()
}

func (s *samplingState) givenQuestion(id, domain, stem string) error {
	return s.givenQuestionWithChoices(id, domain, stem, "first option|second option")
}

func (s *samplingState) givenQuestionWithChoices(id, domain, stem, choices string) error {
	raw := types.RawQuestion{
		ID:      id,
		Lang:    "en",
		Domain:  types.Domain(domain),
		Stem:    stem,
		Choices: map[types.ChoiceLabel]string{},
		Answer:  "A",
	}
	for i, c := range strings.Split(choices, "|") {
		raw.Choices[types.ChoiceLabel(rune('A'+i))] = c
	}
	q, err := types.NewQuestion(raw)
	if err != nil {
		return err
	}
	s.questions = append(s.questions, q)
	return nil
}

func (s *samplingState) compare(threshold float64, mode string) error {
	if len(s.questions) != 2 {
		return fmt.Errorf("expected two questions, have %d", len(s.questions))
	}
	s.verdict = Compare(s.questions[0], s.questions[1], threshold, mode == "checked")
	return s.verdict.Validate()
}

func (s *samplingState) duplicateWithScore(score float64) error {
	if !s.verdict.IsDuplicate {
		return fmt.Errorf("expected duplicate, got rule %s", s.verdict.Rule)
	}
	if got := s.verdict.ScoreOr(-1); got != score {
		return fmt.Errorf("expected score %.2f, got %.4f", score, got)
	}
	return nil
}

func (s *samplingState) duplicateAbove(score float64) error {
	if !s.verdict.IsDuplicate {
		return fmt.Errorf("expected duplicate, got rule %s", s.verdict.Rule)
	}
	if got := s.verdict.ScoreOr(-1); got <= score {
		return fmt.Errorf("expected score above %.2f, got %.4f", score, got)
	}
	return nil
}

func (s *samplingState) notDuplicate() error {
	if s.verdict.IsDuplicate {
		return fmt.Errorf("expected no duplicate, got rule %s with score %.4f", s.verdict.Rule, s.verdict.ScoreOr(-1))
	}
	if s.verdict.Score != nil {
		return fmt.Errorf("expected no score")
	}
	return nil
}

func (s *samplingState) sample(count int, domain string, seed int64) error {
	logger := slog.New(slog.NewTextHandler(&s.logs, nil))
	sampler, err := NewSampler(DefaultConfig(), WithRand(rand.New(rand.NewSource(seed))), WithLogger(logger))
	if err != nil {
		return err
	}
	s.result, err = sampler.Sample(s.questions, types.SamplingRequest{
		Count:  count,
		Domain: types.DomainPtr(types.Domain(domain)),
	})
	return err
}

func (s *samplingState) atMostSelected(n int) error {
	if got := len(s.result.Questions); got > n {
		return fmt.Errorf("expected at most %d questions, got %d", n, got)
	}
	return nil
}

func (s *samplingState) atLeastWarnings(n int) error {
	got := strings.Count(s.logs.String(), "similarity threshold relaxed")
	if got < n {
		return fmt.Errorf("expected at least %d relaxation warnings, got %d", n, got)
	}
	return nil
}
