package deduplication

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/steveyegge/quizdedup/internal/types"
)

const (
	// ChoiceMatchThreshold is the text similarity at which two paired choices match
	ChoiceMatchThreshold = 0.8

	// ChoiceMatchRatio is the fraction of paired choices that must match
	ChoiceMatchRatio = 0.8

	// ChoiceDuplicateScore is reported for duplicates found only through their choices
	ChoiceDuplicateScore = 0.7
)

// MatchRule names the comparison rule that produced a verdict
type MatchRule string

const (
	RuleNone             MatchRule = "none"
	RuleIdentity         MatchRule = "identity"
	RuleExactStem        MatchRule = "exact_stem"
	RuleStemSimilarity   MatchRule = "stem_similarity"
	RuleChoiceSimilarity MatchRule = "choice_similarity"
)

// Verdict is the outcome of comparing a candidate against a reference question
type Verdict struct {
	// IsDuplicate is true if one of the comparison rules matched
	IsDuplicate bool `json:"is_duplicate"`

	// Score is the similarity that decided the verdict
	// Nil when no rule matched
	Score *float64 `json:"score,omitempty"`

	// Match is the reference question the candidate duplicates
	// Only set when IsDuplicate is true
	Match *types.Question `json:"-"`

	// Rule is the comparison rule that matched, or RuleNone
	Rule MatchRule `json:"rule"`
}

// Validate checks if the verdict is internally consistent
func (v *Verdict) Validate() error {
	if v.IsDuplicate {
		if v.Score == nil {
			return fmt.Errorf("score must be set when is_duplicate is true")
		}
		if v.Match == nil {
			return fmt.Errorf("match must be set when is_duplicate is true")
		}
		if v.Rule == RuleNone || v.Rule == "" {
			return fmt.Errorf("rule must be set when is_duplicate is true")
		}
	} else {
		if v.Score != nil {
			return fmt.Errorf("score should not be set when is_duplicate is false")
		}
		if v.Match != nil {
			return fmt.Errorf("match should not be set when is_duplicate is false")
		}
	}
	if v.Score != nil && (*v.Score < 0.0 || *v.Score > 1.0) {
		return fmt.Errorf("score must be between 0.0 and 1.0 (got %.2f)", *v.Score)
	}
	return nil
}

// ScoreOr returns the score, or def when there is none
func (v *Verdict) ScoreOr(def float64) float64 {
	if v.Score == nil {
		return def
	}
	return *v.Score
}

func duplicateOf(ref *types.Question, score float64, rule MatchRule) Verdict {
	return Verdict{IsDuplicate: true, Score: &score, Match: ref, Rule: rule}
}

// Engine bundles a threshold and choice setting so callers share one configuration
type Engine struct {
	Threshold    float64
	CheckChoices bool
}

// NewEngine returns an Engine for the given settings
func NewEngine(threshold float64, checkChoices bool) Engine {
	return Engine{Threshold: threshold, CheckChoices: checkChoices}
}

// Compare applies Compare with the engine's settings
func (e Engine) Compare(candidate, ref *types.Question) Verdict {
	return Compare(candidate, ref, e.Threshold, e.CheckChoices)
}

// Compare decides whether candidate duplicates ref.
// Rules are tried in order: id, exact stem, stem similarity, choice similarity.
func Compare(candidate, ref *types.Question, threshold float64, checkChoices bool) Verdict {
	if candidate.ID == ref.ID {
		return duplicateOf(ref, 1.0, RuleIdentity)
	}

	if candidate.Stem == ref.Stem {
		return duplicateOf(ref, 1.0, RuleExactStem)
	}

	if sim := TextSimilarity(candidate.Stem, ref.Stem); sim >= threshold {
		return duplicateOf(ref, sim, RuleStemSimilarity)
	}

	if checkChoices && ChoiceSimilarity(candidate.ChoiceTexts(), ref.ChoiceTexts()) {
		return duplicateOf(ref, ChoiceDuplicateScore, RuleChoiceSimilarity)
	}

	return Verdict{Rule: RuleNone}
}

// TextSimilarity returns 1 - editDistance/maxLength over the lower-cased,
// trimmed inputs, measured in runes. Two empty strings are identical.
func TextSimilarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	maxLen := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.Distance(na, nb, nil)
	return 1.0 - float64(dist)/float64(maxLen)
}

// ChoiceSimilarity reports whether two choice sets are near-identical.
// Texts are normalized and sorted, then paired by position; sets of
// different size never match.
func ChoiceSimilarity(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}

	sa, sb := sortedNormalized(a), sortedNormalized(b)
	matched := 0
	for i := range sa {
		if TextSimilarity(sa[i], sb[i]) >= ChoiceMatchThreshold {
			matched++
		}
	}
	return float64(matched)/float64(len(sa)) >= ChoiceMatchRatio
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sortedNormalized(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = normalize(t)
	}
	sort.Strings(out)
	return out
}
