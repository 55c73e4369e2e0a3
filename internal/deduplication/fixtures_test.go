package deduplication

import (
	"fmt"
	"testing"

	"github.com/steveyegge/quizdedup/internal/types"
	"github.com/stretchr/testify/require"
)

// newQuestion builds a valid question; choices are labelled A, B, C, ...
func newQuestion(t *testing.T, id, lang string, domain types.Domain, stem string, choices ...string) *types.Question {
	t.Helper()
	if len(choices) == 0 {
		choices = []string{"first option", "second option"}
	}
	raw := types.RawQuestion{
		ID:      id,
		Lang:    lang,
		Domain:  domain,
		Stem:    stem,
		Choices: make(map[types.ChoiceLabel]string, len(choices)),
		Answer:  "A",
	}
	for i, c := range choices {
		raw.Choices[types.ChoiceLabel(rune('A'+i))] = c
	}
	q, err := types.NewQuestion(raw)
	require.NoError(t, err)
	return q
}

// distinctPool returns questions that are pairwise non-duplicates at 0.8 with choices checked
func distinctPool(t *testing.T) []*types.Question {
	t.Helper()
	specs := []struct {
		domain  types.Domain
		stem    string
		choices []string
	}{
		{types.DomainCloudConcepts, "What does the shared responsibility model describe?",
			[]string{"responsibility", "elasticity", "durability", "agility"}},
		{types.DomainTechnology, "Which service provides managed relational databases?",
			[]string{"aurora", "dynamodb", "redshift", "neptune"}},
		{types.DomainBilling, "How can you reduce costs for steady-state workloads?",
			[]string{"reserved instances", "spot fleets", "on-demand pricing", "dedicated hosts"}},
		{types.DomainBilling, "Which tool visualizes monthly spending trends?",
			[]string{"cost explorer", "budgets", "pricing calculator", "trusted advisor"}},
		{types.DomainSecurity, "What protects web applications from common exploits?",
			[]string{"waf", "shield", "guardduty", "inspector"}},
		{types.DomainTechnology, "Where should long-term archival data be stored?",
			[]string{"glacier deep archive", "elastic block store", "instance store", "elastic file system"}},
		{types.DomainSecurity, "Which feature lets you grant temporary credentials?",
			[]string{"security token service", "cognito user pools", "organizations", "artifact"}},
		{types.DomainCloudConcepts, "What is the benefit of deploying across multiple regions?",
			[]string{"fault tolerance", "lower cost", "simpler billing", "fewer accounts"}},
		{types.DomainBilling, "Which support plan includes a technical account manager?",
			[]string{"enterprise", "business", "developer", "basic"}},
		{types.DomainTechnology, "How do edge locations improve content delivery latency?",
			[]string{"cloudfront", "direct connect", "global accelerator", "transit gateway"}},
	}

	pool := make([]*types.Question, 0, len(specs))
	for i, s := range specs {
		pool = append(pool, newQuestion(t, fmt.Sprintf("d%02d", i+1), "en", s.domain, s.stem, s.choices...))
	}
	return pool
}

// nearDuplicatePool returns three security questions whose stems are all
// similar above 0.5 to one another
func nearDuplicatePool(t *testing.T) []*types.Question {
	t.Helper()
	return []*types.Question{
		newQuestion(t, "n1", "en", types.DomainSecurity, "What is Amazon S3 used for?", "object storage", "compute"),
		newQuestion(t, "n2", "en", types.DomainSecurity, "What is Amazon S3 used for ?", "storing objects", "servers"),
		newQuestion(t, "n3", "en", types.DomainSecurity, "what is amazon s3 used for??", "blob storage", "queues"),
	}
}
