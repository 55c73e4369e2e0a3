package deduplication

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/steveyegge/quizdedup/internal/types"
	"golang.org/x/sync/errgroup"
)

// DuplicatePair is one pair of questions the engine considers duplicates.
// First precedes Second in the audited pool.
type DuplicatePair struct {
	First  *types.Question
	Second *types.Question
	Score  float64
	Rule   MatchRule
}

// AuditReport lists every duplicate pair in a pool
type AuditReport struct {
	Pairs []DuplicatePair
	Stats AuditStats
}

// AuditStats tracks the work an Audit call did
type AuditStats struct {
	Questions      int
	Comparisons    int
	ProcessingTime time.Duration
}

// Audit compares every pair in pool with engine and reports the duplicates,
// ordered by position in the pool. Rows are compared in parallel; the
// context cancels outstanding work.
func Audit(ctx context.Context, pool []*types.Question, engine Engine) (*AuditReport, error) {
	start := time.Now()
	n := len(pool)
	rows := make([][]DuplicatePair, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				v := engine.Compare(pool[j], pool[i])
				if v.IsDuplicate {
					rows[i] = append(rows[i], DuplicatePair{
						First:  pool[i],
						Second: pool[j],
						Score:  v.ScoreOr(0),
						Rule:   v.Rule,
					})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &AuditReport{
		Stats: AuditStats{
			Questions:   n,
			Comparisons: n * (n - 1) / 2,
		},
	}
	for _, row := range rows {
		report.Pairs = append(report.Pairs, row...)
	}
	report.Stats.ProcessingTime = time.Since(start)
	return report, nil
}

// DuplicateIDs returns the ids that appear as the later member of a pair,
// each with its highest score, sorted by id
func (r *AuditReport) DuplicateIDs() []types.DuplicateEntry {
	best := make(map[string]types.DuplicateEntry)
	for _, p := range r.Pairs {
		e, ok := best[p.Second.ID]
		if !ok || p.Score > e.SimilarityScore {
			best[p.Second.ID] = types.DuplicateEntry{
				ID:              p.Second.ID,
				Stem:            p.Second.Stem,
				SimilarityScore: p.Score,
			}
		}
	}

	entries := make([]types.DuplicateEntry, 0, len(best))
	for _, e := range best {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Err returns a *types.DuplicateQuestionsError when duplicates were found
func (r *AuditReport) Err() error {
	if len(r.Pairs) == 0 {
		return nil
	}
	return &types.DuplicateQuestionsError{Duplicates: r.DuplicateIDs()}
}
