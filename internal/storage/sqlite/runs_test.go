package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/quizdedup/internal/storage/migrations"
	"github.com/steveyegge/quizdedup/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRun(id string, requested int, ids ...string) *types.SamplingRun {
	return &types.SamplingRun{
		ID:               id,
		Mode:             types.ModePractice,
		Domain:           types.DomainSecurity,
		Lang:             "en",
		Requested:        requested,
		Returned:         len(ids),
		Deduplicated:     true,
		CheckChoices:     true,
		InitialThreshold: 0.8,
		FinalThreshold:   0.8,
		QuestionIDs:      ids,
	}
}

func TestNew_AppliesMigrations(t *testing.T) {
	store := newTestStorage(t)

	version, err := migrations.CurrentVersion(context.Background(), store.db)
	require.NoError(t, err)
	assert.Equal(t, historyMigrations().Latest(), version)

	// Reopening an up-to-date database is a no-op
	path := store.Path()
	require.NoError(t, store.Close())
	reopened, err := New(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	version, err = migrations.CurrentVersion(context.Background(), reopened.db)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestNew_InMemory(t *testing.T) {
	store, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.RecordRun(context.Background(), newRun("mem-1", 2, "a", "b")))
	run, err := store.GetRun(context.Background(), "mem-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, run.QuestionIDs)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	run := newRun("run-1", 5, "q3", "q1", "q2")
	run.FinalThreshold = 0.6
	run.CreatedAt = created
	run.Relaxations = []types.RelaxationRecord{
		{Attempt: 1, From: 0.8, To: 0.7, Accepted: 2},
		{Attempt: 2, From: 0.7, To: 0.6, Accepted: 3},
	}
	require.NoError(t, store.RecordRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, types.ModePractice, got.Mode)
	assert.Equal(t, types.DomainSecurity, got.Domain)
	assert.Equal(t, "en", got.Lang)
	assert.Equal(t, 5, got.Requested)
	assert.Equal(t, 3, got.Returned)
	assert.True(t, got.Deduplicated)
	assert.True(t, got.CheckChoices)
	assert.InDelta(t, 0.8, got.InitialThreshold, 1e-9)
	assert.InDelta(t, 0.6, got.FinalThreshold, 1e-9)
	// Acceptance order is preserved
	assert.Equal(t, []string{"q3", "q1", "q2"}, got.QuestionIDs)
	assert.Equal(t, run.Relaxations, got.Relaxations)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, got.Short())
}

func TestRecordRun_AssignsIDAndTimestamp(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	run := newRun("", 1, "q1")
	before := time.Now().Add(-time.Second)
	require.NoError(t, store.RecordRun(ctx, run))

	assert.Len(t, run.ID, 36)
	assert.True(t, run.CreatedAt.After(before))

	_, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
}

func TestRecordRun_RejectsInvalid(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  *types.SamplingRun
	}{
		{"zero requested", newRun("r", 0)},
		{"ids mismatch", func() *types.SamplingRun {
			r := newRun("r", 3, "a")
			r.Returned = 2
			return r
		}()},
		{"bad mode", func() *types.SamplingRun {
			r := newRun("r", 1, "a")
			r.Mode = "quiz"
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.RecordRun(ctx, tt.run)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid sampling run")
		})
	}

	runs, err := store.ListRuns(ctx, types.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordRun_DuplicateIDRollsBack(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, newRun("dup", 1, "a")))
	require.Error(t, store.RecordRun(ctx, newRun("dup", 2, "b", "c")))

	got, err := store.GetRun(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.QuestionIDs)
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")
	var nf *types.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.ID)
}

func TestListRuns_Filters(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	full := newRun("full", 2, "a", "b")
	full.CreatedAt = base

	short := newRun("short", 3, "a")
	short.CreatedAt = base.Add(time.Minute)

	exam := newRun("exam", 2, "c", "d")
	exam.Mode = types.ModeExam
	exam.Domain = ""
	exam.CreatedAt = base.Add(2 * time.Minute)

	for _, r := range []*types.SamplingRun{full, short, exam} {
		require.NoError(t, store.RecordRun(ctx, r))
	}

	tests := []struct {
		name   string
		filter types.RunFilter
		want   []string
	}{
		{"all newest first", types.RunFilter{}, []string{"exam", "short", "full"}},
		{"limit", types.RunFilter{Limit: 1}, []string{"exam"}},
		{"mode", types.RunFilter{Mode: types.ModePractice}, []string{"short", "full"}},
		{"domain", types.RunFilter{Domain: types.DomainSecurity}, []string{"short", "full"}},
		{"short only", types.RunFilter{ShortOnly: true}, []string{"short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	runs, err := store.ListRuns(ctx, types.RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"c", "d"}, runs[0].QuestionIDs)
}

func TestGetRunStats(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	empty, err := store.GetRunStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRuns)
	assert.Empty(t, empty.RunsByDomain)

	relaxed := newRun("relaxed", 3, "a", "b")
	relaxed.FinalThreshold = 0.6
	relaxed.Relaxations = []types.RelaxationRecord{
		{Attempt: 1, From: 0.8, To: 0.7, Accepted: 1},
		{Attempt: 2, From: 0.7, To: 0.6, Accepted: 2},
	}
	all := newRun("all", 2, "c", "d")
	all.Domain = ""

	require.NoError(t, store.RecordRun(ctx, relaxed))
	require.NoError(t, store.RecordRun(ctx, all))

	stats, err := store.GetRunStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.ShortRuns)
	assert.Equal(t, 1, stats.RelaxedRuns)
	assert.Equal(t, 4, stats.QuestionsServed)
	assert.InDelta(t, 0.7, stats.AverageFinalThreshold, 1e-9)
	assert.Equal(t, map[string]int{"security": 1, "all": 1}, stats.RunsByDomain)
}

func TestGetRunStats_AverageIgnoresPlainRuns(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	deduped := newRun("deduped", 2, "a", "b")
	deduped.FinalThreshold = 0.7
	require.NoError(t, store.RecordRun(ctx, deduped))
	require.NoError(t, store.RecordRun(ctx, newPlainRun("plain")))

	stats, err := store.GetRunStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.InDelta(t, 0.7, stats.AverageFinalThreshold, 1e-9)

	onlyPlain := newTestStorage(t)
	require.NoError(t, onlyPlain.RecordRun(ctx, newPlainRun("p1")))
	stats, err = onlyPlain.GetRunStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Zero(t, stats.AverageFinalThreshold)
}

func newPlainRun(id string) *types.SamplingRun {
	run := newRun(id, 1, "q")
	run.Deduplicated = false
	run.InitialThreshold = 0
	run.FinalThreshold = 0
	return run
}

func TestCleanupRuns(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := newRun(fmt.Sprintf("run-%d", i), 1, "q")
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		r.Relaxations = []types.RelaxationRecord{{Attempt: 1, From: 0.8, To: 0.7}}
		require.NoError(t, store.RecordRun(ctx, r))
	}

	deleted, err := store.CleanupRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	runs, err := store.ListRuns(ctx, types.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)

	// Child rows go with their runs
	stats, err := store.GetRunStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RelaxedRuns)

	deleted, err = store.CleanupRuns(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	_, err = store.CleanupRuns(ctx, -1)
	assert.Error(t, err)
}
