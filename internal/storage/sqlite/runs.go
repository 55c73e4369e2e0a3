package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/quizdedup/internal/types"
)

// RecordRun stores a sampling run with its relaxations and selected ids.
// If run.ID is empty a UUID is assigned; a zero CreatedAt becomes now.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *types.SamplingRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid sampling run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sampling_runs (
			id, mode, domain, lang, requested, returned,
			deduplicated, check_choices, initial_threshold, final_threshold, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		string(run.Mode),
		string(run.Domain),
		run.Lang,
		run.Requested,
		run.Returned,
		run.Deduplicated,
		run.CheckChoices,
		run.InitialThreshold,
		run.FinalThreshold,
		run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sampling run: %w", err)
	}

	for i, id := range run.QuestionIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_questions (run_id, position, question_id) VALUES (?, ?, ?)",
			run.ID, i, id,
		); err != nil {
			return fmt.Errorf("failed to insert run question: %w", err)
		}
	}

	for _, r := range run.Relaxations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_relaxations (run_id, attempt, from_threshold, to_threshold, accepted)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, r.Attempt, r.From, r.To, r.Accepted); err != nil {
			return fmt.Errorf("failed to insert relaxation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sampling run: %w", err)
	}
	return nil
}

const runColumns = `
	id, mode, domain, lang, requested, returned,
	deduplicated, check_choices, initial_threshold, final_threshold, created_at
`

// GetRun retrieves a run by id, or returns a *types.NotFoundError
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*types.SamplingRun, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM sampling_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Resource: "sampling run", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sampling run: %w", err)
	}
	if err := s.loadRunDetails(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter types.RunFilter) ([]*types.SamplingRun, error) {
	var where []string
	var args []interface{}
	if filter.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, string(filter.Mode))
	}
	if filter.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, string(filter.Domain))
	}
	if filter.ShortOnly {
		where = append(where, "returned < requested")
	}

	query := "SELECT " + runColumns + " FROM sampling_runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sampling runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*types.SamplingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sampling run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sampling runs: %w", err)
	}
	// Close before issuing detail queries on the same connection
	_ = rows.Close()

	for _, run := range runs {
		if err := s.loadRunDetails(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRunStats aggregates all stored runs
func (s *SQLiteStorage) GetRunStats(ctx context.Context) (*types.RunStats, error) {
	stats := &types.RunStats{RunsByDomain: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN returned < requested THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN deduplicated = 1 THEN final_threshold END), 0),
			COALESCE(SUM(returned), 0)
		FROM sampling_runs
	`).Scan(&stats.TotalRuns, &stats.ShortRuns, &stats.AverageFinalThreshold, &stats.QuestionsServed)
	if err != nil {
		return nil, fmt.Errorf("failed to get run totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT run_id) FROM run_relaxations").Scan(&stats.RelaxedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to count relaxed runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM sampling_runs GROUP BY domain")
	if err != nil {
		return nil, fmt.Errorf("failed to get runs by domain: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var domain string
		var count int
		if err := rows.Scan(&domain, &count); err != nil {
			return nil, fmt.Errorf("failed to scan domain count: %w", err)
		}
		if domain == "" {
			domain = "all"
		}
		stats.RunsByDomain[domain] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domain counts: %w", err)
	}

	return stats, nil
}

// CleanupRuns deletes all but the newest keep runs and returns how many were deleted
func (s *SQLiteStorage) CleanupRuns(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep cannot be negative (got %d)", keep)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sampling_runs
		WHERE id NOT IN (
			SELECT id FROM sampling_runs ORDER BY created_at DESC, id LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sampling runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*types.SamplingRun, error) {
	run := &types.SamplingRun{}
	var mode, domain string
	var createdAt int64
	err := row.Scan(
		&run.ID,
		&mode,
		&domain,
		&run.Lang,
		&run.Requested,
		&run.Returned,
		&run.Deduplicated,
		&run.CheckChoices,
		&run.InitialThreshold,
		&run.FinalThreshold,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	run.Mode = types.Mode(mode)
	run.Domain = types.Domain(domain)
	run.CreatedAt = time.UnixMilli(createdAt)
	return run, nil
}

// loadRunDetails fills QuestionIDs and Relaxations
func (s *SQLiteStorage) loadRunDetails(ctx context.Context, run *types.SamplingRun) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id FROM run_questions WHERE run_id = ? ORDER BY position", run.ID)
	if err != nil {
		return fmt.Errorf("failed to query run questions: %w", err)
	}
	run.QuestionIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan run question: %w", err)
		}
		run.QuestionIDs = append(run.QuestionIDs, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("error iterating run questions: %w", err)
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT attempt, from_threshold, to_threshold, accepted
		FROM run_relaxations WHERE run_id = ? ORDER BY attempt
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query relaxations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var r types.RelaxationRecord
		if err := rows.Scan(&r.Attempt, &r.From, &r.To, &r.Accepted); err != nil {
			return fmt.Errorf("failed to scan relaxation: %w", err)
		}
		run.Relaxations = append(run.Relaxations, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating relaxations: %w", err)
	}
	return nil
}
