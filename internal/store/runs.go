package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunCounts aggregates the outcome counters of one collection run.
type RunCounts struct {
	Sources   int
	Targets   int
	Succeeded int
	Failed    int
	Skipped   int
	Records   int
}

// Run is one row of collection run history.
type Run struct {
	ID         string
	Trigger    string
	StartedAt  time.Time
	FinishedAt *time.Time
	RunCounts
	ErrorMessage string
}

// Finished reports whether the run has recorded an end time.
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}

// RunTotals aggregates the whole run history for status output.
type RunTotals struct {
	Runs          int
	Records       int
	FailedTargets int
	FailedRuns    int
	LastStarted   time.Time
}

const runColumns = "id, triggered_by, started_at, finished_at, sources, targets, succeeded, failed, skipped, records, error_message"

// StartRun inserts a new run in the running state.
func (s *Store) StartRun(ctx context.Context, id, trigger string, startedAt time.Time) error {
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO runs (id, triggered_by, started_at) VALUES (?, ?, ?)`,
		id, trigger, startedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a previously started run.
func (s *Store) FinishRun(ctx context.Context, id string, finishedAt time.Time, counts RunCounts, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET finished_at = ?, sources = ?, targets = ?, succeeded = ?,
             failed = ?, skipped = ?, records = ?, error_message = ?
         WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano),
		counts.Sources,
		counts.Targets,
		counts.Succeeded,
		counts.Failed,
		counts.Skipped,
		counts.Records,
		nullableString(message),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun fetches one run by id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns the most recently started runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Totals aggregates the run history.
func (s *Store) Totals(ctx context.Context) (RunTotals, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(records), 0),
               COALESCE(SUM(failed), 0),
               COALESCE(SUM(CASE WHEN error_message IS NOT NULL THEN 1 ELSE 0 END), 0),
               COALESCE(MAX(started_at), '')
        FROM runs`)

	var totals RunTotals
	var lastStarted string
	if err := row.Scan(&totals.Runs, &totals.Records, &totals.FailedTargets, &totals.FailedRuns, &lastStarted); err != nil {
		return RunTotals{}, fmt.Errorf("run totals: %w", err)
	}
	if started, err := parseTimeString(lastStarted); err == nil {
		totals.LastStarted = started
	}
	return totals, nil
}

// PruneRuns deletes all but the newest keep runs and returns the number
// removed.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		trigger      string
		startedRaw   string
		finishedRaw  sql.NullString
		errorMessage sql.NullString
	)
	run := &Run{}
	if err := scanner.Scan(
		&id,
		&trigger,
		&startedRaw,
		&finishedRaw,
		&run.Sources,
		&run.Targets,
		&run.Succeeded,
		&run.Failed,
		&run.Skipped,
		&run.Records,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	run.ID = id
	run.Trigger = trigger
	run.ErrorMessage = errorMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}
