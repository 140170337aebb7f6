package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RefreshRun records one schedule refresh cycle.
type RefreshRun struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	EventsScraped int        `json:"eventsScraped"`
	MoviesStored  int        `json:"moviesStored"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// CreateRefreshRun records the start of a refresh cycle.
func (s *Store) CreateRefreshRun(ctx context.Context, run RefreshRun) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO refresh_runs (id, started_at, status) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to record refresh run: %w", err)
	}
	return nil
}

// FinishRefreshRun records the outcome of a refresh cycle.
func (s *Store) FinishRefreshRun(ctx context.Context, run RefreshRun) error {
	var finished sql.NullString
	if run.FinishedAt != nil {
		finished = sql.NullString{String: run.FinishedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := s.conn.ExecContext(ctx, `
		UPDATE refresh_runs
		SET finished_at = ?, events_scraped = ?, movies_stored = ?, status = ?, error = ?
		WHERE id = ?`,
		finished, run.EventsScraped, run.MoviesStored, run.Status, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish refresh run: %w", err)
	}
	return nil
}

// ListRefreshRuns returns the most recent refresh runs, newest first.
func (s *Store) ListRefreshRuns(ctx context.Context, limit int) ([]RefreshRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, started_at, finished_at, events_scraped, movies_stored, status, error
		FROM refresh_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RefreshRun, 0)
	for rows.Next() {
		var run RefreshRun
		var startedRaw string
		var finishedRaw sql.NullString

		if err := rows.Scan(&run.ID, &startedRaw, &finishedRaw,
			&run.EventsScraped, &run.MoviesStored, &run.Status, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan refresh run: %w", err)
		}

		if run.StartedAt, err = time.Parse(time.RFC3339, startedRaw); err != nil {
			return nil, fmt.Errorf("failed to parse run start time %q: %w", startedRaw, err)
		}
		if finishedRaw.Valid {
			if finished, err := time.Parse(time.RFC3339, finishedRaw.String); err == nil {
				run.FinishedAt = &finished
			}
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
