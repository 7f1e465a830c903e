package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cocoprep/internal/services"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Run is one job execution.
type Run struct {
	ID           string
	InvocationID string
	Job          string
	Status       Status
	Summary      string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns the elapsed time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

const runColumns = "id, invocation_id, job, status, summary, error_message, started_at, finished_at"

// ErrRunNotFound is returned when a run id is unknown. It matches
// services.ErrNotFound.
var ErrRunNotFound = fmt.Errorf("run %w", services.ErrNotFound)

// Start records a running job under invocationID.
func (s *Store) Start(ctx context.Context, invocationID, job string) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		InvocationID: strings.TrimSpace(invocationID),
		Job:          strings.TrimSpace(job),
		Status:       StatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	if run.Job == "" {
		return nil, errors.New("history: job name is empty")
	}
	if run.InvocationID == "" {
		run.InvocationID = run.ID
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, invocation_id, job, status, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.InvocationID, run.Job, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the outcome of run. runErr may be nil.
func (s *Store) Finish(ctx context.Context, run *Run, status Status, summary string, runErr error) error {
	if run == nil {
		return errors.New("history: run is nil")
	}
	now := time.Now().UTC()
	run.Status = status
	run.Summary = strings.TrimSpace(summary)
	run.FinishedAt = &now
	run.ErrorMessage = ""
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, summary = ?, error_message = ?, finished_at = ? WHERE id = ?",
		string(run.Status), run.Summary, run.ErrorMessage, formatTime(now), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// Get loads one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Recent returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.InvocationID,
		&run.Job,
		&status,
		&run.Summary,
		&run.ErrorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid && finishedRaw.String != "" {
		t := parseTime(finishedRaw.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
