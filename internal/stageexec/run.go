// Package stageexec runs a stage.Handler with logging and run-ledger
// bookkeeping around it.
package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cocoprep/internal/history"
	"cocoprep/internal/logging"
	"cocoprep/internal/services"
	"cocoprep/internal/stage"
)

// Options controls one job execution.
type Options struct {
	Logger       *slog.Logger
	Ledger       *history.Store
	InvocationID string
	Handler      stage.Handler
}

// Run executes the handler and records the outcome. A ledger failure is
// logged and never changes the job result.
func Run(ctx context.Context, opts Options) (stage.Outcome, error) {
	if opts.Handler == nil {
		return stage.Outcome{}, fmt.Errorf("stage handler unavailable")
	}
	name := opts.Handler.Name()
	jobCtx := services.WithJob(ctx, name)
	logger := logging.WithContext(jobCtx, opts.Logger)

	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))
	started := time.Now()

	var run *history.Run
	if opts.Ledger != nil {
		var err error
		run, err = opts.Ledger.Start(jobCtx, opts.InvocationID, name)
		if err != nil {
			logger.Warn("run ledger unavailable", logging.Error(err))
		}
	}

	outcome, jobErr := opts.Handler.Execute(jobCtx)
	status := resolveStatus(outcome, jobErr)
	record(jobCtx, logger, opts.Ledger, run, status, outcome, jobErr)

	if jobErr != nil {
		logging.ErrorWithContext(logger, "job failed", "job_failure",
			logging.String(logging.FieldErrorHint, failureHint(jobErr)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(jobErr),
		)
		return outcome, jobErr
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("status", string(status)),
		logging.Duration("elapsed", time.Since(started)),
	}
	if summary := strings.TrimSpace(outcome.Summary); summary != "" {
		attrs = append(attrs, logging.String("summary", summary))
	}
	if outcome.HasSkipped() {
		attrs = append(attrs, logging.Strings("skipped", outcome.Skipped))
	}
	logger.Info("job completed", logging.Args(attrs...)...)
	return outcome, nil
}

func resolveStatus(outcome stage.Outcome, err error) history.Status {
	switch {
	case err != nil:
		return history.StatusFailed
	case outcome.HasSkipped():
		return history.StatusSkipped
	default:
		return history.StatusSucceeded
	}
}

func record(ctx context.Context, logger *slog.Logger, ledger *history.Store, run *history.Run, status history.Status, outcome stage.Outcome, jobErr error) {
	if ledger == nil || run == nil {
		return
	}
	// The job context may already be cancelled; the ledger row should still close.
	if err := ledger.Finish(context.WithoutCancel(ctx), run, status, outcome.Summary, jobErr); err != nil {
		logger.Warn("failed to record run outcome", logging.Error(err))
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the config file and dataset directories"
	case errors.Is(err, services.ErrLocked):
		return "wait for the other cocoprep run to finish"
	case errors.Is(err, context.Canceled):
		return "run was interrupted; rerun the job"
	default:
		return "check logs for details"
	}
}
