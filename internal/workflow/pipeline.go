package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"cocoprep/internal/config"
	"cocoprep/internal/history"
	"cocoprep/internal/preflight"
	"cocoprep/internal/reorganize"
	"cocoprep/internal/stage"
	"cocoprep/internal/stageexec"
)

// Order is the full pipeline.
var Order = []string{preflight.JobReorganize, preflight.JobFixSplits, preflight.JobConvert}

// Result pairs a job with its outcome.
type Result struct {
	Job     string
	Outcome stage.Outcome
}

// Pipeline runs jobs against one dataset root.
type Pipeline struct {
	cfg          *config.Config
	fs           afero.Fs
	logger       *slog.Logger
	ledger       *history.Store
	invocationID string
	allDir       string
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLedger records every job in store.
func WithLedger(store *history.Store) Option {
	return func(p *Pipeline) { p.ledger = store }
}

// WithInvocationID groups ledger rows of one CLI invocation.
func WithInvocationID(id string) Option {
	return func(p *Pipeline) { p.invocationID = id }
}

// WithAllDir overrides the shared split directory read by fix-splits.
func WithAllDir(dir string) Option {
	return func(p *Pipeline) { p.allDir = dir }
}

// New constructs a Pipeline.
func New(cfg *config.Config, fsys afero.Fs, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, fs: fsys, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handler builds the job called name.
func (p *Pipeline) Handler(name string) (stage.Handler, error) {
	switch name {
	case preflight.JobReorganize:
		return NewReorganizeJob(p.cfg, p.fs, p.logger), nil
	case preflight.JobFixSplits:
		return NewFixSplitsJob(p.cfg, p.fs, p.allDir, p.logger), nil
	case preflight.JobConvert:
		return NewConvertJob(p.cfg, p.fs, p.logger), nil
	default:
		return nil, fmt.Errorf("unknown job %q", name)
	}
}

// Run executes names in order and stops at the first failure. Results of the
// jobs that ran are returned either way.
func (p *Pipeline) Run(ctx context.Context, names ...string) ([]Result, error) {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		handler, err := p.Handler(name)
		if err != nil {
			return results, err
		}
		outcome, err := stageexec.Run(ctx, stageexec.Options{
			Logger:       p.logger,
			Ledger:       p.ledger,
			InvocationID: p.invocationID,
			Handler:      handler,
		})
		results = append(results, Result{Job: name, Outcome: outcome})
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Skipped collects the skipped inputs of all results.
func Skipped(results []Result) []string {
	var skipped []string
	for _, r := range results {
		for _, s := range r.Outcome.Skipped {
			skipped = append(skipped, r.Job+": "+s)
		}
	}
	return skipped
}

// splitRoutes routes shared split lines by each source's split_patterns. The
// reorganizer seeds with it and the split fixer filters with it.
func splitRoutes(cfg *config.Config) []reorganize.Route {
	routes := make([]reorganize.Route, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		routes = append(routes, reorganize.Route{Category: src.Category, Patterns: src.SplitPatterns})
	}
	return routes
}

func checkPreflight(cfg *config.Config, job string) error {
	return preflight.Failures(job, preflight.RunAll(cfg, job))
}
