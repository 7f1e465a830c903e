package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/afero"

	"cocoprep/internal/config"
	"cocoprep/internal/dataset"
	"cocoprep/internal/preflight"
	"cocoprep/internal/reorganize"
	"cocoprep/internal/stage"
)

// ReorganizeJob builds the canonical layout for every configured source and
// seeds split files from the shared lists.
type ReorganizeJob struct {
	cfg    *config.Config
	fs     afero.Fs
	logger *slog.Logger
}

// NewReorganizeJob constructs the reorganize job.
func NewReorganizeJob(cfg *config.Config, fsys afero.Fs, logger *slog.Logger) *ReorganizeJob {
	return &ReorganizeJob{cfg: cfg, fs: fsys, logger: logger}
}

func (j *ReorganizeJob) Name() string { return preflight.JobReorganize }

func (j *ReorganizeJob) Execute(ctx context.Context) (stage.Outcome, error) {
	outcome := stage.Outcome{
		Header: []string{"Category", "Source", "Images", "With JSON", "Without JSON", "Malformed", "Boxes", "Seeded"},
	}
	if err := checkPreflight(j.cfg, j.Name()); err != nil {
		return outcome, err
	}

	r := reorganize.New(j.fs, j.cfg.Dataset.ImageExtensions, j.logger)
	layouts := make(map[string]dataset.Layout, len(j.cfg.Sources))
	results := make([]reorganize.Result, 0, len(j.cfg.Sources))
	images := 0

	for _, src := range j.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		layout := dataset.NewLayout(j.cfg.Paths.Root, src.Category)
		res, err := r.Category(ctx, reorganize.Source{
			Category: src.Category,
			Dir:      j.cfg.SourceDir(src),
			Subdir:   src.Subdir,
		}, layout)
		if err != nil {
			return outcome, err
		}
		results = append(results, res)
		if res.Missing {
			outcome.Skipped = append(outcome.Skipped, fmt.Sprintf("source for %s missing (%s)", src.Category, res.SourceDir))
			continue
		}
		layouts[src.Category] = layout
		images += res.Images
	}

	seeded, err := r.SeedSplits(ctx, j.cfg.AllDir(), j.cfg.FixSplits.Splits, splitRoutes(j.cfg), layouts)
	if err != nil {
		return outcome, err
	}
	seededBy := make(map[string]int)
	for _, count := range seeded.Counts {
		seededBy[count.Category] += count.Entries
	}

	for _, res := range results {
		if res.Missing {
			outcome.Rows = append(outcome.Rows, []string{res.Category, res.SourceDir, "missing", "", "", "", "", ""})
			continue
		}
		outcome.Rows = append(outcome.Rows, []string{
			res.Category,
			res.SourceDir,
			strconv.Itoa(res.Images),
			strconv.Itoa(res.WithJSON),
			strconv.Itoa(res.WithoutJSON),
			strconv.Itoa(res.Malformed),
			strconv.Itoa(res.Boxes),
			strconv.Itoa(seededBy[res.Category]),
		})
	}
	outcome.Summary = fmt.Sprintf("%d categories, %d images", len(layouts), images)
	return outcome, nil
}
