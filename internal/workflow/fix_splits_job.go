package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"cocoprep/internal/config"
	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
	"cocoprep/internal/preflight"
	"cocoprep/internal/reorganize"
	"cocoprep/internal/splitfix"
	"cocoprep/internal/stage"
)

// FixSplitsJob rewrites per-category split files from the shared lists.
type FixSplitsJob struct {
	cfg    *config.Config
	fs     afero.Fs
	allDir string
	logger *slog.Logger
}

// NewFixSplitsJob constructs the fix-splits job. An empty allDir uses the
// configured shared split directory.
func NewFixSplitsJob(cfg *config.Config, fsys afero.Fs, allDir string, logger *slog.Logger) *FixSplitsJob {
	if allDir == "" {
		allDir = cfg.AllDir()
	}
	return &FixSplitsJob{cfg: cfg, fs: fsys, allDir: allDir, logger: logger}
}

func (j *FixSplitsJob) Name() string { return preflight.JobFixSplits }

func (j *FixSplitsJob) Execute(ctx context.Context) (stage.Outcome, error) {
	outcome := stage.Outcome{
		Header: []string{"Category", "Keys", "Split", "Lines", "Written", "Unresolved", "Note"},
	}
	if err := checkPreflight(j.cfg, j.Name()); err != nil {
		return outcome, err
	}
	if ok, _ := afero.DirExists(j.fs, j.allDir); !ok {
		logging.WarnWithContext(logging.WithContext(ctx, j.logger), "shared split directory missing", "splits_missing",
			logging.String("path", j.allDir),
			logging.String(logging.FieldErrorHint, "set paths.all_dir or pass --all"),
			logging.String(logging.FieldImpact, "no split files rewritten"),
		)
	}

	routes := splitRoutes(j.cfg)
	fixer := splitfix.NewFixer(j.fs, splitfix.Options{
		Splits:      j.cfg.FixSplits.Splits,
		ReportLimit: j.cfg.FixSplits.ReportLimit,
		Owner: func(line string) string {
			return reorganize.Classify(routes, line)
		},
	}, j.logger)

	written, unresolved := 0, 0
	for _, category := range j.cfg.CategoryNames() {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		report, err := fixer.FixCategory(ctx, dataset.NewLayout(j.cfg.Paths.Root, category), j.allDir)
		if err != nil {
			return outcome, err
		}
		keys := strconv.Itoa(report.Keys)
		switch {
		case report.Missing:
			outcome.Skipped = append(outcome.Skipped, fmt.Sprintf("category %s missing", category))
			outcome.Rows = append(outcome.Rows, []string{category, "", "", "", "", "", "missing"})
			continue
		case report.NoOp:
			outcome.Rows = append(outcome.Rows, []string{category, keys, "", "", "", "", "no metadata; kept existing splits"})
			continue
		}
		for _, split := range report.Splits {
			var notes []string
			if split.MissingImage > 0 {
				notes = append(notes, fmt.Sprintf("%d without image", split.MissingImage))
			}
			if split.Foreign > 0 {
				notes = append(notes, fmt.Sprintf("%d for other categories", split.Foreign))
			}
			outcome.Rows = append(outcome.Rows, []string{
				category,
				keys,
				split.Split,
				strconv.Itoa(split.Lines),
				strconv.Itoa(split.Written),
				strconv.Itoa(len(split.Unresolved)),
				strings.Join(notes, ", "),
			})
			written += split.Written
		}
		if n := report.Unresolved(); n > 0 {
			unresolved += n
			outcome.Skipped = append(outcome.Skipped, fmt.Sprintf("%s: %d unresolved split entries", category, n))
		}
	}
	outcome.Summary = fmt.Sprintf("%d entries written, %d unresolved", written, unresolved)
	return outcome, nil
}
