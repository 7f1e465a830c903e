package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"cocoprep/internal/coco"
	"cocoprep/internal/config"
	"cocoprep/internal/preflight"
	"cocoprep/internal/stage"
)

// ConvertJob writes COCO exports.
type ConvertJob struct {
	cfg    *config.Config
	fs     afero.Fs
	logger *slog.Logger
}

// NewConvertJob constructs the convert job from cfg.Convert.
func NewConvertJob(cfg *config.Config, fsys afero.Fs, logger *slog.Logger) *ConvertJob {
	return &ConvertJob{cfg: cfg, fs: fsys, logger: logger}
}

func (j *ConvertJob) Name() string { return preflight.JobConvert }

func (j *ConvertJob) Execute(ctx context.Context) (stage.Outcome, error) {
	outcome := stage.Outcome{
		Header: []string{"Split", "Category", "Images", "Annotations", "Source", "File"},
	}
	if err := checkPreflight(j.cfg, j.Name()); err != nil {
		return outcome, err
	}

	converter := coco.NewConverter(j.fs, coco.Options{
		Root:          j.cfg.Paths.Root,
		Out:           j.cfg.OutDir(),
		Categories:    j.cfg.Convert.Categories,
		Splits:        j.cfg.Convert.Splits,
		Combined:      j.cfg.Convert.Combined,
		DatasetName:   j.cfg.Dataset.Name,
		Supercategory: j.cfg.Dataset.Supercategory,
		Year:          j.cfg.Dataset.Year,
	}, j.logger)

	report, err := converter.Run(ctx)
	if err != nil {
		return outcome, err
	}

	for _, category := range report.MissingCategories {
		outcome.Skipped = append(outcome.Skipped, fmt.Sprintf("category %s missing", category))
	}
	images := 0
	for _, out := range report.Outputs {
		source := "split list"
		switch {
		case out.Category == "combined":
			source = "merged"
		case out.Fallback:
			source = "all images"
		}
		if out.Unreadable > 0 {
			outcome.Skipped = append(outcome.Skipped, fmt.Sprintf("%s/%s: %d unreadable images", out.Category, out.Split, out.Unreadable))
		}
		if out.Category != "combined" {
			images += out.Images
		}
		outcome.Rows = append(outcome.Rows, []string{
			out.Split,
			out.Category,
			strconv.Itoa(out.Images),
			strconv.Itoa(out.Annotations),
			source,
			filepath.Base(out.Path),
		})
	}
	outcome.Summary = fmt.Sprintf("%d files, %d images", len(report.Outputs), images)
	return outcome, nil
}
