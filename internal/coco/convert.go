package coco

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
	"cocoprep/internal/services"
)

const jobName = "convert"

// Options selects what Converter exports.
type Options struct {
	Root          string
	Out           string
	Categories    []string
	Splits        []string
	Combined      bool
	DatasetName   string
	Supercategory string
	Year          int
}

// Output describes one written file.
type Output struct {
	Split       string
	Category    string
	Path        string
	Images      int
	Annotations int
	Fallback    bool
	NoImage     int
	Unreadable  int
	SkippedRows int
}

// Report summarises a conversion.
type Report struct {
	Outputs           []Output
	MissingCategories []string
}

// Skipped reports whether any category was missing or any image unreadable.
func (r Report) Skipped() bool {
	if len(r.MissingCategories) > 0 {
		return true
	}
	for _, out := range r.Outputs {
		if out.Unreadable > 0 {
			return true
		}
	}
	return false
}

// Converter writes COCO exports.
type Converter struct {
	fs        afero.Fs
	opts      Options
	collector *Collector
	logger    *slog.Logger
}

// NewConverter constructs a Converter.
func NewConverter(fsys afero.Fs, opts Options, logger *slog.Logger) *Converter {
	logger = logging.NewComponentLogger(logger, "converter")
	return &Converter{
		fs:        fsys,
		opts:      opts,
		collector: NewCollector(fsys, opts.Supercategory, logger),
		logger:    logger,
	}
}

// Run exports every requested split. Missing category roots are logged and
// skipped.
func (c *Converter) Run(ctx context.Context) (Report, error) {
	logger := logging.WithContext(ctx, c.logger)
	var report Report

	if err := c.fs.MkdirAll(c.opts.Out, 0o755); err != nil {
		return report, services.Wrap(services.ErrTransient, jobName, "create output directory", c.opts.Out, err)
	}

	available := make([]string, 0, len(c.opts.Categories))
	for _, category := range c.opts.Categories {
		ok, err := dataset.NewLayout(c.opts.Root, category).Exists(c.fs)
		if err != nil {
			return report, services.Wrap(services.ErrTransient, jobName, "stat category", category, err)
		}
		if !ok {
			report.MissingCategories = append(report.MissingCategories, category)
			logging.WarnWithContext(logger, "category directory missing; skipped", "category_missing",
				logging.String(logging.FieldCategory, category),
				logging.String("path", filepath.Join(c.opts.Root, category)),
				logging.String(logging.FieldErrorHint, "check --root and --categories"),
				logging.String(logging.FieldImpact, "category absent from exports"),
			)
			continue
		}
		available = append(available, category)
	}

	for _, split := range c.opts.Splits {
		splitCtx := services.WithSplit(ctx, split)
		parts := make([]Part, 0, len(available))
		for _, category := range available {
			part, out, err := c.exportCategory(splitCtx, category, split)
			if err != nil {
				return report, err
			}
			parts = append(parts, part)
			report.Outputs = append(report.Outputs, out)
		}
		if c.opts.Combined && len(parts) > 1 {
			out, err := c.exportCombined(splitCtx, parts, split)
			if err != nil {
				return report, err
			}
			report.Outputs = append(report.Outputs, out)
		}
	}
	return report, nil
}

func (c *Converter) exportCategory(ctx context.Context, category, split string) (Part, Output, error) {
	ctx = services.WithCategory(ctx, category)
	logger := logging.WithContext(ctx, c.logger)
	layout := dataset.NewLayout(c.opts.Root, category)

	part, stats, err := c.collector.Collect(ctx, layout, split, NewBuilder())
	if err != nil {
		return part, Output{}, services.Wrap(services.ErrTransient, jobName, "collect", category+"/"+split, err)
	}
	info := c.info(fmt.Sprintf("%s %s %s split", c.opts.DatasetName, category, split))
	path := filepath.Join(c.opts.Out, CategoryFileName(category, split))
	if err := WriteDocument(c.fs, path, NewDocument(info, part)); err != nil {
		return part, Output{}, services.Wrap(services.ErrTransient, jobName, "write export", path, err)
	}

	out := Output{
		Split:       split,
		Category:    category,
		Path:        path,
		Images:      len(part.Images),
		Annotations: len(part.Annotations),
		Fallback:    stats.Fallback,
		NoImage:     stats.NoImage,
		Unreadable:  stats.Unreadable,
		SkippedRows: stats.SkippedRows,
	}
	logger.Info("export written",
		logging.String(logging.FieldEventType, "export_written"),
		logging.String("path", path),
		logging.Int("images", out.Images),
		logging.Int("annotations", out.Annotations),
		logging.Bool("all_images", out.Fallback),
		logging.Int("stems_without_image", out.NoImage),
	)
	return part, out, nil
}

func (c *Converter) exportCombined(ctx context.Context, parts []Part, split string) (Output, error) {
	logger := logging.WithContext(ctx, c.logger)
	merged, err := Merge(parts, c.opts.Supercategory)
	if err != nil {
		return Output{}, services.Wrap(services.ErrMalformed, jobName, "merge", split, err)
	}
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		names = append(names, part.Category)
	}
	info := c.info(fmt.Sprintf("%s combined %s split (%s)", c.opts.DatasetName, split, strings.Join(names, ", ")))
	path := filepath.Join(c.opts.Out, CombinedFileName(split))
	if err := WriteDocument(c.fs, path, NewDocument(info, merged)); err != nil {
		return Output{}, services.Wrap(services.ErrTransient, jobName, "write export", path, err)
	}
	out := Output{
		Split:       split,
		Category:    merged.Category,
		Path:        path,
		Images:      len(merged.Images),
		Annotations: len(merged.Annotations),
	}
	logger.Info("combined export written",
		logging.String(logging.FieldEventType, "export_written"),
		logging.String("path", path),
		logging.Strings("categories", names),
		logging.Int("images", out.Images),
		logging.Int("annotations", out.Annotations),
	)
	return out, nil
}

func (c *Converter) info(description string) Info {
	return Info{
		Year:        c.opts.Year,
		Version:     Version,
		Description: strings.TrimSpace(description),
		URL:         "",
	}
}
