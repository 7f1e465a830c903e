package splitfix

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
	"cocoprep/internal/services"
)

const jobName = "fix-splits"

// DefaultReportLimit caps how many unresolved lines are logged per split.
const DefaultReportLimit = 10

// Options configures a Fixer.
type Options struct {
	Splits      []string
	ReportLimit int
	Strategies  []Strategy
	// Owner names the category a shared split line belongs to, or "" when
	// no category claims it. Lines owned elsewhere are counted in
	// SplitReport.Foreign and never resolved. Nil means every line is
	// resolved for every category.
	Owner func(line string) string
}

// SplitReport describes one rewritten split file.
type SplitReport struct {
	Split string
	// Lines counts the shared lines this category owns.
	Lines      int
	Written    int
	Unresolved []string
	// Foreign counts lines routed to another category (or to none).
	Foreign int
	// MissingImage counts lines that resolved to a stem with no image file.
	MissingImage int
	Path         string
}

// CategoryReport describes FixCategory.
type CategoryReport struct {
	Category string
	Missing  bool
	Mapping  BuildStats
	Keys     int
	// NoOp is set when the category has no filename metadata; its split
	// files are left as they are.
	NoOp     bool
	Existing []string
	Splits   []SplitReport
}

// Unresolved returns the number of unresolved lines over all splits.
func (r CategoryReport) Unresolved() int {
	total := 0
	for _, split := range r.Splits {
		total += len(split.Unresolved)
	}
	return total
}

// Fixer rewrites sets/<split>.txt from the shared split lists.
type Fixer struct {
	fs          afero.Fs
	splits      []string
	reportLimit int
	strategies  []Strategy
	owner       func(string) string
	logger      *slog.Logger
}

// NewFixer constructs a Fixer. Zero options select train/val/test, the
// default report limit, and DefaultStrategies.
func NewFixer(fsys afero.Fs, opts Options, logger *slog.Logger) *Fixer {
	if len(opts.Splits) == 0 {
		opts.Splits = []string{dataset.SplitTrain, dataset.SplitVal, dataset.SplitTest}
	}
	if opts.ReportLimit <= 0 {
		opts.ReportLimit = DefaultReportLimit
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies()
	}
	return &Fixer{
		fs:          fsys,
		splits:      opts.Splits,
		reportLimit: opts.ReportLimit,
		strategies:  opts.Strategies,
		owner:       opts.Owner,
		logger:      logging.NewComponentLogger(logger, "split-fixer"),
	}
}

// FixCategory rebuilds the split files of layout from allDir.
func (f *Fixer) FixCategory(ctx context.Context, layout dataset.Layout, allDir string) (CategoryReport, error) {
	ctx = services.WithCategory(ctx, layout.Name)
	logger := logging.WithContext(ctx, f.logger)
	report := CategoryReport{Category: layout.Name}

	exists, err := layout.Exists(f.fs)
	if err != nil {
		return report, services.Wrap(services.ErrTransient, jobName, "stat category", layout.Dir(), err)
	}
	if !exists {
		report.Missing = true
		logging.WarnWithContext(logger, "category directory missing; skipped", "category_missing",
			logging.String("path", layout.Dir()),
			logging.String(logging.FieldErrorHint, "run reorganize first"),
			logging.String(logging.FieldImpact, "split files not fixed"),
		)
		return report, nil
	}

	mapping, stats, err := BuildMapping(ctx, f.fs, layout.JSONDir(), logger)
	if err != nil {
		return report, services.Wrap(services.ErrTransient, jobName, "build mapping", layout.JSONDir(), err)
	}
	report.Mapping = stats
	report.Keys = mapping.Len()
	logger.Info("filename mapping built",
		logging.Int("json_files", stats.Files),
		logging.Int("mapped", stats.Mapped),
		logging.Int("keys", mapping.Len()),
	)

	if mapping.Len() == 0 {
		report.NoOp = true
		for _, split := range f.splits {
			if ok, _ := afero.Exists(f.fs, layout.SplitPath(split)); ok {
				report.Existing = append(report.Existing, split)
			}
		}
		logger.Info("no filename metadata; leaving split files untouched",
			logging.Strings("existing_splits", report.Existing),
		)
		return report, nil
	}

	for _, split := range f.splits {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		splitReport, ok, err := f.fixSplit(services.WithSplit(ctx, split), layout, allDir, split, mapping)
		if err != nil {
			return report, err
		}
		if ok {
			report.Splits = append(report.Splits, splitReport)
		}
	}
	return report, nil
}

func (f *Fixer) fixSplit(ctx context.Context, layout dataset.Layout, allDir, split string, mapping *Mapping) (SplitReport, bool, error) {
	logger := logging.WithContext(ctx, f.logger)
	report := SplitReport{Split: split, Path: layout.SplitPath(split)}

	source := filepath.Join(allDir, split+".txt")
	lines, exists, err := dataset.ReadSplitList(f.fs, source)
	if err != nil {
		return report, false, services.Wrap(services.ErrTransient, jobName, "read shared split", source, err)
	}
	if !exists {
		logger.Debug("shared split file missing", logging.String("path", source))
		return report, false, nil
	}
	owned := f.ownLines(layout.Name, lines)
	report.Foreign = len(lines) - len(owned)
	report.Lines = len(owned)

	resolution := Resolve(mapping, f.strategies, owned)
	report.Unresolved = slices.Clone(resolution.Unresolved)

	var kept []string
	for _, match := range resolution.Matches {
		image, err := dataset.FindImage(f.fs, layout.ImagesDir(), match.Stem)
		if err != nil {
			return report, false, services.Wrap(services.ErrTransient, jobName, "check image", match.Stem, err)
		}
		if image == "" {
			report.MissingImage++
			report.Unresolved = append(report.Unresolved, match.Line)
			continue
		}
		kept = append(kept, match.Stem)
	}
	slices.Sort(kept)
	kept = slices.Compact(kept)
	report.Written = len(kept)

	if n := len(report.Unresolved); n > 0 {
		sample := report.Unresolved
		if len(sample) > f.reportLimit {
			sample = sample[:f.reportLimit]
		}
		logging.WarnWithContext(logger, "split entries could not be mapped to images", "split_unresolved",
			logging.Int("unresolved", n),
			logging.Int("missing_image", report.MissingImage),
			logging.Strings("sample", sample),
			logging.String(logging.FieldErrorHint, "check pvc_filename metadata and the shared split lists"),
			logging.String(logging.FieldImpact, "entries excluded from the split"),
		)
	}

	if err := dataset.WriteSplitList(f.fs, report.Path, kept); err != nil {
		return report, false, services.Wrap(services.ErrTransient, jobName, "write split", report.Path, err)
	}
	counts := resolution.CountByStrategy()
	attrs := []logging.Attr{
		logging.Int("lines", report.Lines),
		logging.Int("written", report.Written),
		logging.Int("other_categories", report.Foreign),
		logging.String("path", report.Path),
	}
	for _, strategy := range f.strategies {
		if n := counts[strategy.Name()]; n > 0 {
			attrs = append(attrs, logging.Int("matched_"+strategy.Name(), n))
		}
	}
	logger.Info("split file written", logging.Args(attrs...)...)
	return report, true, nil
}

func (f *Fixer) ownLines(category string, lines []string) []string {
	if f.owner == nil {
		return lines
	}
	owned := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.owner(line) == category {
			owned = append(owned, line)
		}
	}
	return owned
}
