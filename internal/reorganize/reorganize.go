package reorganize

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"cocoprep/internal/boxcsv"
	"cocoprep/internal/dataset"
	"cocoprep/internal/fileutil"
	"cocoprep/internal/logging"
	"cocoprep/internal/services"
)

const jobName = "reorganize"

// Source is one raw category folder.
type Source struct {
	Category string
	Dir      string
	// Subdir is processed instead of Dir when it exists.
	Subdir string
}

// Result summarises one category.
type Result struct {
	Category    string
	SourceDir   string
	Missing     bool
	Images      int
	WithJSON    int
	WithoutJSON int
	Malformed   int
	Boxes       int
}

// Reorganizer builds canonical category layouts from raw folders.
type Reorganizer struct {
	fs         afero.Fs
	extensions []string
	logger     *slog.Logger
}

// New constructs a Reorganizer. Empty extensions fall back to
// dataset.DefaultImageExtensions.
func New(fsys afero.Fs, extensions []string, logger *slog.Logger) *Reorganizer {
	if len(extensions) == 0 {
		extensions = dataset.DefaultImageExtensions
	}
	return &Reorganizer{
		fs:         fsys,
		extensions: extensions,
		logger:     logging.NewComponentLogger(logger, "reorganizer"),
	}
}

// ResolveSourceDir returns Dir/Subdir when that exists, else Dir.
func (r *Reorganizer) ResolveSourceDir(src Source) (string, error) {
	if sub := strings.TrimSpace(src.Subdir); sub != "" {
		candidate := filepath.Join(src.Dir, sub)
		ok, err := afero.DirExists(r.fs, candidate)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if ok {
			return candidate, nil
		}
	}
	return src.Dir, nil
}

// Category reorganizes one source into layout. A missing source folder is
// reported through Result.Missing and leaves the layout untouched.
func (r *Reorganizer) Category(ctx context.Context, src Source, layout dataset.Layout) (Result, error) {
	ctx = services.WithCategory(ctx, layout.Name)
	logger := logging.WithContext(ctx, r.logger)
	result := Result{Category: layout.Name}

	exists, err := afero.DirExists(r.fs, src.Dir)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, jobName, "stat source", src.Dir, err)
	}
	if !exists {
		result.Missing = true
		result.SourceDir = src.Dir
		logging.WarnWithContext(logger, "source folder missing; category skipped", "source_missing",
			logging.String("source_dir", src.Dir),
			logging.String(logging.FieldErrorHint, "check the sources table in the config"),
			logging.String(logging.FieldImpact, "category not reorganized"),
		)
		return result, nil
	}

	dir, err := r.ResolveSourceDir(src)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, jobName, "resolve source", src.Dir, err)
	}
	result.SourceDir = dir

	files, err := dataset.ListImageFiles(r.fs, dir, r.extensions)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, jobName, "list images", dir, err)
	}
	if err := layout.Ensure(r.fs); err != nil {
		return result, services.Wrap(services.ErrTransient, jobName, "create layout", layout.Dir(), err)
	}
	logger.Info("reorganizing category",
		logging.String("source_dir", dir),
		logging.Int("images", len(files)),
	)

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.processImage(logger, dir, name, layout, &result); err != nil {
			return result, err
		}
	}

	if err := dataset.WriteLabelmap(r.fs, layout); err != nil {
		return result, services.Wrap(services.ErrTransient, jobName, "write labelmap", layout.LabelmapPath(), err)
	}
	if err := r.writeAllList(layout); err != nil {
		return result, err
	}

	logger.Info("category reorganized",
		logging.String(logging.FieldEventType, "category_complete"),
		logging.Int("images", result.Images),
		logging.Int("with_json", result.WithJSON),
		logging.Int("without_json", result.WithoutJSON),
		logging.Int("malformed", result.Malformed),
		logging.Int("boxes", result.Boxes),
	)
	return result, nil
}

func (r *Reorganizer) processImage(logger *slog.Logger, dir, name string, layout dataset.Layout, result *Result) error {
	stem := dataset.Stem(name)
	imagePath := filepath.Join(dir, name)

	if err := fileutil.CopyFileVerified(r.fs, imagePath, filepath.Join(layout.ImagesDir(), name)); err != nil {
		return services.Wrap(services.ErrTransient, jobName, "copy image", imagePath, err)
	}
	result.Images++

	jsonPath, err := r.findAnnotation(dir, stem, name)
	if err != nil {
		return services.Wrap(services.ErrTransient, jobName, "locate annotation", imagePath, err)
	}
	csvPath := layout.CSVPath(stem)
	if jsonPath == "" {
		result.WithoutJSON++
		logger.Debug("no annotation json; writing empty box file", logging.String("image", name))
		return r.writeBoxes(csvPath, nil)
	}

	result.WithJSON++
	if err := fileutil.CopyFile(r.fs, jsonPath, layout.JSONPath(stem)); err != nil {
		return services.Wrap(services.ErrTransient, jobName, "copy annotation", jsonPath, err)
	}
	data, err := afero.ReadFile(r.fs, jsonPath)
	if err != nil {
		return services.Wrap(services.ErrTransient, jobName, "read annotation", jsonPath, err)
	}
	raw, err := dataset.ParseAnnotation(data)
	if err != nil {
		result.Malformed++
		logging.WarnWithContext(logger, "annotation json unreadable; wrote empty box file", "annotation_malformed",
			logging.String("file", jsonPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or re-export the annotation JSON"),
			logging.String(logging.FieldImpact, "image exported without boxes"),
		)
		return r.writeBoxes(csvPath, nil)
	}

	rows := make([]boxcsv.Row, 0, len(raw.Annotations))
	for i, ann := range raw.Annotations {
		rows = append(rows, boxcsv.Row{
			Item:  i,
			Box:   boxcsv.Box{X: ann.BBox[0], Y: ann.BBox[1], Width: ann.BBox[2], Height: ann.BBox[3]},
			Label: ann.Label(),
		})
	}
	result.Boxes += len(rows)
	return r.writeBoxes(csvPath, rows)
}

// findAnnotation looks for <stem>.json, then <filename>.json.
func (r *Reorganizer) findAnnotation(dir, stem, name string) (string, error) {
	for _, candidate := range []string{stem + ".json", name + ".json"} {
		path := filepath.Join(dir, candidate)
		ok, err := fileutil.Exists(r.fs, path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
	return "", nil
}

func (r *Reorganizer) writeBoxes(path string, rows []boxcsv.Row) error {
	if err := boxcsv.WriteFile(r.fs, path, rows); err != nil {
		return services.Wrap(services.ErrTransient, jobName, "write box file", path, err)
	}
	return nil
}

// writeAllList records every image stem in sets/all.txt.
func (r *Reorganizer) writeAllList(layout dataset.Layout) error {
	stems, err := dataset.ListImageStems(r.fs, layout.ImagesDir(), r.extensions)
	if err != nil {
		return services.Wrap(services.ErrTransient, jobName, "list images", layout.ImagesDir(), err)
	}
	path := layout.SplitPath(dataset.SplitAll)
	if err := dataset.WriteSplitList(r.fs, path, stems); err != nil {
		return services.Wrap(services.ErrTransient, jobName, "write split", path, err)
	}
	return nil
}
