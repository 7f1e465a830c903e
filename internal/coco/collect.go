package coco

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"cocoprep/internal/boxcsv"
	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
)

// DefaultSupercategory is used when none is configured.
const DefaultSupercategory = "plant"

// ObjectCategoryID is the category id of every box in a single-category part.
const ObjectCategoryID = 1

// stemExtensions are accepted when a split list is absent and every image is
// exported.
var stemExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// ResolveStems returns the sorted, distinct stems named by sets/<split>.txt.
// When the list is missing or empty every image in images/ is used and
// fallback is true.
func ResolveStems(fsys afero.Fs, layout dataset.Layout, split string) (stems []string, fallback bool, err error) {
	lines, _, err := dataset.ReadSplitList(fsys, layout.SplitPath(split))
	if err != nil {
		return nil, false, err
	}
	if len(lines) > 0 {
		stems = slices.Clone(lines)
		slices.Sort(stems)
		return slices.Compact(stems), false, nil
	}
	stems, err = dataset.ListImageStems(fsys, layout.ImagesDir(), stemExtensions)
	if err != nil {
		return nil, true, err
	}
	return stems, true, nil
}

// CollectStats counts what Collect skipped.
type CollectStats struct {
	Stems       int
	Fallback    bool
	NoImage     int
	Unreadable  int
	SkippedRows int
}

// Collector gathers category splits.
type Collector struct {
	fs            afero.Fs
	supercategory string
	logger        *slog.Logger
}

// NewCollector constructs a Collector.
func NewCollector(fsys afero.Fs, supercategory string, logger *slog.Logger) *Collector {
	if supercategory == "" {
		supercategory = DefaultSupercategory
	}
	return &Collector{fs: fsys, supercategory: supercategory, logger: logger}
}

// Collect builds the images and annotations of one category split. Ids come
// from builder. Stems without an image file are skipped silently; images
// whose header cannot be decoded are logged and skipped.
func (c *Collector) Collect(ctx context.Context, layout dataset.Layout, split string, builder *Builder) (Part, CollectStats, error) {
	logger := logging.WithContext(ctx, c.logger)
	part := Part{
		Category:    layout.Name,
		Images:      []Image{},
		Annotations: []Annotation{},
		Categories: []Category{{
			ID:            ObjectCategoryID,
			Name:          layout.Singular(),
			Supercategory: c.supercategory,
		}},
	}
	var stats CollectStats

	stems, fallback, err := ResolveStems(c.fs, layout, split)
	if err != nil {
		return part, stats, fmt.Errorf("resolve stems: %w", err)
	}
	stats.Stems = len(stems)
	stats.Fallback = fallback
	if fallback {
		logger.Debug("split list missing or empty; exporting every image", logging.Int("images", len(stems)))
	}

	for _, stem := range stems {
		if err := ctx.Err(); err != nil {
			return part, stats, err
		}
		imagePath, err := dataset.FindImage(c.fs, layout.ImagesDir(), stem)
		if err != nil {
			return part, stats, err
		}
		if imagePath == "" {
			stats.NoImage++
			continue
		}
		width, height, err := dataset.ProbeSize(c.fs, imagePath)
		if err != nil {
			stats.Unreadable++
			logging.WarnWithContext(logger, "image header unreadable; image skipped", "image_unreadable",
				logging.String("image", imagePath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "replace or remove the corrupt image"),
				logging.String(logging.FieldImpact, "image missing from export"),
			)
			continue
		}

		imageID := builder.ImageID()
		part.Images = append(part.Images, Image{
			ID:       imageID,
			FileName: filepath.ToSlash(filepath.Join(layout.Name, dataset.ImagesDirName, filepath.Base(imagePath))),
			Width:    width,
			Height:   height,
		})

		boxes, err := boxcsv.ReadFile(c.fs, layout.CSVPath(stem))
		if err != nil {
			return part, stats, err
		}
		if boxes.Skipped > 0 {
			stats.SkippedRows += boxes.Skipped
			logging.WarnWithContext(logger, "box csv rows unreadable; rows skipped", "box_rows_skipped",
				logging.String("csv", layout.CSVPath(stem)),
				logging.Int("skipped_rows", boxes.Skipped),
				logging.String(logging.FieldErrorHint, "fix the x,y,w,h values in the box file"),
				logging.String(logging.FieldImpact, "boxes missing from export"),
			)
		}
		for _, box := range boxes.Boxes {
			part.Annotations = append(part.Annotations, Annotation{
				ID:         builder.AnnotationID(),
				ImageID:    imageID,
				CategoryID: ObjectCategoryID,
				BBox:       box.Slice(),
				Area:       box.Area(),
				IsCrowd:    0,
			})
		}
	}
	return part, stats, nil
}
