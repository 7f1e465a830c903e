package reorganize

import (
	"context"
	"path/filepath"
	"strings"

	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
	"cocoprep/internal/services"
)

// Route assigns shared split entries to a category. An entry belongs to the
// first route with a pattern contained in it; a route without patterns
// catches everything else.
type Route struct {
	Category string
	Patterns []string
}

// SplitCount records how many entries a category received for one split.
type SplitCount struct {
	Category string
	Split    string
	Entries  int
}

// SeedResult summarises SeedSplits.
type SeedResult struct {
	Counts []SplitCount
	// Unrouted counts entries no route accepted.
	Unrouted int
	// MissingSplits names split files absent from the shared directory.
	MissingSplits []string
}

// Classify returns the category for entry, or "" when no route accepts it.
func Classify(routes []Route, entry string) string {
	fallback := ""
	for _, route := range routes {
		if len(route.Patterns) == 0 {
			if fallback == "" {
				fallback = route.Category
			}
			continue
		}
		for _, pattern := range route.Patterns {
			if pattern != "" && strings.Contains(entry, pattern) {
				return route.Category
			}
		}
	}
	return fallback
}

// SeedSplits reads <allDir>/<split>.txt for each split and writes the routed
// stems, in input order, to sets/<split>.txt of every category in layouts
// that received entries. Categories absent from layouts are not written.
func (r *Reorganizer) SeedSplits(ctx context.Context, allDir string, splits []string, routes []Route, layouts map[string]dataset.Layout) (SeedResult, error) {
	logger := logging.WithContext(ctx, r.logger)
	var result SeedResult

	for _, split := range splits {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		splitCtx := services.WithSplit(ctx, split)
		splitLogger := logging.WithContext(splitCtx, r.logger)

		path := filepath.Join(allDir, split+".txt")
		lines, exists, err := dataset.ReadSplitList(r.fs, path)
		if err != nil {
			return result, services.Wrap(services.ErrTransient, jobName, "read shared split", path, err)
		}
		if !exists {
			result.MissingSplits = append(result.MissingSplits, split)
			splitLogger.Debug("shared split file missing", logging.String("path", path))
			continue
		}

		routed := make(map[string][]string)
		for _, line := range lines {
			category := Classify(routes, line)
			if category == "" {
				result.Unrouted++
				continue
			}
			routed[category] = append(routed[category], dataset.Stem(line))
		}

		for _, route := range routes {
			stems, ok := routed[route.Category]
			if !ok {
				continue
			}
			layout, ok := layouts[route.Category]
			if !ok {
				continue
			}
			target := layout.SplitPath(split)
			if err := dataset.WriteSplitList(r.fs, target, stems); err != nil {
				return result, services.Wrap(services.ErrTransient, jobName, "write split", target, err)
			}
			result.Counts = append(result.Counts, SplitCount{Category: route.Category, Split: split, Entries: len(stems)})
			splitLogger.Info("seeded split file",
				logging.String(logging.FieldCategory, route.Category),
				logging.Int("entries", len(stems)),
				logging.String("path", target),
			)
		}
	}

	if result.Unrouted > 0 {
		logging.WarnWithContext(logger, "split entries matched no category", "split_unrouted",
			logging.Int("entries", result.Unrouted),
			logging.String(logging.FieldErrorHint, "add split_patterns or a fallback source"),
		)
	}
	return result, nil
}
