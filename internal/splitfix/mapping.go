package splitfix

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
)

// Mapping maps filename variants to canonical stems. Iteration follows first
// insertion; re-adding a key replaces its stem but keeps its position.
type Mapping struct {
	keys  []string
	stems map[string]string
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{stems: make(map[string]string)}
}

// Add registers key -> stem.
func (m *Mapping) Add(key, stem string) {
	if _, ok := m.stems[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.stems[key] = stem
}

// Register adds the original name, its stem, and the lower-case form of both.
func (m *Mapping) Register(original, stem string) {
	originalStem := dataset.Stem(original)
	m.Add(originalStem, stem)
	m.Add(original, stem)
	m.Add(lower(originalStem), stem)
	m.Add(lower(original), stem)
}

// Lookup returns the stem registered for key.
func (m *Mapping) Lookup(key string) (string, bool) {
	stem, ok := m.stems[key]
	return stem, ok
}

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string { return slices.Clone(m.keys) }

// Each visits keys in insertion order until fn returns false.
func (m *Mapping) Each(fn func(key, stem string) bool) {
	for _, key := range m.keys {
		if !fn(key, m.stems[key]) {
			return
		}
	}
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// BuildStats describes a BuildMapping scan.
type BuildStats struct {
	Files     int
	Mapped    int
	Unnamed   int
	Malformed int
}

// BuildMapping reads every *.json in jsonDir in name order and registers the
// original filename recorded inside it against the file's stem. Unreadable
// files are logged and skipped. A missing directory yields an empty mapping.
func BuildMapping(ctx context.Context, fsys afero.Fs, jsonDir string, logger *slog.Logger) (*Mapping, BuildStats, error) {
	mapping := NewMapping()
	var stats BuildStats

	entries, err := afero.ReadDir(fsys, jsonDir)
	if err != nil {
		if ok, _ := afero.DirExists(fsys, jsonDir); !ok {
			return mapping, stats, nil
		}
		return nil, stats, fmt.Errorf("list %s: %w", jsonDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Files++
		path := filepath.Join(jsonDir, name)
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", path, err)
		}
		names, err := dataset.ParseImageNames(data)
		if err != nil {
			stats.Malformed++
			logging.WarnWithContext(logger, "annotation json unreadable; not mapped", "annotation_malformed",
				logging.String("file", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix or re-export the annotation JSON"),
				logging.String(logging.FieldImpact, "split entries for this image stay unresolved"),
			)
			continue
		}
		original := names.OriginalName()
		if original == "" {
			stats.Unnamed++
			continue
		}
		mapping.Register(original, dataset.Stem(name))
		stats.Mapped++
	}
	return mapping, stats, nil
}
