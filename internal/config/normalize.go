package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeSources()
	c.normalizeConvert()
	c.normalizeFixSplits()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("COCOPREP_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Root = value
	}
	if value, ok := os.LookupEnv("COCOPREP_OUT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Out = value
	}
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = defaultRoot
	}
	var err error
	if c.Paths.Root, err = expandPath(strings.TrimSpace(c.Paths.Root)); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	// Relative out/state paths stay relative to the root; only tilde forms expand here.
	if c.Paths.Out, err = expandHome(c.Paths.Out); err != nil {
		return fmt.Errorf("paths.out: %w", err)
	}
	if c.Paths.AllDir, err = expandHome(c.Paths.AllDir); err != nil {
		return fmt.Errorf("paths.all_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandHome(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Logging.File, err = expandHome(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.Name = strings.TrimSpace(c.Dataset.Name)
	if c.Dataset.Name == "" {
		c.Dataset.Name = defaultDatasetName
	}
	c.Dataset.Supercategory = strings.TrimSpace(c.Dataset.Supercategory)
	if c.Dataset.Supercategory == "" {
		c.Dataset.Supercategory = defaultSupercategory
	}
	if c.Dataset.Year == 0 {
		c.Dataset.Year = defaultDatasetYear
	}
	exts := make([]string, 0, len(c.Dataset.ImageExtensions))
	seen := make(map[string]struct{}, len(c.Dataset.ImageExtensions))
	for _, ext := range c.Dataset.ImageExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultImageExtensions...)
	}
	c.Dataset.ImageExtensions = exts
}

func (c *Config) normalizeSources() {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Category = strings.TrimSpace(src.Category)
		src.Dir = strings.TrimSpace(src.Dir)
		src.Subdir = strings.TrimSpace(src.Subdir)
		patterns := make([]string, 0, len(src.SplitPatterns))
		for _, pattern := range src.SplitPatterns {
			if pattern == "" {
				continue
			}
			patterns = append(patterns, pattern)
		}
		src.SplitPatterns = patterns
	}
}

func (c *Config) normalizeConvert() {
	c.Convert.Categories = normalizeNames(c.Convert.Categories, defaultCategories)
	c.Convert.Splits = normalizeNames(c.Convert.Splits, defaultSplits)
}

func (c *Config) normalizeFixSplits() {
	c.FixSplits.Splits = normalizeNames(c.FixSplits.Splits, defaultSplits)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeNames trims and de-duplicates while preserving order; the order of
// categories determines merged category ids.
func normalizeNames(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		out = append(out, fallback...)
	}
	return out
}

func expandHome(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if !strings.HasPrefix(pathValue, "~") {
		return pathValue, nil
	}
	return expandPath(pathValue)
}
