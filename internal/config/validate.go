package config

import (
	"errors"
	"fmt"
	"strings"

	"cocoprep/internal/services"
)

// Validate ensures the configuration is usable. Failures are tagged with
// services.ErrValidation.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return services.Wrap(services.ErrValidation, "", "config", "", err)
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validateFixSplits(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.Year < 0 {
		return errors.New("dataset.year must be positive")
	}
	for _, ext := range c.Dataset.ImageExtensions {
		if strings.ContainsAny(ext[1:], `./\`) {
			return fmt.Errorf("dataset.image_extensions: invalid extension %q", ext)
		}
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	fallbacks := 0
	for i, src := range c.Sources {
		if src.Category == "" {
			return fmt.Errorf("sources[%d].category must be set", i)
		}
		if err := validateName("sources", src.Category); err != nil {
			return err
		}
		if _, exists := seen[src.Category]; exists {
			return fmt.Errorf("sources: duplicate category %q", src.Category)
		}
		seen[src.Category] = struct{}{}
		if len(src.SplitPatterns) == 0 {
			fallbacks++
		}
	}
	if fallbacks > 1 {
		return errors.New("sources: at most one source may omit split_patterns (the fallback category)")
	}
	return nil
}

func (c *Config) validateConvert() error {
	for _, name := range c.Convert.Categories {
		if err := validateName("convert.categories", name); err != nil {
			return err
		}
	}
	for _, name := range c.Convert.Splits {
		if err := validateName("convert.splits", name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateFixSplits() error {
	if c.FixSplits.ReportLimit < 0 {
		return errors.New("fix_splits.report_limit must be >= 0")
	}
	for _, name := range c.FixSplits.Splits {
		if err := validateName("fix_splits.splits", name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// validateName rejects names that would escape the dataset root when used as
// a directory or file name component.
func validateName(field, name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%s: invalid name %q", field, name)
	}
	return nil
}
