package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the dataset root and derived directories. Empty derived
// directories fall back to locations under Root.
type Paths struct {
	Root     string `toml:"root"`
	Out      string `toml:"out"`
	AllDir   string `toml:"all_dir"`
	StateDir string `toml:"state_dir"`
}

// Dataset contains metadata stamped into exports and image discovery rules.
type Dataset struct {
	Name            string   `toml:"name"`
	Supercategory   string   `toml:"supercategory"`
	Year            int      `toml:"year"`
	ImageExtensions []string `toml:"image_extensions"`
}

// Source describes one raw category folder handled by the reorganizer.
type Source struct {
	// Category is the plural category name and the canonical directory name.
	Category string `toml:"category"`
	// Dir is the raw folder, relative to the dataset root unless absolute.
	Dir string `toml:"dir"`
	// Subdir is processed instead of Dir when it exists (e.g. "without_augmentation").
	Subdir string `toml:"subdir"`
	// SplitPatterns route lines of the shared split files to this category
	// by substring. An empty list marks the fallback category.
	SplitPatterns []string `toml:"split_patterns"`
}

// Convert contains defaults for the COCO export job.
type Convert struct {
	Categories []string `toml:"categories"`
	Splits     []string `toml:"splits"`
	Combined   bool     `toml:"combined"`
}

// FixSplits contains configuration for split reconciliation.
type FixSplits struct {
	Splits      []string `toml:"splits"`
	ReportLimit int      `toml:"report_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File additionally receives every log line; relative to the dataset root.
	File string `toml:"file"`
}

// Run contains process-level behaviour.
type Run struct {
	// Strict makes a completed run with skipped inputs exit non-zero.
	Strict bool `toml:"strict"`
}

// Config encapsulates all configuration values for cocoprep.
//
// Configuration sections by job:
//   - Paths: dataset root, export directory, shared split directory, state
//   - Dataset: export metadata and accepted image extensions
//   - Sources: raw category folders for the reorganizer
//   - Convert: categories, splits, and combined mode for the exporter
//   - FixSplits: split names and diagnostics for the split fixer
//   - Logging: log format and level
//   - Run: exit status policy
type Config struct {
	Paths     Paths     `toml:"paths"`
	Dataset   Dataset   `toml:"dataset"`
	Sources   []Source  `toml:"sources"`
	Convert   Convert   `toml:"convert"`
	FixSplits FixSplits `toml:"fix_splits"`
	Logging   Logging   `toml:"logging"`
	Run       Run       `toml:"run"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cocoprep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Lists in the file replace the defaults wholesale; normalize restores
		// defaults for lists the file leaves out.
		cfg.Sources = nil
		cfg.Dataset.ImageExtensions = nil
		cfg.Convert.Categories = nil
		cfg.Convert.Splits = nil
		cfg.FixSplits.Splits = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Sources) == 0 {
			cfg.Sources = defaultSources()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cocoprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SetRoot replaces the dataset root (e.g. from a CLI flag) and re-expands it.
// Derived directories that were left empty follow the new root.
func (c *Config) SetRoot(root string) error {
	expanded, err := expandPath(strings.TrimSpace(root))
	if err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if expanded == "" {
		return errors.New("paths.root must not be empty")
	}
	c.Paths.Root = expanded
	return nil
}

// OutDir returns the export directory, defaulting to <root>/annotations.
func (c *Config) OutDir() string {
	return c.underRoot(c.Paths.Out, "annotations")
}

// AllDir returns the directory holding the shared train/val/test lists.
func (c *Config) AllDir() string {
	return c.underRoot(c.Paths.AllDir, "all")
}

// StateDir returns the directory for the run ledger.
func (c *Config) StateDir() string {
	return c.underRoot(c.Paths.StateDir, ".cocoprep")
}

// LockPath returns the lock file guarding the dataset root.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.Root, ".cocoprep.lock")
}

// LogFile returns the log file path, or "" when file logging is off.
func (c *Config) LogFile() string {
	if strings.TrimSpace(c.Logging.File) == "" {
		return ""
	}
	return c.underRoot(c.Logging.File, "")
}

// SourceDir resolves the raw folder for a source, relative to the root.
func (c *Config) SourceDir(src Source) string {
	return c.underRoot(src.Dir, src.Category)
}

// CategoryNames returns the category of every configured source in order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		names = append(names, src.Category)
	}
	return names
}

func (c *Config) underRoot(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return filepath.Join(c.Paths.Root, fallback)
	}
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(c.Paths.Root, value)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
