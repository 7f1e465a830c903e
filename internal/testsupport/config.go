package testsupport

import (
	"testing"

	"cocoprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose dataset root is a fresh temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	if err := cfgVal.SetRoot(base); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSources replaces the configured sources.
func WithSources(sources ...config.Source) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources = sources
	}
}

// WithCategories overrides the categories exported by convert.
func WithCategories(categories ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.Categories = categories
	}
}

// WithCombined toggles the combined export.
func WithCombined(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.Combined = enabled
	}
}
