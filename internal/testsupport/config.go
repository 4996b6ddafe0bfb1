package testsupport

import (
	"path/filepath"
	"testing"

	"quaver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scan.Workers = 2
	cfg.Detect.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithOrganizePattern overrides the destination pattern on the test config.
func WithOrganizePattern(pattern string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Organize.Pattern = pattern
	}
}

// WithFuzzyTags enables fuzzy tag comparison on the test config.
func WithFuzzyTags(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Detect.FuzzyTags = true
		cfg.Detect.FuzzyThreshold = threshold
	}
}
