package testsupport

import (
	"path/filepath"
	"testing"

	"lacquer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Providers and uploads are disabled so tests run without credentials.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.OMDb.Enabled = false
	cfg.TMDB.Enabled = false
	cfg.Jellyfin.UploadPosters = false

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

// WithWorkerCount overrides the worker pool width on the test config.
func WithWorkerCount(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.WorkerCount = count
	}
}

// WithAutoThreshold overrides the auto-mode sequential threshold.
func WithAutoThreshold(threshold int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.AutoThreshold = threshold
	}
}
