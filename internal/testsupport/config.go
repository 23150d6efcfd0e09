package testsupport

import (
	"path/filepath"
	"testing"

	"tempo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.Catalog = filepath.Join(base, "catalog.yaml")
	// UTC keeps snapshot file names and record timestamps deterministic.
	cfg.Collect.Timezone = "UTC"
	cfg.Collect.Retries = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
