package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tempo/internal/config"
)

// WriteSnapshot writes JSONL snapshot lines to the target path, creating
// parent directories as needed.
func WriteSnapshot(t testing.TB, path string, lines ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteCatalog writes a catalog document to the config's catalog path.
func WriteCatalog(t testing.TB, cfg *config.Config, document string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Catalog), 0o755); err != nil {
		t.Fatalf("mkdir for catalog: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.Catalog, []byte(document), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
}
