package catalog_test

import (
	"context"
	"os"
	"testing"
	"time"

	"tempo/internal/catalog"
	"tempo/internal/logging"
)

func TestWatchDeliversReloadsAndKeepsPreviousOnFailure(t *testing.T) {
	path := writeCatalog(t, validCatalog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *catalog.Catalog, 8)
	done := make(chan error, 1)
	go func() {
		done <- catalog.Watch(ctx, logging.NewNop(), path, func(c *catalog.Catalog) {
			updates <- c
		})
	}()

	// Give the watcher a moment to register before the first rewrite.
	time.Sleep(100 * time.Millisecond)

	rewritten := `sources:
  genie:
    scraper: genie
    url: "https://example.test/detail?xgnm={id}"
    items:
      - id: "99999"
`
	if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}

	var reloaded *catalog.Catalog
	select {
	case reloaded = <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for catalog reload")
	}
	if got := reloaded.Sources["genie"].Items[0].ID; got != "99999" {
		t.Fatalf("reloaded item id = %q, want 99999", got)
	}

	// One save can fire several events; drain the duplicates before the
	// next step so they are not mistaken for new deliveries.
drain:
	for {
		select {
		case <-updates:
		case <-time.After(300 * time.Millisecond):
			break drain
		}
	}

	// An invalid rewrite must not deliver a new catalog.
	if err := os.WriteFile(path, []byte("sources: {}\n"), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}
	select {
	case c := <-updates:
		t.Fatalf("invalid catalog should not be delivered, got %+v", c)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop on context cancellation")
	}
}

func TestWatchMissingFileFails(t *testing.T) {
	err := catalog.Watch(context.Background(), logging.NewNop(), "/nonexistent/catalog.yaml", func(*catalog.Catalog) {})
	if err == nil {
		t.Fatal("expected error for missing catalog path")
	}
}
