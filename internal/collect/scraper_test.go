package collect_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tempo/internal/catalog"
	"tempo/internal/collect"
	"tempo/internal/logging"
)

func pageServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	}))
	t.Cleanup(server.Close)
	return server
}

func newScraper(t *testing.T, source catalog.Source, counters ...string) collect.Scraper {
	t.Helper()
	if len(counters) == 0 {
		counters = []string{"total_plays", "total_listeners"}
	}
	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(0))
	scraper, err := collect.NewScraper(logging.NewNop(), fetcher, "genie", source, counters)
	if err != nil {
		t.Fatalf("NewScraper: %v", err)
	}
	return scraper
}

func TestCSSScraperExtractsSelectors(t *testing.T) {
	server := pageServer(t, map[string]string{
		"/song/100": `<html><body>
<div class="info"><h1 class="title">Spring Day</h1><span class="artist">Ode</span></div>
<div class="stats"><span class="plays">1,234,567</span><span class="listeners">12.3만</span></div>
</body></html>`,
	})

	scraper := newScraper(t, catalog.Source{
		URL: server.URL + "/song/{id}",
		Selectors: map[string]string{
			"item_name":       "h1.title",
			"artist_name":     "span.artist",
			"total_plays":     "span.plays",
			"total_listeners": "span.listeners",
		},
	})

	snap, err := scraper.Scrape(context.Background(), "100")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if snap.ItemName != "Spring Day" || snap.ArtistName != "Ode" {
		t.Fatalf("names = %q / %q, want Spring Day / Ode", snap.ItemName, snap.ArtistName)
	}
	if got := snap.Counters["total_plays"]; got != 1234567 {
		t.Fatalf("total_plays = %v, want 1234567", got)
	}
	if got := snap.Counters["total_listeners"]; got != 123000 {
		t.Fatalf("total_listeners = %v, want 123000", got)
	}
}

func TestCSSScraperLeavesMissingCountersAbsent(t *testing.T) {
	server := pageServer(t, map[string]string{
		"/song/100": `<html><body><span class="plays">42</span></body></html>`,
	})

	scraper := newScraper(t, catalog.Source{
		URL: server.URL + "/song/{id}",
		Selectors: map[string]string{
			"total_plays":     "span.plays",
			"total_listeners": "span.listeners",
		},
	})

	snap, err := scraper.Scrape(context.Background(), "100")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if got := snap.Counters["total_plays"]; got != 42 {
		t.Fatalf("total_plays = %v, want 42", got)
	}
	if _, ok := snap.Counters["total_listeners"]; ok {
		t.Fatal("total_listeners should be absent, not zero")
	}
}

func TestGenieScraperFallsBackToLabelledRows(t *testing.T) {
	server := pageServer(t, map[string]string{
		"/song/100": `<html><body>
<h1 class="title">Spring Day</h1>
<ul class="stats">
<li>전체 재생수 1,234,567</li>
<li>전체 청취자수 12.3만</li>
</ul>
</body></html>`,
	})

	// No counter selectors configured; only the labelled rows can serve.
	scraper := newScraper(t, catalog.Source{
		Scraper:   "genie",
		URL:       server.URL + "/song/{id}",
		Selectors: map[string]string{"item_name": "h1.title"},
	})

	snap, err := scraper.Scrape(context.Background(), "100")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if got := snap.Counters["total_plays"]; got != 1234567 {
		t.Fatalf("total_plays = %v, want 1234567", got)
	}
	if got := snap.Counters["total_listeners"]; got != 123000 {
		t.Fatalf("total_listeners = %v, want 123000", got)
	}
	if snap.ItemName != "Spring Day" {
		t.Fatalf("item_name = %q, want Spring Day", snap.ItemName)
	}
}

func TestGenieScraperPrefersSelectorOverFallback(t *testing.T) {
	server := pageServer(t, map[string]string{
		"/song/100": `<html><body>
<span class="plays">111</span>
<li>전체 재생수 999</li>
</body></html>`,
	})

	scraper := newScraper(t, catalog.Source{
		Scraper:   "genie",
		URL:       server.URL + "/song/{id}",
		Selectors: map[string]string{"total_plays": "span.plays"},
	}, "total_plays")

	snap, err := scraper.Scrape(context.Background(), "100")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if got := snap.Counters["total_plays"]; got != 111 {
		t.Fatalf("total_plays = %v, want the selector value 111", got)
	}
}

func TestScraperReportsFetchErrors(t *testing.T) {
	server := pageServer(t, map[string]string{})

	scraper := newScraper(t, catalog.Source{
		URL:       server.URL + "/song/{id}",
		Selectors: map[string]string{"total_plays": "span.plays"},
	})

	_, err := scraper.Scrape(context.Background(), "100")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestNewScraperRejectsUnknownType(t *testing.T) {
	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(0))
	_, err := collect.NewScraper(logging.NewNop(), fetcher, "genie", catalog.Source{Scraper: "xpath"}, nil)
	if err == nil || !strings.Contains(err.Error(), "xpath") {
		t.Fatalf("expected unknown scraper error, got %v", err)
	}
}
