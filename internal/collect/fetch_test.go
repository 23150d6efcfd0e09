package collect_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/text/encoding/korean"

	"tempo/internal/collect"
	"tempo/internal/config"
	"tempo/internal/logging"
)

// fetchConfig returns collect settings with zero backoff so retry tests
// finish instantly.
func fetchConfig(retries int) config.Collect {
	return config.Collect{
		UserAgent:      "tempo-test",
		TimeoutSeconds: 5,
		Retries:        retries,
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(3))
	body, err := fetcher.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "recovered" {
		t.Fatalf("body = %q, want \"recovered\"", body)
	}
	if got := requests.Load(); got != 3 {
		t.Fatalf("requests = %d, want 3", got)
	}
}

func TestFetcherFailsFastOnClientErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(5))
	_, err := fetcher.Get(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("requests = %d, want 1 (4xx must not retry)", got)
	}
}

func TestFetcherExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(2))
	_, err := fetcher.Get(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Fatalf("requests = %d, want 3 (initial + 2 retries)", got)
	}
}

func TestFetcherSetsUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(0))
	if _, err := fetcher.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if agent != "tempo-test" {
		t.Fatalf("user agent = %q, want \"tempo-test\"", agent)
	}
}

func TestFetcherDecodesEUCKR(t *testing.T) {
	const page = "<html><body>전체 재생수 1,234,567</body></html>"
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(page))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write(encoded)
	}))
	defer server.Close()

	fetcher := collect.NewFetcher(logging.NewNop(), fetchConfig(0))
	body, err := fetcher.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != page {
		t.Fatalf("decoded body = %q, want original UTF-8", body)
	}
}

func TestFetcherHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fetchConfig(3)
	cfg.RetryBackoffSeconds = 30
	fetcher := collect.NewFetcher(logging.NewNop(), cfg)
	if _, err := fetcher.Get(ctx, server.URL); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
