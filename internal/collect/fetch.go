package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"tempo/internal/config"
	"tempo/internal/logging"
)

// Fetcher retrieves source pages with retries and charset normalization.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   time.Duration
	logger    *slog.Logger
}

// NewFetcher builds a Fetcher from the collect configuration.
func NewFetcher(logger *slog.Logger, cfg config.Collect) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		userAgent: cfg.UserAgent,
		retries:   cfg.Retries,
		backoff:   time.Duration(cfg.RetryBackoffSeconds) * time.Second,
		logger:    logging.NewComponentLogger(logger, "fetch"),
	}
}

// Get fetches url and returns the body as UTF-8. Network errors and 5xx
// responses are retried with exponential backoff; 4xx responses fail
// immediately since retrying them cannot help.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			delay := f.backoff << (attempt - 1)
			f.logger.Debug("retrying fetch",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, true, fmt.Errorf("status %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, false, fmt.Errorf("status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	decoded, err := decodeCharset(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, err
	}
	return decoded, false, nil
}

// decodeCharset converts a response body to UTF-8 based on the declared
// Content-Type charset. Korean platforms still serve EUC-KR.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	name := strings.ToLower(strings.TrimSpace(params["charset"]))
	if name == "" || name == "utf-8" || name == "utf8" {
		return body, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", name, err)
	}
	return decoded, nil
}
