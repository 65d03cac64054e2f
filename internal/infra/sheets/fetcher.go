// Package sheets fetches published spreadsheet exports as CSV text.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"school-assistant/internal/domain/ports/adapter"
)

var _ adapter.SourceFetcher = (*HTTPFetcher)(nil)

const maxBodyBytes = 32 << 20

type FetcherConfig struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// HTTPFetcher GETs a source URL and returns the body as text. Any non-2xx
// status is an error.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = "school-assistant/1.0"
	}
	return &HTTPFetcher{client: cfg.HTTPClient, timeout: cfg.Timeout, userAgent: cfg.UserAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create source request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("fetch %s: timeout: %w", url, err)
		}
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Failed to fetch %s: %s", url, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxBodyBytes {
		return "", fmt.Errorf("source %s exceeds %d bytes", url, maxBodyBytes)
	}
	return string(body), nil
}
