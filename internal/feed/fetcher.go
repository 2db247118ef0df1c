package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/storage"
)

const defaultRetryAfter = 15 * time.Minute

// StatusError is returned for 4xx and 5xx feed responses.
type StatusError struct {
	Code       int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusTooManyRequests {
		return fmt.Sprintf("HTTP error: %d (retry in %s)", e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP error: %d", e.Code)
}

type Fetcher struct {
	client      *http.Client
	userAgent   string
	ignoreCache bool
	now         func() time.Time
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.API.HTTPTimeout},
		userAgent: cfg.API.UserAgent,
		now:       time.Now,
	}
}

// SetIgnoreCache drops the conditional request headers
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch requests source.URL. A nil response with a nil error means the
// server reported the feed unchanged.
func (f *Fetcher) Fetch(ctx context.Context, source *storage.NewsSource) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	if !f.ignoreCache {
		if source.ETag != "" {
			req.Header.Set("If-None-Match", source.ETag)
		}
		if source.LastModified != "" {
			req.Header.Set("If-Modified-Since", source.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, RetryAfter: retryAfter(resp)}
	}

	return resp, nil
}

// UpdateMetadata records the validators of resp on source.
func (f *Fetcher) UpdateMetadata(source *storage.NewsSource, resp *http.Response) {
	if etag := resp.Header.Get("ETag"); etag != "" {
		source.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		source.LastModified = lastMod
	}
	source.LastFetched = f.now()
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}
