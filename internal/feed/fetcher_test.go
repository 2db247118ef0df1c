package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/storage"
)

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name           string
		source         *storage.NewsSource
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectBody     bool
		expectStatus   int
	}{
		{
			name:   "successful fetch with new content",
			source: &storage.NewsSource{},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("User-Agent"); got != "kiroku-test/1.0" {
					t.Errorf("expected User-Agent kiroku-test/1.0, got %s", got)
				}
				w.Header().Set("ETag", "\"123\"")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("<rss></rss>"))
			},
			expectBody: true,
		},
		{
			name:   "not modified response with ETag",
			source: &storage.NewsSource{ETag: "\"123\""},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("If-None-Match") != "\"123\"" {
					t.Errorf("expected If-None-Match \"123\", got %s", r.Header.Get("If-None-Match"))
				}
				w.WriteHeader(http.StatusNotModified)
			},
		},
		{
			name:   "not modified response with Last-Modified",
			source: &storage.NewsSource{LastModified: "Wed, 01 Jan 2025 00:00:00 GMT"},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("If-Modified-Since") != "Wed, 01 Jan 2025 00:00:00 GMT" {
					t.Errorf("expected If-Modified-Since header")
				}
				w.WriteHeader(http.StatusNotModified)
			},
		},
		{
			name:   "server error",
			source: &storage.NewsSource{},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectStatus: http.StatusInternalServerError,
		},
		{
			name:   "rate limit with retry-after",
			source: &storage.NewsSource{},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			expectStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			tt.source.URL = server.URL
			fetcher := NewFetcher(config.TestConfig())

			resp, err := fetcher.Fetch(context.Background(), tt.source)

			if tt.expectStatus != 0 {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("expected StatusError, got %v", err)
				}
				if statusErr.Code != tt.expectStatus {
					t.Errorf("expected status %d, got %d", tt.expectStatus, statusErr.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (resp != nil) != tt.expectBody {
				t.Errorf("expected body=%v, got response %v", tt.expectBody, resp)
			}
			if resp != nil {
				resp.Body.Close()
			}
		})
	}
}

func TestFetcher_IgnoreCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			t.Error("conditional headers sent while ignoring cache")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fetcher := NewFetcher(config.TestConfig())
	fetcher.SetIgnoreCache(true)
	resp, err := fetcher.Fetch(context.Background(), &storage.NewsSource{
		URL:          server.URL,
		ETag:         "\"abc\"",
		LastModified: "Wed, 01 Jan 2025 00:00:00 GMT",
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
}

func TestFetcher_UpdateMetadata(t *testing.T) {
	fetcher := NewFetcher(config.TestConfig())
	fixed := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	fetcher.now = func() time.Time { return fixed }
	source := &storage.NewsSource{URL: "http://example.com"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", "\"new-etag\"")
		w.Header().Set("Last-Modified", "Thu, 02 Jan 2025 00:00:00 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	fetcher.UpdateMetadata(source, resp)

	if source.ETag != "\"new-etag\"" {
		t.Errorf("expected ETag \"new-etag\", got %s", source.ETag)
	}
	if source.LastModified != "Thu, 02 Jan 2025 00:00:00 GMT" {
		t.Errorf("expected LastModified Thu, 02 Jan 2025 00:00:00 GMT, got %s", source.LastModified)
	}
	if !source.LastFetched.Equal(fixed) {
		t.Errorf("expected LastFetched %v, got %v", fixed, source.LastFetched)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name             string
		retryAfter       string
		expectedDuration time.Duration
	}{
		{"valid retry-after in seconds", "120", 120 * time.Second},
		{"invalid retry-after", "invalid", defaultRetryAfter},
		{"negative retry-after", "-5", defaultRetryAfter},
		{"no retry-after header", "", defaultRetryAfter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.retryAfter != "" {
				resp.Header.Set("Retry-After", tt.retryAfter)
			}
			if got := retryAfter(resp); got != tt.expectedDuration {
				t.Errorf("expected duration %v, got %v", tt.expectedDuration, got)
			}
		})
	}
}
