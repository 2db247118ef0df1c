package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/storage"
	"github.com/pders01/kiroku/internal/validation"
)

// Manager keeps the home screen's news headlines fresh.
type Manager struct {
	store        *storage.Store
	fetcher      *Fetcher
	parser       *Parser
	config       *config.Config
	urlValidator *validation.EndpointURLValidator
	force        bool
	mu           sync.Mutex
}

func NewManager(store *storage.Store, cfg *config.Config) *Manager {
	return &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		config:       cfg,
		urlValidator: validation.NewEndpointURLValidator(),
	}
}

// SetForceRefresh makes the next refreshes ignore the refresh interval and
// the ETag/Last-Modified validators.
func (m *Manager) SetForceRefresh(force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.force = force
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation enables permissive URL validation for development/testing
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveEndpointURLValidator()
	} else {
		m.urlValidator = validation.NewEndpointURLValidator()
	}
}

// Refresh fetches the configured news feed unless it was fetched within the
// refresh interval. It reports whether the stored headlines changed.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	if !m.config.News.Enabled {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	url, err := m.urlValidator.ValidateAndNormalize(m.config.News.URL)
	if err != nil {
		return false, fmt.Errorf("invalid news URL: %w", err)
	}

	source, err := m.store.GetNewsSource(url)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		source = &storage.NewsSource{URL: url}
	case err != nil:
		return false, fmt.Errorf("getting news source: %w", err)
	}

	if !m.force && !source.LastFetched.IsZero() &&
		m.fetcher.now().Sub(source.LastFetched) < m.config.News.RefreshInterval {
		return false, nil
	}

	resp, err := m.fetcher.Fetch(ctx, source)
	if err != nil {
		return false, err
	}

	if resp == nil {
		source.LastFetched = m.fetcher.now()
		if err := m.store.SaveNewsSource(source); err != nil {
			return false, fmt.Errorf("saving news source: %w", err)
		}
		return false, nil
	}
	defer resp.Body.Close()

	title, headlines, err := m.parser.Parse(resp.Body, url)
	if err != nil {
		return false, err
	}

	m.fetcher.UpdateMetadata(source, resp)
	if title != "" {
		source.Title = title
	}

	if err := m.store.ReplaceHeadlines(url, headlines); err != nil {
		return false, fmt.Errorf("saving headlines: %w", err)
	}
	if err := m.store.SaveNewsSource(source); err != nil {
		return false, fmt.Errorf("saving news source: %w", err)
	}

	debuglog.WithFields(map[string]any{"source": url, "headlines": len(headlines)}).Infof("news refreshed")
	return true, nil
}

// Headlines returns the stored headlines, newest first, capped at the
// configured limit.
func (m *Manager) Headlines() ([]*storage.Headline, error) {
	return m.store.Headlines(m.config.News.Limit)
}

// Source returns the stored state of the configured feed, if any.
func (m *Manager) Source() (*storage.NewsSource, error) {
	url, err := m.urlValidator.ValidateAndNormalize(m.config.News.URL)
	if err != nil {
		return nil, err
	}
	return m.store.GetNewsSource(url)
}

// Age reports how long ago the news was last fetched; zero when never.
func (m *Manager) Age() time.Duration {
	source, err := m.Source()
	if err != nil || source.LastFetched.IsZero() {
		return 0
	}
	return m.fetcher.now().Sub(source.LastFetched)
}
