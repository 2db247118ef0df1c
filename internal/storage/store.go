package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	tokensBucket    = []byte("tokens")
	searchesBucket  = []byte("searches")
	sourcesBucket   = []byte("news_sources")
	headlinesBucket = []byte("headlines")

	currentTokenKey = []byte("current")
)

// ErrNotFound is returned when a lookup finds nothing.
var ErrNotFound = errors.New("not found")

// MaxRecentSearches caps the stored search history.
const MaxRecentSearches = 20

const defaultOpenTimeout = 1 * time.Second

type Store struct {
	db *bolt.DB
}

// NewStore opens or creates the database at dbPath. A zero timeout waits
// one second for the file lock.
func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = defaultOpenTimeout
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{tokensBucket, searchesBucket, sourcesBucket, headlinesBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveToken(token *Token) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(token)
		if err != nil {
			return err
		}
		return tx.Bucket(tokensBucket).Put(currentTokenKey, data)
	})
}

func (s *Store) GetToken() (*Token, error) {
	var token Token
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(tokensBucket).Get(currentTokenKey)
		if data == nil {
			return fmt.Errorf("token: %w", ErrNotFound)
		}
		return json.Unmarshal(data, &token)
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *Store) DeleteToken() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokensBucket).Delete(currentTokenKey)
	})
}

// AddRecentSearch records query, bumping it to the front if it was searched
// before. Queries differing only in case share one entry.
func (s *Store) AddRecentSearch(query string, at time.Time) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	key := []byte(strings.ToLower(query))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(searchesBucket)
		entry := RecentSearch{Query: query, SearchedAt: at, Count: 1}
		if data := b.Get(key); data != nil {
			var prev RecentSearch
			if err := json.Unmarshal(data, &prev); err == nil {
				entry.Count = prev.Count + 1
			}
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put(key, data); err != nil {
			return err
		}
		return trimSearches(b)
	})
}

// trimSearches deletes the oldest entries beyond MaxRecentSearches.
func trimSearches(b *bolt.Bucket) error {
	searches, err := readSearches(b)
	if err != nil {
		return err
	}
	for _, old := range searches[min(len(searches), MaxRecentSearches):] {
		if err := b.Delete([]byte(strings.ToLower(old.Query))); err != nil {
			return err
		}
	}
	return nil
}

func readSearches(b *bolt.Bucket) ([]*RecentSearch, error) {
	var searches []*RecentSearch
	err := b.ForEach(func(_ []byte, v []byte) error {
		var search RecentSearch
		if err := json.Unmarshal(v, &search); err != nil {
			return nil
		}
		searches = append(searches, &search)
		return nil
	})
	// Newest first
	sort.Slice(searches, func(i, j int) bool {
		return searches[i].SearchedAt.After(searches[j].SearchedAt)
	})
	return searches, err
}

// RecentSearches returns up to limit searches, newest first. A limit of
// zero returns all of them.
func (s *Store) RecentSearches(limit int) ([]*RecentSearch, error) {
	var searches []*RecentSearch
	err := s.db.View(func(tx *bolt.Tx) error {
		var readErr error
		searches, readErr = readSearches(tx.Bucket(searchesBucket))
		return readErr
	})
	if limit > 0 && len(searches) > limit {
		searches = searches[:limit]
	}
	return searches, err
}

func (s *Store) ClearRecentSearches() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(searchesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(searchesBucket)
		return err
	})
}

func (s *Store) SaveNewsSource(source *NewsSource) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(source)
		if err != nil {
			return err
		}
		return tx.Bucket(sourcesBucket).Put([]byte(source.URL), data)
	})
}

func (s *Store) GetNewsSource(url string) (*NewsSource, error) {
	var source NewsSource
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sourcesBucket).Get([]byte(url))
		if data == nil {
			return fmt.Errorf("news source %s: %w", url, ErrNotFound)
		}
		return json.Unmarshal(data, &source)
	})
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// ReplaceHeadlines stores headlines as the full set for sourceURL.
func (s *Store) ReplaceHeadlines(sourceURL string, headlines []*Headline) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(headlinesBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var h Headline
			if json.Unmarshal(v, &h) != nil || h.SourceURL == sourceURL {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		for _, h := range headlines {
			h.SourceURL = sourceURL
			data, err := json.Marshal(h)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(h.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Headlines returns up to limit stored headlines, newest first.
func (s *Store) Headlines(limit int) ([]*Headline, error) {
	var headlines []*Headline
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(headlinesBucket).ForEach(func(_ []byte, v []byte) error {
			var h Headline
			if err := json.Unmarshal(v, &h); err != nil {
				return nil
			}
			headlines = append(headlines, &h)
			return nil
		})
	})
	sort.Slice(headlines, func(i, j int) bool {
		return headlines[i].Published.After(headlines[j].Published)
	})
	if limit > 0 && len(headlines) > limit {
		headlines = headlines[:limit]
	}
	return headlines, err
}
