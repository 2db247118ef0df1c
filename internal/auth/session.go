package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/storage"
)

// ErrNotLoggedIn is returned by AccessToken before the first login.
var ErrNotLoggedIn = errors.New("auth: not logged in, run `kiroku login`")

// refresh this long before the token actually expires
const expiryMargin = time.Minute

// TokenStore persists the token pair.
type TokenStore interface {
	GetToken() (*storage.Token, error)
	SaveToken(*storage.Token) error
	DeleteToken() error
}

// Session hands out access tokens, refreshing them when they expire.
type Session struct {
	mu        sync.Mutex
	store     TokenStore
	clientID  string
	tokenURL  string
	userAgent string
	client    *http.Client
	now       func() time.Time
}

func NewSession(store TokenStore, cfg *config.Config) *Session {
	return &Session{
		store:     store,
		clientID:  cfg.API.ClientID,
		tokenURL:  cfg.API.TokenURL,
		userAgent: cfg.API.UserAgent,
		client:    &http.Client{Timeout: cfg.API.HTTPTimeout},
		now:       time.Now,
	}
}

// AccessToken returns a usable access token.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.store.GetToken()
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	if !tok.Expired(s.now(), expiryMargin) {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", ErrNotLoggedIn
	}

	debuglog.Infof("access token expired at %s, refreshing", tok.ExpiresAt.Format(time.RFC3339))
	fresh, err := s.refresh(ctx, tok.RefreshToken)
	if err != nil {
		var tokErr *TokenError
		if errors.As(err, &tokErr) {
			// the refresh token is no good either
			_ = s.store.DeleteToken()
		}
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	if err := s.store.SaveToken(fresh); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}
	return fresh.AccessToken, nil
}

func (s *Session) refresh(ctx context.Context, refreshToken string) (*storage.Token, error) {
	tok, err := requestToken(ctx, s.client, s.userAgent, s.tokenURL, s.now, url.Values{
		"client_id":     {s.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// Logout forgets the stored token.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteToken()
}

// LoggedIn reports whether a token is stored.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.store.GetToken()
	return err == nil
}
