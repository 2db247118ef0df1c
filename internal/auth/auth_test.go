package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/storage"
)

func TestNewChallenge(t *testing.T) {
	for _, n := range []int{48, 64, 128} {
		c := NewChallenge(n)
		assert.Len(t, c, n)
		for _, r := range c {
			assert.True(t, strings.ContainsRune(challengeAlphabet, r), "unexpected rune %q", r)
		}
	}
	assert.NotEqual(t, NewChallenge(128), NewChallenge(128))
}

func TestNewChallengePanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { NewChallenge(47) })
	assert.Panics(t, func() { NewChallenge(129) })
	assert.Panics(t, func() { NewChallenge(0) })
}

func testFlow(t *testing.T, tokenURL string) *Flow {
	t.Helper()
	cfg := config.TestConfig()
	cfg.API.TokenURL = tokenURL
	flow, err := NewFlow(cfg)
	require.NoError(t, err)
	return flow
}

func TestNewFlowNeedsClientID(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.ClientID = ""
	_, err := NewFlow(cfg)
	assert.ErrorIs(t, err, ErrNoClientID)
}

func TestAuthorizationURL(t *testing.T) {
	flow := testFlow(t, "http://unused")

	u, err := url.Parse(flow.AuthorizationURL())
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "myanimelist.net", u.Host)
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "test-client", q.Get("client_id"))
	assert.Equal(t, "plain", q.Get("code_challenge_method"))
	assert.Equal(t, flow.Verifier, q.Get("code_challenge"))
	assert.Len(t, q.Get("code_challenge"), ChallengeLength)
	assert.Equal(t, flow.State, q.Get("state"))
	assert.Equal(t, "http://127.0.0.1:2006/callback", q.Get("redirect_uri"))
}

func TestParseRedirect(t *testing.T) {
	flow := testFlow(t, "http://unused")
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{"ok", "code=abc&state=" + flow.State, "abc", nil},
		{"leading question mark", "?state=" + flow.State + "&code=xyz", "xyz", nil},
		{"state mismatch", "code=abc&state=AUTHSTART", "", ErrStateMismatch},
		{"missing code", "state=" + flow.State, "", ErrNoCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := flow.ParseRedirect(tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}

	_, err := flow.ParseRedirect("error=access_denied")
	assert.ErrorContains(t, err, "access_denied")
}

func tokenServer(t *testing.T, handle func(form url.Values) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		status, body := handle(r.PostForm)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExchange(t *testing.T) {
	var got url.Values
	srv := tokenServer(t, func(form url.Values) (int, string) {
		got = form
		return http.StatusOK, `{"token_type":"Bearer","expires_in":2678400,"access_token":"at","refresh_token":"rt"}`
	})
	flow := testFlow(t, srv.URL)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	flow.now = func() time.Time { return now }

	tok, err := flow.Exchange(context.Background(), "the-code")

	require.NoError(t, err)
	assert.Equal(t, "authorization_code", got.Get("grant_type"))
	assert.Equal(t, "the-code", got.Get("code"))
	assert.Equal(t, flow.Verifier, got.Get("code_verifier"))
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Equal(t, now.Add(31*24*time.Hour), tok.ExpiresAt)
}

func TestExchangeRejected(t *testing.T) {
	srv := tokenServer(t, func(url.Values) (int, string) {
		return http.StatusBadRequest, `{"error":"invalid_grant"}`
	})
	flow := testFlow(t, srv.URL)

	_, err := flow.Exchange(context.Background(), "bad")

	var tokErr *TokenError
	require.ErrorAs(t, err, &tokErr)
	assert.Equal(t, http.StatusBadRequest, tokErr.Status)
	assert.Contains(t, tokErr.Body, "invalid_grant")
}

type memoryTokens struct {
	mu  sync.Mutex
	tok *storage.Token
}

func (m *memoryTokens) GetToken() (*storage.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, storage.ErrNotFound
	}
	cp := *m.tok
	return &cp, nil
}

func (m *memoryTokens) SaveToken(t *storage.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tok = &cp
	return nil
}

func (m *memoryTokens) DeleteToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}

func testSession(store TokenStore, tokenURL string, now time.Time) *Session {
	cfg := config.TestConfig()
	cfg.API.TokenURL = tokenURL
	s := NewSession(store, cfg)
	s.now = func() time.Time { return now }
	return s
}

func TestSessionWithoutToken(t *testing.T) {
	s := testSession(&memoryTokens{}, "http://unused", time.Now())
	_, err := s.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.False(t, s.LoggedIn())
}

func TestSessionReturnsValidToken(t *testing.T) {
	now := time.Now()
	store := &memoryTokens{tok: &storage.Token{AccessToken: "valid", ExpiresAt: now.Add(time.Hour)}}
	s := testSession(store, "http://unused", now)

	tok, err := s.AccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "valid", tok)
	assert.True(t, s.LoggedIn())
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	var got url.Values
	srv := tokenServer(t, func(form url.Values) (int, string) {
		got = form
		return http.StatusOK, `{"token_type":"Bearer","expires_in":3600,"access_token":"fresh"}`
	})
	now := time.Now()
	store := &memoryTokens{tok: &storage.Token{AccessToken: "stale", RefreshToken: "rt", ExpiresAt: now.Add(-time.Minute)}}
	s := testSession(store, srv.URL, now)

	tok, err := s.AccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, "refresh_token", got.Get("grant_type"))
	assert.Equal(t, "rt", got.Get("refresh_token"))
	saved, _ := store.GetToken()
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "rt", saved.RefreshToken, "refresh token kept when none is returned")
}

func TestSessionDropsRejectedRefresh(t *testing.T) {
	srv := tokenServer(t, func(url.Values) (int, string) {
		return http.StatusUnauthorized, `{"error":"invalid_token"}`
	})
	now := time.Now()
	store := &memoryTokens{tok: &storage.Token{AccessToken: "stale", RefreshToken: "rt", ExpiresAt: now}}
	s := testSession(store, srv.URL, now)

	_, err := s.AccessToken(context.Background())

	require.Error(t, err)
	assert.False(t, s.LoggedIn())
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestLogin(t *testing.T) {
	srv := tokenServer(t, func(form url.Values) (int, string) {
		assert.Equal(t, "code-42", form.Get("code"))
		return http.StatusOK, `{"token_type":"Bearer","expires_in":3600,"access_token":"at","refresh_token":"rt"}`
	})
	cfg := config.TestConfig()
	cfg.API.TokenURL = srv.URL
	cfg.API.RedirectPort = freePort(t)
	flow, err := NewFlow(cfg)
	require.NoError(t, err)
	store := &memoryTokens{}

	browser := func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		resp, err := http.Get(q.Get("redirect_uri") + "?code=code-42&state=" + url.QueryEscape(q.Get("state")))
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tok, err := Login(ctx, flow, store, browser)

	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	saved, err := store.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "rt", saved.RefreshToken)
}

func TestLoginCancelled(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.RedirectPort = freePort(t)
	flow, err := NewFlow(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = Login(ctx, flow, &memoryTokens{}, func(string) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
