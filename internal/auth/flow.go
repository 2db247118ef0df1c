package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/storage"
	"github.com/pders01/kiroku/internal/validation"
)

var (
	ErrStateMismatch = errors.New("auth: state mismatch")
	ErrNoCode        = errors.New("auth: no authorization code in redirect")
	ErrNoClientID    = errors.New("auth: api.client_id is not configured")
)

// TokenError is returned when the token endpoint rejects a request.
type TokenError struct {
	Status int
	Body   string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("auth: token endpoint returned %d: %s", e.Status, e.Body)
}

// Flow is one authorization-code login with a PKCE verifier.
type Flow struct {
	ClientID    string
	AuthURL     string
	TokenURL    string
	RedirectURL string
	Verifier    string
	State       string

	client    *http.Client
	userAgent string
	now       func() time.Time
}

// NewFlow prepares a login against the endpoints in cfg.
func NewFlow(cfg *config.Config) (*Flow, error) {
	if cfg.API.ClientID == "" {
		return nil, ErrNoClientID
	}
	redirect, err := validation.RedirectURL(cfg.API.RedirectPort)
	if err != nil {
		return nil, err
	}
	return &Flow{
		ClientID:    cfg.API.ClientID,
		AuthURL:     cfg.API.AuthURL,
		TokenURL:    cfg.API.TokenURL,
		RedirectURL: redirect,
		Verifier:    NewChallenge(ChallengeLength),
		State:       NewChallenge(48),
		client:      &http.Client{Timeout: cfg.API.HTTPTimeout},
		userAgent:   cfg.API.UserAgent,
		now:         time.Now,
	}, nil
}

// AuthorizationURL is the page the user approves the login on.
func (f *Flow) AuthorizationURL() string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {f.ClientID},
		"code_challenge":        {f.Verifier},
		"code_challenge_method": {"plain"},
		"state":                 {f.State},
		"redirect_uri":          {f.RedirectURL},
	}
	return f.AuthURL + "?" + params.Encode()
}

// ParseRedirect extracts the authorization code from the query string the
// browser was redirected with.
func (f *Flow) ParseRedirect(rawQuery string) (string, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return "", fmt.Errorf("auth: parsing redirect: %w", err)
	}
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("auth: login refused: %s", e)
	}
	if q.Get("state") != f.State {
		return "", ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return "", ErrNoCode
	}
	return code, nil
}

// Exchange trades an authorization code for a token.
func (f *Flow) Exchange(ctx context.Context, code string) (*storage.Token, error) {
	return requestToken(ctx, f.client, f.userAgent, f.TokenURL, f.now, url.Values{
		"client_id":     {f.ClientID},
		"code":          {code},
		"code_verifier": {f.Verifier},
		"redirect_uri":  {f.RedirectURL},
		"grant_type":    {"authorization_code"},
	})
}

func requestToken(ctx context.Context, client *http.Client, ua, tokenURL string, now func() time.Time, form url.Values) (*storage.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TokenError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result struct {
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	tok := &storage.Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
	}
	if result.ExpiresIn > 0 {
		tok.ExpiresAt = now().Add(time.Duration(result.ExpiresIn) * time.Second)
	}
	return tok, nil
}
