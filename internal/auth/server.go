package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/storage"
)

// Login runs the whole browser login: it listens for the redirect, hands
// the authorization URL to open, exchanges the code and saves the token.
func Login(ctx context.Context, flow *Flow, store TokenStore, open func(string) error) (*storage.Token, error) {
	u, err := url.Parse(flow.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect url: %w", err)
	}
	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	code, err := waitForCode(ctx, listener, u.Path, flow, func() error {
		return open(flow.AuthorizationURL())
	})
	if err != nil {
		return nil, err
	}

	tok, err := flow.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := store.SaveToken(tok); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	debuglog.Infof("login complete, token expires %s", tok.ExpiresAt.Format(time.RFC3339))
	return tok, nil
}

// waitForCode serves path on listener until one redirect arrives. started
// runs once the server accepts connections.
func waitForCode(ctx context.Context, listener net.Listener, path string, flow *Flow, started func() error) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		code, err := flow.ParseRedirect(r.URL.RawQuery)
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			http.Error(w, "Login failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		select {
		case codeCh <- code:
		default:
		}
		fmt.Fprint(w, "Login successful! You can close this tab and return to kiroku.")
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debuglog.Errorf("redirect listener: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := started(); err != nil {
		return "", fmt.Errorf("open browser: %w", err)
	}

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
