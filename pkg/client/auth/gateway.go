// Package auth owns the client-side credential lifecycle: the persisted
// token pair and the identity of the logged-in user. Consumers receive the
// access token explicitly rather than reading ambient state.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/pkg/client"
	"github.com/mtsferreira/anatomy-game/pkg/client/storage"
)

// api is the slice of the REST client the gateway depends on.
type api interface {
	Login(ctx context.Context, email, password string) (*client.TokenPair, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.User, error)
	Me(ctx context.Context, token string) (*client.User, error)
	Logout(ctx context.Context, token string) error
}

// credentials is the persisted shape under the auth storage key. Both tokens
// live and die together.
type credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Gateway is the single source of truth for the current token and user.
type Gateway struct {
	api    api
	store  storage.Store
	logger zerolog.Logger

	mu    sync.RWMutex
	creds *credentials
	user  *client.User
}

// NewGateway creates a logged-out gateway over the given API and store.
func NewGateway(apiClient api, store storage.Store, logger zerolog.Logger) *Gateway {
	return &Gateway{
		api:    apiClient,
		store:  store,
		logger: logger.With().Str("component", "auth_gateway").Logger(),
	}
}

// Restore loads persisted credentials and validates them against the server.
// Any failure (missing key, malformed JSON, rejected token, network error)
// ends in a clean logged-out state with stored credentials wiped. Restore
// never returns the underlying failure; callers only need the resulting
// state.
func (g *Gateway) Restore(ctx context.Context) {
	raw, err := g.store.Get(storage.KeyAuth)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("credential storage unreadable")
		g.wipe()
		return
	}

	var creds credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil || creds.AccessToken == "" || creds.RefreshToken == "" {
		g.logger.Warn().Msg("stored credentials malformed, clearing")
		g.wipe()
		return
	}

	user, err := g.api.Me(ctx, creds.AccessToken)
	if err != nil {
		g.logger.Info().Err(err).Msg("stored token rejected, clearing credentials")
		g.wipe()
		return
	}

	g.mu.Lock()
	g.creds = &creds
	g.user = user
	g.mu.Unlock()
}

// Login exchanges credentials for a token pair, persists the pair and fetches
// the profile. Any failure leaves prior state untouched and returns the
// error.
func (g *Gateway) Login(ctx context.Context, email, password string) error {
	pair, err := g.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	creds := credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	prior, priorErr := g.store.Get(storage.KeyAuth)

	if err := g.persist(creds); err != nil {
		return err
	}

	user, err := g.api.Me(ctx, creds.AccessToken)
	if err != nil {
		// Roll the store back so a failed login leaves no trace.
		if priorErr == nil {
			g.store.Set(storage.KeyAuth, prior)
		} else {
			g.store.Delete(storage.KeyAuth)
		}
		return fmt.Errorf("fetch profile: %w", err)
	}

	g.mu.Lock()
	g.creds = &creds
	g.user = user
	g.mu.Unlock()
	return nil
}

// Register creates the account and then logs in with the same credentials.
// A registration failure leaves no session. A failure of the follow-up login
// is returned as-is; the account still exists server-side.
func (g *Gateway) Register(ctx context.Context, req client.RegisterRequest) error {
	if _, err := g.api.Register(ctx, req); err != nil {
		return err
	}
	return g.Login(ctx, req.Email, req.Password)
}

// Logout clears tokens and the cached user unconditionally. Idempotent. The
// server call is best effort.
func (g *Gateway) Logout(ctx context.Context) {
	token := g.AccessToken()
	if token != "" {
		if err := g.api.Logout(ctx, token); err != nil {
			g.logger.Warn().Err(err).Msg("server logout failed")
		}
	}
	g.wipe()
}

// AccessToken returns the current bearer token, or "" when logged out.
func (g *Gateway) AccessToken() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.creds == nil {
		return ""
	}
	return g.creds.AccessToken
}

// RefreshToken returns the current refresh token, or "" when logged out.
func (g *Gateway) RefreshToken() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.creds == nil {
		return ""
	}
	return g.creds.RefreshToken
}

// CurrentUser returns the cached profile, or nil when logged out.
func (g *Gateway) CurrentUser() *client.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user
}

// IsAuthenticated reports whether a user session is active.
func (g *Gateway) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.creds != nil && g.user != nil
}

func (g *Gateway) persist(creds credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := g.store.Set(storage.KeyAuth, string(raw)); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

func (g *Gateway) wipe() {
	if err := g.store.Delete(storage.KeyAuth); err != nil {
		g.logger.Warn().Err(err).Msg("failed to clear stored credentials")
	}
	g.mu.Lock()
	g.creds = nil
	g.user = nil
	g.mu.Unlock()
}
