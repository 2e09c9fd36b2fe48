package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsferreira/anatomy-game/pkg/client"
	"github.com/mtsferreira/anatomy-game/pkg/client/storage"
)

type stubAPI struct {
	loginErr    error
	registerErr error
	meErr       error
	logoutCalls int

	validToken string
	user       client.User

	loginCalls    int
	registerCalls int
}

func (s *stubAPI) Login(ctx context.Context, email, password string) (*client.TokenPair, error) {
	s.loginCalls++
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &client.TokenPair{AccessToken: s.validToken, RefreshToken: "refresh-" + s.validToken, TokenType: "bearer"}, nil
}

func (s *stubAPI) Register(ctx context.Context, req client.RegisterRequest) (*client.User, error) {
	s.registerCalls++
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	u := s.user
	return &u, nil
}

func (s *stubAPI) Me(ctx context.Context, token string) (*client.User, error) {
	if s.meErr != nil {
		return nil, s.meErr
	}
	if token != s.validToken {
		return nil, &client.APIError{Status: 401, Message: "Invalid or missing token"}
	}
	u := s.user
	return &u, nil
}

func (s *stubAPI) Logout(ctx context.Context, token string) error {
	s.logoutCalls++
	return nil
}

func newTestGateway(api *stubAPI) (*Gateway, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewGateway(api, store, zerolog.Nop()), store
}

func TestGateway_LoginPersistsPairAndUser(t *testing.T) {
	api := &stubAPI{validToken: "tok", user: client.User{DisplayName: "Maria"}}
	gw, store := newTestGateway(api)

	require.NoError(t, gw.Login(context.Background(), "maria@example.com", "password123"))

	assert.Equal(t, "tok", gw.AccessToken())
	assert.Equal(t, "refresh-tok", gw.RefreshToken())
	require.NotNil(t, gw.CurrentUser())
	assert.Equal(t, "Maria", gw.CurrentUser().DisplayName)
	assert.True(t, gw.IsAuthenticated())

	raw, err := store.Get(storage.KeyAuth)
	require.NoError(t, err)
	var creds map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &creds))
	assert.Equal(t, "tok", creds["access_token"])
	assert.Equal(t, "refresh-tok", creds["refresh_token"])
}

func TestGateway_FailedLoginLeavesStateUntouched(t *testing.T) {
	api := &stubAPI{loginErr: &client.APIError{Status: 401, Message: "Invalid email or password"}}
	gw, store := newTestGateway(api)

	err := gw.Login(context.Background(), "maria@example.com", "wrong")
	require.Error(t, err)

	assert.Empty(t, gw.AccessToken())
	assert.Nil(t, gw.CurrentUser())
	assert.False(t, gw.IsAuthenticated())
	_, getErr := store.Get(storage.KeyAuth)
	assert.ErrorIs(t, getErr, storage.ErrKeyNotFound)
}

func TestGateway_RestoreWipesRejectedToken(t *testing.T) {
	api := &stubAPI{validToken: "fresh"}
	gw, store := newTestGateway(api)

	// Syntactically valid pair, but the server no longer accepts the token.
	stale, _ := json.Marshal(map[string]string{"access_token": "stale", "refresh_token": "stale-r"})
	require.NoError(t, store.Set(storage.KeyAuth, string(stale)))

	gw.Restore(context.Background())

	assert.False(t, gw.IsAuthenticated())
	assert.Empty(t, gw.AccessToken())
	_, err := store.Get(storage.KeyAuth)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestGateway_RestoreWipesMalformedCredentials(t *testing.T) {
	api := &stubAPI{validToken: "tok"}
	gw, store := newTestGateway(api)
	require.NoError(t, store.Set(storage.KeyAuth, "{not json"))

	gw.Restore(context.Background())

	assert.False(t, gw.IsAuthenticated())
	_, err := store.Get(storage.KeyAuth)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestGateway_RestoreValidSession(t *testing.T) {
	api := &stubAPI{validToken: "tok", user: client.User{DisplayName: "Maria"}}
	gw, store := newTestGateway(api)
	creds, _ := json.Marshal(map[string]string{"access_token": "tok", "refresh_token": "refresh-tok"})
	require.NoError(t, store.Set(storage.KeyAuth, string(creds)))

	gw.Restore(context.Background())

	assert.True(t, gw.IsAuthenticated())
	assert.Equal(t, "tok", gw.AccessToken())
	assert.Equal(t, "Maria", gw.CurrentUser().DisplayName)
}

func TestGateway_RegisterAutoLogin(t *testing.T) {
	api := &stubAPI{validToken: "tok", user: client.User{DisplayName: "New User"}}
	gw, _ := newTestGateway(api)

	err := gw.Register(context.Background(), client.RegisterRequest{
		Email:       "new@example.com",
		Password:    "password123",
		DisplayName: "New User",
		ProfileType: client.ProfileStudent,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, api.registerCalls)
	assert.Equal(t, 1, api.loginCalls)
	assert.True(t, gw.IsAuthenticated())
}

func TestGateway_RegisterFailureLeavesNoSession(t *testing.T) {
	api := &stubAPI{registerErr: errors.New("email already registered")}
	gw, _ := newTestGateway(api)

	err := gw.Register(context.Background(), client.RegisterRequest{Email: "dup@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Zero(t, api.loginCalls)
	assert.False(t, gw.IsAuthenticated())
}

func TestGateway_LogoutIdempotent(t *testing.T) {
	api := &stubAPI{validToken: "tok"}
	gw, store := newTestGateway(api)
	require.NoError(t, gw.Login(context.Background(), "a@b.c", "password123"))

	gw.Logout(context.Background())
	gw.Logout(context.Background())

	assert.False(t, gw.IsAuthenticated())
	assert.Empty(t, gw.AccessToken())
	_, err := store.Get(storage.KeyAuth)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	// The second call had no token, so only one server logout went out.
	assert.Equal(t, 1, api.logoutCalls)
}
