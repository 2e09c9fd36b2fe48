package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{Logger: zerolog.Nop()})
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(User{DisplayName: "Maria"})
	})

	user, err := c.Me(context.Background(), "token-123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "Maria", user.DisplayName)
}

func TestClient_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(TokenPair{AccessToken: "a", RefreshToken: "r"})
	})

	_, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_NoContentIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.Logout(context.Background(), "token"))
}

func TestClient_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"prefers detail", http.StatusBadRequest, `{"detail":"email already registered","message":"other"}`, "email already registered"},
		{"falls back to message", http.StatusUnauthorized, `{"error":"unauthorized","message":"Invalid email or password"}`, "Invalid email or password"},
		{"falls back to status text", http.StatusBadGateway, "not json at all", "Bad Gateway"},
		{"empty body", http.StatusNotFound, "", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Me(context.Background(), "token")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestClient_LeaderboardQuery(t *testing.T) {
	refID := uuid.New()
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(Leaderboard{Scope: ScopeOrganization})
	})

	board, err := c.Leaderboard(context.Background(), "token", ScopeOrganization, &refID)
	require.NoError(t, err)
	assert.Equal(t, ScopeOrganization, board.Scope)
	assert.Contains(t, gotQuery, "scope=organization")
	assert.Contains(t, gotQuery, "reference_id="+refID.String())
}

func TestClient_LeaderboardScopeChange(t *testing.T) {
	var scopes []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		scope := r.URL.Query().Get("scope")
		scopes = append(scopes, scope)
		json.NewEncoder(w).Encode(Leaderboard{
			Scope:   scope,
			Entries: []LeaderboardEntry{{DisplayName: "top-" + scope, Rank: 1}},
		})
	})

	global, err := c.Leaderboard(context.Background(), "token", ScopeGlobal, nil)
	require.NoError(t, err)
	require.Len(t, global.Entries, 1)

	friends, err := c.Leaderboard(context.Background(), "token", ScopeFriends, nil)
	require.NoError(t, err)

	// Exactly one additional fetch, carrying the new scope.
	require.Equal(t, []string{ScopeGlobal, ScopeFriends}, scopes)

	// The new board replaces the old entries rather than appending to them.
	require.Len(t, friends.Entries, 1)
	assert.Equal(t, "top-friends", friends.Entries[0].DisplayName)
	assert.Equal(t, "top-global", global.Entries[0].DisplayName)
}

func TestClient_CompleteSessionQuery(t *testing.T) {
	sessionID := uuid.New()
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		json.NewEncoder(w).Encode(Session{ID: sessionID, Completed: true})
	})

	session, err := c.CompleteQuizSession(context.Background(), "token", sessionID, 45)
	require.NoError(t, err)
	assert.True(t, session.Completed)
	assert.Equal(t, "/quizzes/sessions/"+sessionID.String()+"/complete?duration_seconds=45", gotPath)
}

func TestClient_JSONContentType(t *testing.T) {
	var gotContentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Session{})
	})

	_, err := c.CreateQuizSession(context.Background(), "token", CreateSessionRequest{Mode: ModeSprint, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
}
