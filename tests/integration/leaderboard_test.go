//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	apiclient "github.com/mtsferreira/anatomy-game/pkg/client"
	wsmsg "github.com/mtsferreira/anatomy-game/pkg/http/ws"
)

func TestLeaderboardScopes(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	account := createAccount(t, baseURL, "leaderboard")
	api := apiclient.New(baseURL+"/v1", apiclient.Options{Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	board, err := api.Leaderboard(ctx, account.AccessToken, apiclient.ScopeGlobal, nil)
	if err != nil {
		t.Fatalf("global leaderboard failed: %v", err)
	}
	if board.Scope != apiclient.ScopeGlobal {
		t.Fatalf("unexpected scope: %q", board.Scope)
	}
	if board.GeneratedAt.IsZero() {
		t.Fatal("missing generated_at timestamp")
	}
	for i := 1; i < len(board.Entries); i++ {
		if board.Entries[i].XP > board.Entries[i-1].XP {
			t.Fatalf("entries not ordered by xp at index %d", i)
		}
		if board.Entries[i].Rank != board.Entries[i-1].Rank+1 {
			t.Fatalf("ranks not consecutive at index %d", i)
		}
	}

	_, err = api.Leaderboard(ctx, account.AccessToken, "galaxy", nil)
	var apiErr *apiclient.APIError
	if err == nil {
		t.Fatal("expected error for unknown scope")
	}
	if !errors.As(err, &apiErr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if apiErr.Status != 404 {
		t.Fatalf("expected 404 for unknown scope, got %v", err)
	}
}

func TestLeaderboardWebSocketPing(t *testing.T) {
	baseHTTP := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/leaderboard")
	account := createAccount(t, baseHTTP, "ws-ping")

	u, err := url.Parse(baseWS)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", account.AccessToken)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	ping := wsmsg.Message{Type: wsmsg.TypePing, Payload: json.RawMessage(`{}`)}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(ping); err != nil {
		t.Fatalf("write ping failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply wsmsg.Message
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read pong failed: %v", err)
	}
	if reply.Type != wsmsg.TypePong {
		t.Fatalf("expected pong, got %q", reply.Type)
	}
}
