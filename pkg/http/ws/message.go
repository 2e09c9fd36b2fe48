package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeSubscribe = "subscribe"
	TypePing      = "ping"

	// Server -> Client
	TypeLeaderboardUpdate = "leaderboard_update"
	TypePong              = "pong"
	TypeError             = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// SubscribePayload selects which leaderboard scope a client wants pushed.
type SubscribePayload struct {
	Scope string `json:"scope"`
}

// LeaderboardUpdatePayload carries a fresh ranking to subscribed clients.
type LeaderboardUpdatePayload struct {
	Scope       string             `json:"scope"`
	Top         []LeaderboardEntry `json:"top"`
	GeneratedAt string             `json:"generated_at"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	XP          int    `json:"xp"`
	Streak      int    `json:"streak"`
	EloRating   int    `json:"elo_rating"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
