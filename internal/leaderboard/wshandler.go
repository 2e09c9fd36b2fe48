package leaderboard

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	ws "github.com/mtsferreira/anatomy-game/pkg/http/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend host is settled
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler upgrades clients onto the hub so they receive live ranking
// pushes from the broadcaster.
type WSHandler struct {
	hub     *ws.Hub
	authSvc *auth.Service
	logger  zerolog.Logger
}

// NewWSHandler creates the leaderboard WebSocket handler.
func NewWSHandler(hub *ws.Hub, authSvc *auth.Service, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		authSvc: authSvc,
		logger:  logger.With().Str("component", "leaderboard_ws").Logger(),
	}
}

// HandleWebSocket serves GET /ws/leaderboard?token={access_token}.
// Browsers cannot set headers on WebSocket requests, so the token rides
// in the query string.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := ws.NewConnection(rawConn, h.logger)
	h.hub.RegisterConnection(claims.UserID, conn)

	go conn.WritePump()
	go func() {
		defer h.hub.UnregisterConnection(claims.UserID)
		conn.ReadPump(func(msg ws.Message) error {
			if msg.Type == ws.TypePing {
				return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
			}
			return nil
		})
	}()
}
