package leaderboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/mtsferreira/anatomy-game/pkg/http/errors"
)

// HTTPHandler exposes the leaderboard query endpoint.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current ranking for a scope.
// Route: GET /v1/leaderboard?scope=global&reference_id={uuid}
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = ScopeGlobal
	}

	var referenceID *uuid.UUID
	if raw := r.URL.Query().Get("reference_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "reference_id must be a UUID", "reference_id")
			return
		}
		referenceID = &parsed
	}

	board, err := h.svc.Get(r.Context(), scope, referenceID)
	switch {
	case errors.Is(err, ErrUnknownScope):
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownScope, "Unknown leaderboard scope")
	case err != nil:
		h.logger.Error().Err(err).Str("scope", scope).Msg("leaderboard fetch failed")
		httperrors.RespondInternalError(w, "Failed to load leaderboard")
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"scope":        board.Scope,
			"entries":      board.Entries,
			"generated_at": board.GeneratedAt.Format(time.RFC3339),
		})
	}
}
