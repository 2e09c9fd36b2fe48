package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	httperrors "github.com/mtsferreira/anatomy-game/pkg/http/errors"
)

// HTTPHandlers provides the dashboard endpoint.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for the dashboard.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// Summary handles GET /v1/dashboard/summary.
func (h *HTTPHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	summary, err := h.svc.Summary(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("dashboard summary failed")
		httperrors.RespondInternalError(w, "Failed to load dashboard")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
