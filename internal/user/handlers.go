package user

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	httperrors "github.com/mtsferreira/anatomy-game/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for the current user.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for user endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// Me handles GET and PATCH /v1/users/me.
func (h *HTTPHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	switch r.Method {
	case http.MethodGet:
		profile, err := h.svc.Profile(r.Context(), claims.UserID)
		if err != nil {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User not found")
			return
		}
		h.respondJSON(w, http.StatusOK, profile)

	case http.MethodPatch:
		var req struct {
			DisplayName *string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
		profile, err := h.svc.UpdateProfile(r.Context(), claims.UserID, req.DisplayName)
		if err != nil {
			httperrors.RespondInternalError(w, "Failed to update profile")
			return
		}
		h.respondJSON(w, http.StatusOK, profile)

	default:
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
	}
}

// Summary handles GET /v1/users/me/summary.
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
		h.logger.Error().Err(err).Msg("failed to build user summary")
		httperrors.RespondInternalError(w, "Failed to load summary")
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// Preferences handles POST /v1/users/me/preferences. PUT and PATCH are
// accepted as aliases since the merge is the same either way.
func (h *HTTPHandlers) Preferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	var prefs map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	profile, err := h.svc.UpdatePreferences(r.Context(), claims.UserID, prefs)
	if err != nil {
		httperrors.RespondInternalError(w, "Failed to update preferences")
		return
	}
	h.respondJSON(w, http.StatusOK, profile)
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
