package campaign

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	httperrors "github.com/mtsferreira/anatomy-game/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for campaigns.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for campaign endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// List handles GET /v1/campaigns.
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	campaigns, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("campaign list failed")
		httperrors.RespondInternalError(w, "Failed to load campaigns")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

// LessonProgress handles POST /v1/campaigns/lessons/{id}/progress.
func (h *HTTPHandlers) LessonProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	lessonID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid lesson id")
		return
	}

	var req struct {
		Status string   `json:"status"`
		Score  *float64 `json:"score,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	progress, err := h.svc.RecordLessonProgress(r.Context(), claims.UserID, lessonID, req.Status, req.Score)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Unknown lesson status", "status")
	case errors.Is(err, ErrLessonNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeLessonNotFound, "Lesson not found")
	case err != nil:
		h.logger.Error().Err(err).Msg("lesson progress failed")
		httperrors.RespondInternalError(w, "Failed to record progress")
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(progress)
	}
}
