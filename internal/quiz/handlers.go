package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	httperrors "github.com/mtsferreira/anatomy-game/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for quiz sessions.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for quiz endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// CreateSession handles POST /v1/quizzes/sessions.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	session, err := h.svc.CreateSession(r.Context(), claims.UserID, req)
	switch {
	case errors.Is(err, ErrInvalidMode):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Unknown quiz mode", "mode")
	case errors.Is(err, ErrNoQuestions):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeNoQuestionsAvailable, "No questions match the requested filters")
	case err != nil:
		h.logger.Error().Err(err).Msg("session creation failed")
		httperrors.RespondInternalError(w, "Failed to create session")
	default:
		h.respondJSON(w, http.StatusCreated, session)
	}
}

// SubmitAttempt handles POST /v1/quizzes/sessions/{id}/attempts.
func (h *HTTPHandlers) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid session id")
		return
	}

	var req SubmitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	result, err := h.svc.SubmitAttempt(r.Context(), claims.UserID, sessionID, req)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
	case errors.Is(err, ErrSessionCompleted):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeConflict, "Session already completed")
	case errors.Is(err, ErrInvalidOption):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidOption, "Option does not belong to the question")
	case err != nil:
		h.logger.Error().Err(err).Msg("attempt submission failed")
		httperrors.RespondInternalError(w, "Failed to submit attempt")
	default:
		h.respondJSON(w, http.StatusCreated, result)
	}
}

// CompleteSession handles POST /v1/quizzes/sessions/{id}/complete.
// duration_seconds comes as a query parameter.
func (h *HTTPHandlers) CompleteSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid session id")
		return
	}

	duration := 0
	if raw := r.URL.Query().Get("duration_seconds"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration < 0 {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "duration_seconds must be a non-negative integer", "duration_seconds")
			return
		}
	}

	session, err := h.svc.CompleteSession(r.Context(), claims.UserID, sessionID, duration)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
	case err != nil:
		h.logger.Error().Err(err).Msg("session completion failed")
		httperrors.RespondInternalError(w, "Failed to complete session")
	default:
		h.respondJSON(w, http.StatusOK, session)
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
