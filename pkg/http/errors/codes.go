package errors

// Error codes for standardized error responses.
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeRateLimited            = "rate_limit_exceeded"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Auth flow errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeRefreshFailed      = "refresh_failed"
	ErrCodeResetFailed        = "reset_failed"

	// Quiz errors
	ErrCodeSessionCreationFailed = "session_creation_failed"
	ErrCodeSessionNotFound       = "session_not_found"
	ErrCodeAttemptFailed         = "attempt_failed"
	ErrCodeInvalidOption         = "invalid_option"
	ErrCodeNoQuestionsAvailable  = "no_questions_available"

	// Campaign / mission errors
	ErrCodeCampaignFetchFailed = "campaign_fetch_failed"
	ErrCodeLessonNotFound      = "lesson_not_found"
	ErrCodeMissionNotAssigned  = "mission_not_assigned"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownScope           = "unknown_leaderboard_scope"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// OAuth errors
	ErrCodeOAuthNotConfigured  = "oauth_not_configured"
	ErrCodeOAuthStartFailed    = "oauth_start_failed"
	ErrCodeOAuthCallbackFailed = "oauth_callback_failed"
	ErrCodeOAuthMissingCode    = "missing_code"
	ErrCodeOAuthInvalidState   = "invalid_state"
)
