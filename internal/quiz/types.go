package quiz

import "github.com/google/uuid"

// Quiz modes. Campaign and OSCE sessions reuse the same machinery with a
// different question selection; SRS draws from previously missed questions.
const (
	ModeSprint   = "sprint"
	ModeCampaign = "campaign"
	ModeOSCE     = "osce"
	ModeSRS      = "srs"
)

// ValidModes lists every accepted session mode.
var ValidModes = map[string]bool{
	ModeSprint:   true,
	ModeCampaign: true,
	ModeOSCE:     true,
	ModeSRS:      true,
}

// Option is a selectable answer. Correctness is never exposed here.
type Option struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// Question is one quiz question with its options.
type Question struct {
	ID         uuid.UUID `json:"id"`
	Prompt     string    `json:"prompt"`
	System     string    `json:"system"`
	Type       string    `json:"type"`
	Difficulty string    `json:"difficulty"`
	MediaURL   *string   `json:"media_url,omitempty"`
	Options    []Option  `json:"options"`
}

// Session is one run through a fixed question list.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	Mode            string     `json:"mode"`
	System          *string    `json:"system,omitempty"`
	Score           int        `json:"score"`
	DurationSeconds int        `json:"duration_seconds"`
	Completed       bool       `json:"completed"`
	Questions       []Question `json:"questions,omitempty"`
}

// AttemptResult is the server's verdict on a submitted answer.
type AttemptResult struct {
	ID               uuid.UUID  `json:"id"`
	SessionID        uuid.UUID  `json:"session_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	IsCorrect        bool       `json:"is_correct"`
}

// CreateSessionRequest is the POST /v1/quizzes/sessions payload.
type CreateSessionRequest struct {
	Mode       string  `json:"mode"`
	System     *string `json:"system,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
	Limit      int     `json:"limit,omitempty"`
}

// SubmitAttemptRequest is the POST /v1/quizzes/sessions/{id}/attempts payload.
type SubmitAttemptRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
	OptionID   uuid.UUID `json:"option_id"`
}
