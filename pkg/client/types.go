package client

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Quiz modes accepted by the sessions endpoint.
const (
	ModeSprint   = "sprint"
	ModeCampaign = "campaign"
	ModeOSCE     = "osce"
	ModeSRS      = "srs"
)

// Profile types accepted at registration.
const (
	ProfileStudent      = "student"
	ProfileProfessional = "professional"
	ProfileProfessor    = "professor"
)

// Leaderboard scopes.
const (
	ScopeGlobal       = "global"
	ScopeOrganization = "organization"
	ScopeClassroom    = "classroom"
	ScopeFriends      = "friends"
)

// User is the account view returned by the API.
type User struct {
	ID          uuid.UUID       `json:"id"`
	Email       *string         `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        string          `json:"role"`
	ProfileType string          `json:"profile_type"`
	XP          int             `json:"xp"`
	Streak      int             `json:"streak"`
	Energy      int             `json:"energy"`
	EloRating   int             `json:"elo_rating"`
	Preferences json.RawMessage `json:"preferences"`
}

// TokenPair holds the access/refresh token pair issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	ProfileType string `json:"profile_type"`
}

// Option is one selectable answer. Correctness is never exposed here; the
// server judges attempts.
type Option struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// Question as delivered inside a session. Read-only once received.
type Question struct {
	ID         uuid.UUID `json:"id"`
	Prompt     string    `json:"prompt"`
	System     string    `json:"system"`
	Type       string    `json:"type"`
	Difficulty string    `json:"difficulty"`
	MediaURL   *string   `json:"media_url,omitempty"`
	Options    []Option  `json:"options"`
}

// Session is one quiz run with its fixed question list.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	Mode            string     `json:"mode"`
	System          *string    `json:"system,omitempty"`
	Score           int        `json:"score"`
	DurationSeconds int        `json:"duration_seconds"`
	Completed       bool       `json:"completed"`
	Questions       []Question `json:"questions,omitempty"`
}

// AttemptResult records the server's verdict on one answer submission.
type AttemptResult struct {
	ID               uuid.UUID  `json:"id"`
	SessionID        uuid.UUID  `json:"session_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	IsCorrect        bool       `json:"is_correct"`
}

// CreateSessionRequest starts a new quiz session.
type CreateSessionRequest struct {
	Mode       string  `json:"mode"`
	System     *string `json:"system,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
	Limit      int     `json:"limit,omitempty"`
}

// Lesson is one step of a campaign.
type Lesson struct {
	ID              uuid.UUID `json:"id"`
	Order           int       `json:"order"`
	Title           string    `json:"title"`
	ContentURL      string    `json:"content_url"`
	DurationMinutes int       `json:"duration_minutes"`
	XPReward        int       `json:"xp_reward"`
}

// Campaign is an ordered track of lessons for one anatomy system.
type Campaign struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	System           string    `json:"system"`
	RecommendedLevel int       `json:"recommended_level"`
	Lessons          []Lesson  `json:"lessons"`
}

// LessonProgress is the recorded state of one lesson for the current user.
type LessonProgress struct {
	LessonID  uuid.UUID `json:"lesson_id"`
	Status    string    `json:"status"`
	Score     *float64  `json:"score,omitempty"`
	XPAwarded int       `json:"xp_awarded"`
}

// SystemProgress tracks completion of one anatomy system.
type SystemProgress struct {
	System          string     `json:"system"`
	CompletionRate  float64    `json:"completion_rate"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
}

// MissionState is one active mission with its current progress.
type MissionState struct {
	MissionID   uuid.UUID  `json:"mission_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	XPReward    int        `json:"xp_reward"`
	Target      int        `json:"target"`
	Frequency   string     `json:"frequency"`
	Category    string     `json:"category"`
	Progress    int        `json:"progress"`
	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Summary is the profile summary returned by /users/me/summary.
type Summary struct {
	User     User             `json:"user"`
	Progress []SystemProgress `json:"progress"`
	Missions []MissionState   `json:"missions"`
}

// DashboardSummary adds the user's global rank to the profile summary.
type DashboardSummary struct {
	Summary
	GlobalRank *int64 `json:"global_rank,omitempty"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	XP          int     `json:"xp"`
	Streak      int     `json:"streak"`
	Rank        int     `json:"rank"`
	Avatar      *string `json:"avatar,omitempty"`
}

// Leaderboard is a ranked board for one scope.
type Leaderboard struct {
	Scope       string             `json:"scope"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}
