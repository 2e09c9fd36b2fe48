package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is the persisted account row.
type User struct {
	ID             uuid.UUID
	Email          *string
	HashedPassword *string
	DisplayName    string
	Role           string
	ProfileType    string
	XP             int
	Streak         int
	Energy         int
	EloRating      int
	Preferences    json.RawMessage
	OrganizationID *uuid.UUID
	Metadata       json.RawMessage
	CreatedAt      time.Time
	LastLoginAt    *time.Time
}

// QuizQuestion is a question row; Options are loaded alongside it.
type QuizQuestion struct {
	ID            uuid.UUID
	Prompt        string
	AnatomySystem string
	Type          string
	Difficulty    string
	MediaURL      *string
	Options       []QuizOption
}

// QuizOption belongs to exactly one question. IsCorrect never leaves the server.
type QuizOption struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Label      string
	IsCorrect  bool
}

// QuizSession is one run through a fixed question list.
type QuizSession struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Mode            string
	System          *string
	Score           int
	DurationSeconds int
	Completed       bool
	CreatedAt       time.Time
}

// QuizAttempt records one answer submission within a session.
type QuizAttempt struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	QuestionID       uuid.UUID
	SelectedOptionID *uuid.UUID
	IsCorrect        bool
}

// Campaign is a guided learning track with ordered lessons.
type Campaign struct {
	ID               uuid.UUID
	Title            string
	Description      string
	AnatomySystem    string
	RecommendedLevel int
	Lessons          []CampaignLesson
}

// CampaignLesson is one step of a campaign.
type CampaignLesson struct {
	ID              uuid.UUID
	CampaignID      uuid.UUID
	Order           int
	Title           string
	ContentURL      string
	DurationMinutes int
	XPReward        int
}

// CampaignProgress tracks a user's state on one lesson.
type CampaignProgress struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	LessonID uuid.UUID
	Status   string
	Score    *float64
}

// Mission is a recurring daily or weekly goal.
type Mission struct {
	ID          uuid.UUID
	Title       string
	Description string
	XPReward    int
	Target      int
	Frequency   string
	Category    string
}

// MissionProgress tracks a user's state on one mission.
type MissionProgress struct {
	ID        uuid.UUID
	MissionID uuid.UUID
	UserID    uuid.UUID
	Progress  int
	Status    string
	ExpiresAt *time.Time
	Mission   Mission
}

// SystemProgress is per-anatomy-system completion for a user.
type SystemProgress struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	System          string
	CompletionRate  float64
	LastInteraction *time.Time
}

// LeaderboardSnapshot is a persisted ranking for one scope.
type LeaderboardSnapshot struct {
	ID          uuid.UUID
	Scope       string
	ReferenceID *uuid.UUID
	GeneratedAt time.Time
	Data        json.RawMessage
}
