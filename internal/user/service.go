package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

type userStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	MergePreferences(ctx context.Context, userID uuid.UUID, prefs json.RawMessage) (repository.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (repository.User, error)
}

type progressStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.SystemProgress, error)
}

type missionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.MissionProgress, error)
}

// SystemProgress is the wire form of per-system study progress.
type SystemProgress struct {
	System          string     `json:"system"`
	CompletionRate  float64    `json:"completion_rate"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
}

// MissionState is the wire form of one active mission.
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

// Summary bundles the profile with per-system progress and active missions.
type Summary struct {
	User     auth.User        `json:"user"`
	Progress []SystemProgress `json:"progress"`
	Missions []MissionState   `json:"missions"`
}

// Service exposes the authenticated user's profile and preferences.
type Service struct {
	users    userStore
	progress progressStore
	missions missionStore
	logger   zerolog.Logger
}

// NewService creates a user profile service.
func NewService(users userStore, progress progressStore, missions missionStore, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		progress: progress,
		missions: missions,
		logger:   logger.With().Str("component", "user").Logger(),
	}
}

// Profile returns the user's own profile.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*auth.User, error) {
	dbUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := toProfile(dbUser)
	return &u, nil
}

// Summary returns the profile plus study progress and mission state.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	dbUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	progress := make([]SystemProgress, 0, len(rows))
	for _, p := range rows {
		progress = append(progress, SystemProgress{
			System:          p.System,
			CompletionRate:  p.CompletionRate,
			LastInteraction: p.LastInteraction,
		})
	}

	missionRows, err := s.missions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	missions := make([]MissionState, 0, len(missionRows))
	for _, m := range missionRows {
		missions = append(missions, MissionState{
			MissionID:   m.MissionID,
			Title:       m.Mission.Title,
			Description: m.Mission.Description,
			XPReward:    m.Mission.XPReward,
			Target:      m.Mission.Target,
			Frequency:   m.Mission.Frequency,
			Category:    m.Mission.Category,
			Progress:    m.Progress,
			Status:      m.Status,
			ExpiresAt:   m.ExpiresAt,
		})
	}

	return &Summary{
		User:     toProfile(dbUser),
		Progress: progress,
		Missions: missions,
	}, nil
}

// UpdatePreferences merges the given keys into the stored preferences
// object and returns the updated profile.
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs map[string]interface{}) (*auth.User, error) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}

	dbUser, err := s.users.MergePreferences(ctx, userID, raw)
	if err != nil {
		return nil, fmt.Errorf("merge preferences: %w", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("preferences updated")
	u := toProfile(dbUser)
	return &u, nil
}

// UpdateProfile changes mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName *string) (*auth.User, error) {
	dbUser, err := s.users.UpdateProfile(ctx, userID, repository.UpdateProfileParams{DisplayName: displayName})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	u := toProfile(dbUser)
	return &u, nil
}

func toProfile(dbUser repository.User) auth.User {
	return auth.User{
		ID:          dbUser.ID,
		Email:       dbUser.Email,
		DisplayName: dbUser.DisplayName,
		Role:        dbUser.Role,
		ProfileType: dbUser.ProfileType,
		XP:          dbUser.XP,
		Streak:      dbUser.Streak,
		Energy:      dbUser.Energy,
		EloRating:   dbUser.EloRating,
		Preferences: dbUser.Preferences,
	}
}
