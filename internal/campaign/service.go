package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

// Lesson statuses.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var validStatuses = map[string]bool{
	StatusNotStarted: true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrInvalidStatus  = errors.New("invalid lesson status")
)

// Lesson is the wire form of one campaign step.
type Lesson struct {
	ID              uuid.UUID `json:"id"`
	Order           int       `json:"order"`
	Title           string    `json:"title"`
	ContentURL      string    `json:"content_url"`
	DurationMinutes int       `json:"duration_minutes"`
	XPReward        int       `json:"xp_reward"`
}

// Campaign is the wire form of one learning track.
type Campaign struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	System           string    `json:"system"`
	RecommendedLevel int       `json:"recommended_level"`
	Lessons          []Lesson  `json:"lessons"`
}

// LessonProgress is the wire form of a user's state on one lesson.
type LessonProgress struct {
	LessonID  uuid.UUID `json:"lesson_id"`
	Status    string    `json:"status"`
	Score     *float64  `json:"score,omitempty"`
	XPAwarded int       `json:"xp_awarded"`
}

type campaignStore interface {
	List(ctx context.Context) ([]repository.Campaign, error)
	GetLesson(ctx context.Context, lessonID uuid.UUID) (repository.CampaignLesson, error)
	UpsertLessonProgress(ctx context.Context, userID, lessonID uuid.UUID, status string, score *float64) (previousStatus string, err error)
}

type xpStore interface {
	IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error
}

// Service exposes campaign tracks and lesson progress.
type Service struct {
	store  campaignStore
	xp     xpStore
	logger zerolog.Logger
}

// NewService creates a campaign service.
func NewService(store campaignStore, xp xpStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		xp:     xp,
		logger: logger.With().Str("component", "campaign").Logger(),
	}
}

// List returns every campaign with its lessons in order.
func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	campaigns := make([]Campaign, 0, len(rows))
	for _, c := range rows {
		lessons := make([]Lesson, 0, len(c.Lessons))
		for _, l := range c.Lessons {
			lessons = append(lessons, Lesson{
				ID:              l.ID,
				Order:           l.Order,
				Title:           l.Title,
				ContentURL:      l.ContentURL,
				DurationMinutes: l.DurationMinutes,
				XPReward:        l.XPReward,
			})
		}
		campaigns = append(campaigns, Campaign{
			ID:               c.ID,
			Title:            c.Title,
			Description:      c.Description,
			System:           c.AnatomySystem,
			RecommendedLevel: c.RecommendedLevel,
			Lessons:          lessons,
		})
	}
	return campaigns, nil
}

// RecordLessonProgress upserts the user's status on a lesson. The lesson's
// XP reward is granted exactly once, on the first transition to completed.
func (s *Service) RecordLessonProgress(ctx context.Context, userID, lessonID uuid.UUID, status string, score *float64) (*LessonProgress, error) {
	if !validStatuses[status] {
		return nil, ErrInvalidStatus
	}

	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	previousStatus, err := s.store.UpsertLessonProgress(ctx, userID, lessonID, status, score)
	if err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}

	awarded := 0
	if status == StatusCompleted && previousStatus != StatusCompleted && lesson.XPReward > 0 {
		if err := s.xp.IncrementXP(ctx, userID, lesson.XPReward); err != nil {
			s.logger.Warn().Err(err).Str("lesson_id", lessonID.String()).Msg("lesson xp award failed")
		} else {
			awarded = lesson.XPReward
		}
	}

	if awarded > 0 {
		s.logger.Info().
			Str("user_id", userID.String()).
			Str("lesson_id", lessonID.String()).
			Int("xp", awarded).
			Msg("lesson completed")
	}

	return &LessonProgress{
		LessonID:  lessonID,
		Status:    status,
		Score:     score,
		XPAwarded: awarded,
	}, nil
}
