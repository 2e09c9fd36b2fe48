package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

// Mission frequencies and statuses.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"

	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Mission categories; quiz events advance matching missions.
const (
	CategoryAnswers        = "answers"
	CategoryCorrectAnswers = "correct_answers"
	CategorySessions       = "sessions"
)

// defaultMissions are assigned to every new account.
var defaultMissions = []repository.Mission{
	{Title: "Sharpshooter", Description: "Answer 10 questions correctly", XPReward: 30, Target: 10, Frequency: FrequencyDaily, Category: CategoryCorrectAnswers},
	{Title: "Marathoner", Description: "Finish 3 quiz sessions", XPReward: 40, Target: 3, Frequency: FrequencyDaily, Category: CategorySessions},
	{Title: "Dedication", Description: "Answer 25 questions this week", XPReward: 100, Target: 25, Frequency: FrequencyWeekly, Category: CategoryAnswers},
}

type missionStore interface {
	FindMissionByTitle(ctx context.Context, title string) (repository.Mission, error)
	CreateMission(ctx context.Context, m repository.Mission) (repository.Mission, error)
	CreateProgress(ctx context.Context, userID, missionID uuid.UUID, expiresAt time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.MissionProgress, error)
	SaveProgress(ctx context.Context, p repository.MissionProgress) error
}

type xpStore interface {
	IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error
}

// Service manages recurring missions: assignment, expiry, and advancement.
type Service struct {
	store  missionStore
	xp     xpStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a mission service.
func NewService(store missionStore, xp xpStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		xp:     xp,
		now:    time.Now,
		logger: logger.With().Str("component", "mission").Logger(),
	}
}

// AssignDefaults attaches the default mission set to a user, creating the
// mission definitions on first use. Existing assignments are left alone.
func (s *Service) AssignDefaults(ctx context.Context, userID uuid.UUID) error {
	for _, def := range defaultMissions {
		m, err := s.store.FindMissionByTitle(ctx, def.Title)
		if errors.Is(err, repository.ErrNotFound) {
			m, err = s.store.CreateMission(ctx, def)
		}
		if err != nil {
			return fmt.Errorf("ensure mission %q: %w", def.Title, err)
		}
		if err := s.store.CreateProgress(ctx, userID, m.ID, s.expiry(m.Frequency)); err != nil {
			return fmt.Errorf("assign mission %q: %w", def.Title, err)
		}
	}
	return nil
}

// ListActive returns the user's missions, resetting any whose window has
// lapsed so each period starts from zero.
func (s *Service) ListActive(ctx context.Context, userID uuid.UUID) ([]repository.MissionProgress, error) {
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}

	now := s.now()
	for i, p := range rows {
		if p.ExpiresAt == nil || p.ExpiresAt.After(now) {
			continue
		}
		expiry := s.expiry(p.Mission.Frequency)
		p.Progress = 0
		p.Status = StatusActive
		p.ExpiresAt = &expiry
		if err := s.store.SaveProgress(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str("mission", p.Mission.Title).Msg("mission reset failed")
			continue
		}
		rows[i] = p
	}
	return rows, nil
}

// Advance increments every active mission in the given category, marking
// completion and paying the reward when the target is reached.
func (s *Service) Advance(ctx context.Context, userID uuid.UUID, category string, delta int) {
	rows, err := s.ListActive(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("mission advance skipped")
		return
	}

	for _, p := range rows {
		if p.Mission.Category != category || p.Status != StatusActive {
			continue
		}
		p.Progress += delta
		if p.Progress >= p.Mission.Target {
			p.Progress = p.Mission.Target
			p.Status = StatusCompleted
		}
		if err := s.store.SaveProgress(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str("mission", p.Mission.Title).Msg("mission save failed")
			continue
		}
		if p.Status == StatusCompleted && p.Mission.XPReward > 0 {
			if err := s.xp.IncrementXP(ctx, userID, p.Mission.XPReward); err != nil {
				s.logger.Warn().Err(err).Str("mission", p.Mission.Title).Msg("mission xp award failed")
				continue
			}
			s.logger.Info().
				Str("user_id", userID.String()).
				Str("mission", p.Mission.Title).
				Int("xp", p.Mission.XPReward).
				Msg("mission completed")
		}
	}
}

// OnAttempt advances answer-based missions after each graded attempt.
func (s *Service) OnAttempt(ctx context.Context, userID uuid.UUID, correct bool) {
	s.Advance(ctx, userID, CategoryAnswers, 1)
	if correct {
		s.Advance(ctx, userID, CategoryCorrectAnswers, 1)
	}
}

// OnSessionComplete advances session-based missions.
func (s *Service) OnSessionComplete(ctx context.Context, userID uuid.UUID, score int) {
	s.Advance(ctx, userID, CategorySessions, 1)
}

// ListByUser satisfies consumers that render missions without the expiry
// reset pass.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.MissionProgress, error) {
	return s.ListActive(ctx, userID)
}

func (s *Service) expiry(frequency string) time.Time {
	now := s.now()
	if frequency == FrequencyWeekly {
		return now.Add(7 * 24 * time.Hour)
	}
	return now.Add(24 * time.Hour)
}
