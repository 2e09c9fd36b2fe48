package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

// AnatomySystems are the study areas tracked per user.
var AnatomySystems = []string{
	"skeletal",
	"muscular",
	"cardiovascular",
	"nervous",
	"respiratory",
	"digestive",
}

type progressStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.SystemProgress, error)
	Ensure(ctx context.Context, userID uuid.UUID, system string) error
	BumpCompletion(ctx context.Context, userID uuid.UUID, system string, delta float64) error
}

// Service tracks per-system study completion.
type Service struct {
	store  progressStore
	logger zerolog.Logger
}

// NewService creates a progress service.
func NewService(store progressStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "progress").Logger(),
	}
}

// SeedSystems creates a zeroed progress row for every anatomy system.
// Existing rows are untouched.
func (s *Service) SeedSystems(ctx context.Context, userID uuid.UUID) error {
	for _, system := range AnatomySystems {
		if err := s.store.Ensure(ctx, userID, system); err != nil {
			return fmt.Errorf("seed %s progress: %w", system, err)
		}
	}
	return nil
}

// ListByUser returns the user's per-system progress rows.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.SystemProgress, error) {
	return s.store.ListByUser(ctx, userID)
}

// BumpCompletion nudges completion for one system; the stored rate is
// clamped to [0, 1].
func (s *Service) BumpCompletion(ctx context.Context, userID uuid.UUID, system string, delta float64) error {
	return s.store.BumpCompletion(ctx, userID, system, delta)
}
