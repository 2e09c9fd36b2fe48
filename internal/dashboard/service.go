package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/user"
)

type summaryProvider interface {
	Summary(ctx context.Context, userID uuid.UUID) (*user.Summary, error)
}

type rankProvider interface {
	GlobalRank(ctx context.Context, userID uuid.UUID) (int64, bool)
}

// Summary is the home-screen payload: profile, study progress, missions,
// and where the user stands globally.
type Summary struct {
	user.Summary
	GlobalRank *int64 `json:"global_rank,omitempty"`
}

// Service assembles the dashboard summary.
type Service struct {
	users  summaryProvider
	ranks  rankProvider
	logger zerolog.Logger
}

// NewService creates a dashboard service.
func NewService(users summaryProvider, ranks rankProvider, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		ranks:  ranks,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}
}

// Summary builds the dashboard for one user.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	base, err := s.users.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user summary: %w", err)
	}

	out := &Summary{Summary: *base}
	if s.ranks != nil {
		if rank, ok := s.ranks.GlobalRank(ctx, userID); ok {
			out.GlobalRank = &rank
		}
	}
	return out, nil
}
