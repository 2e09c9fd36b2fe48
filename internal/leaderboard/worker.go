package leaderboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotWorker periodically rebuilds the global board so snapshots and
// the rank index stay fresh without request-path work.
type SnapshotWorker struct {
	svc      *Service
	logger   zerolog.Logger
	interval time.Duration
}

func NewSnapshotWorker(svc *Service, interval time.Duration, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotWorker{
		svc:      svc,
		logger:   logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval: interval,
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.svc == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	board, err := w.svc.Build(ctx, ScopeGlobal, nil)
	if err != nil {
		w.logger.Warn().Err(err).Msg("snapshot rebuild failed")
		return
	}
	w.logger.Info().
		Int("entries", len(board.Entries)).
		Time("generated_at", board.GeneratedAt).
		Msg("leaderboard snapshot persisted")
}
