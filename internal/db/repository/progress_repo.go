package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository tracks per-anatomy-system completion for users.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository constructs a progress repository.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListByUser returns all system progress rows for a user.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]SystemProgress, error) {
	query := `
		SELECT id, user_id, system, completion_rate, last_interaction
		FROM user_system_progress
		WHERE user_id = $1
		ORDER BY system`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list system progress: %w", err)
	}
	defer rows.Close()

	var out []SystemProgress
	for rows.Next() {
		var p SystemProgress
		if err := rows.Scan(&p.ID, &p.UserID, &p.System, &p.CompletionRate, &p.LastInteraction); err != nil {
			return nil, fmt.Errorf("scan system progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Ensure inserts a zeroed progress row unless one already exists.
func (r *ProgressRepository) Ensure(ctx context.Context, userID uuid.UUID, system string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_system_progress (user_id, system)
		VALUES ($1, $2)
		ON CONFLICT (user_id, system) DO NOTHING`,
		userID, system)
	if err != nil {
		return fmt.Errorf("ensure system progress: %w", err)
	}
	return nil
}

// BumpCompletion shifts the completion rate by delta, clamped to [0, 1], and
// stamps the interaction date.
func (r *ProgressRepository) BumpCompletion(ctx context.Context, userID uuid.UUID, system string, delta float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_system_progress (user_id, system, completion_rate, last_interaction)
		VALUES ($1, $2, LEAST(1.0, GREATEST(0.0, $3)), $4)
		ON CONFLICT (user_id, system)
		DO UPDATE SET
			completion_rate = LEAST(1.0, GREATEST(0.0, user_system_progress.completion_rate + $3)),
			last_interaction = $4`,
		userID, system, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("bump system progress: %w", err)
	}
	return nil
}
