package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardRepository persists ranking snapshots.
type LeaderboardRepository struct {
	db *pgxpool.Pool
}

// NewLeaderboardRepository constructs a leaderboard repository.
func NewLeaderboardRepository(db *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// InsertSnapshot stores a generated ranking for a scope.
func (r *LeaderboardRepository) InsertSnapshot(ctx context.Context, scope string, referenceID *uuid.UUID, generatedAt time.Time, data json.RawMessage) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO leaderboard_snapshots (scope, reference_id, generated_at, data)
		VALUES ($1, $2, $3, $4)`,
		scope, referenceID, generatedAt, data)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for a scope, if any.
func (r *LeaderboardRepository) LatestSnapshot(ctx context.Context, scope string, referenceID *uuid.UUID) (LeaderboardSnapshot, error) {
	query := `
		SELECT id, scope, reference_id, generated_at, data
		FROM leaderboard_snapshots
		WHERE scope = $1 AND ($2::uuid IS NULL OR reference_id = $2)
		ORDER BY generated_at DESC
		LIMIT 1`

	var s LeaderboardSnapshot
	err := r.db.QueryRow(ctx, query, scope, referenceID).Scan(
		&s.ID, &s.Scope, &s.ReferenceID, &s.GeneratedAt, &s.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaderboardSnapshot{}, ErrNotFound
	}
	if err != nil {
		return LeaderboardSnapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return s, nil
}
