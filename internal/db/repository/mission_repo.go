package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MissionRepository contains DB helpers for missions and per-user progress.
type MissionRepository struct {
	db *pgxpool.Pool
}

// NewMissionRepository constructs a mission repository.
func NewMissionRepository(db *pgxpool.Pool) *MissionRepository {
	return &MissionRepository{db: db}
}

// FindMissionByTitle fetches a mission definition by its unique title.
func (r *MissionRepository) FindMissionByTitle(ctx context.Context, title string) (Mission, error) {
	query := `SELECT id, title, description, xp_reward, target, frequency, category FROM missions WHERE title = $1`

	var m Mission
	err := r.db.QueryRow(ctx, query, title).Scan(
		&m.ID, &m.Title, &m.Description, &m.XPReward, &m.Target, &m.Frequency, &m.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return Mission{}, ErrNotFound
	}
	if err != nil {
		return Mission{}, fmt.Errorf("find mission: %w", err)
	}
	return m, nil
}

// CreateMission inserts a mission definition.
func (r *MissionRepository) CreateMission(ctx context.Context, m Mission) (Mission, error) {
	query := `
		INSERT INTO missions (title, description, xp_reward, target, frequency, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, m.Title, m.Description, m.XPReward, m.Target, m.Frequency, m.Category).Scan(&m.ID)
	if err != nil {
		return Mission{}, fmt.Errorf("create mission: %w", err)
	}
	return m, nil
}

// CreateProgress assigns a mission to a user.
func (r *MissionRepository) CreateProgress(ctx context.Context, userID, missionID uuid.UUID, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO mission_progress (mission_id, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, mission_id) DO NOTHING`,
		missionID, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create mission progress: %w", err)
	}
	return nil
}

// ListByUser returns the user's mission progress rows with definitions attached.
func (r *MissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]MissionProgress, error) {
	query := `
		SELECT p.id, p.mission_id, p.user_id, p.progress, p.status, p.expires_at,
		       m.id, m.title, m.description, m.xp_reward, m.target, m.frequency, m.category
		FROM mission_progress p
		JOIN missions m ON m.id = p.mission_id
		WHERE p.user_id = $1
		ORDER BY m.title`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list mission progress: %w", err)
	}
	defer rows.Close()

	var out []MissionProgress
	for rows.Next() {
		var p MissionProgress
		if err := rows.Scan(
			&p.ID, &p.MissionID, &p.UserID, &p.Progress, &p.Status, &p.ExpiresAt,
			&p.Mission.ID, &p.Mission.Title, &p.Mission.Description, &p.Mission.XPReward,
			&p.Mission.Target, &p.Mission.Frequency, &p.Mission.Category,
		); err != nil {
			return nil, fmt.Errorf("scan mission progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveProgress writes back progress, status and expiry for one row.
func (r *MissionRepository) SaveProgress(ctx context.Context, p MissionProgress) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mission_progress
		SET progress = $2, status = $3, expires_at = $4, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Progress, p.Status, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save mission progress: %w", err)
	}
	return nil
}
