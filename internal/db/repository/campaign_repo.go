package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CampaignRepository contains DB helpers for campaigns and lesson progress.
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository constructs a campaign repository.
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// List returns all campaigns with lessons ordered by lesson_order.
func (r *CampaignRepository) List(ctx context.Context) ([]Campaign, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, anatomy_system, recommended_level
		FROM campaigns ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.AnatomySystem, &c.RecommendedLevel); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		index[c.ID] = len(campaigns)
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	lessonRows, err := r.db.Query(ctx, `
		SELECT id, campaign_id, lesson_order, title, content_url, duration_minutes, xp_reward
		FROM campaign_lessons ORDER BY campaign_id, lesson_order`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		var l CampaignLesson
		if err := lessonRows.Scan(&l.ID, &l.CampaignID, &l.Order, &l.Title, &l.ContentURL, &l.DurationMinutes, &l.XPReward); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		if i, ok := index[l.CampaignID]; ok {
			campaigns[i].Lessons = append(campaigns[i].Lessons, l)
		}
	}
	return campaigns, lessonRows.Err()
}

// GetLesson fetches one lesson row.
func (r *CampaignRepository) GetLesson(ctx context.Context, lessonID uuid.UUID) (CampaignLesson, error) {
	query := `
		SELECT id, campaign_id, lesson_order, title, content_url, duration_minutes, xp_reward
		FROM campaign_lessons WHERE id = $1`

	var l CampaignLesson
	err := r.db.QueryRow(ctx, query, lessonID).Scan(
		&l.ID, &l.CampaignID, &l.Order, &l.Title, &l.ContentURL, &l.DurationMinutes, &l.XPReward)
	if errors.Is(err, pgx.ErrNoRows) {
		return CampaignLesson{}, ErrNotFound
	}
	if err != nil {
		return CampaignLesson{}, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

// UpsertLessonProgress stores the new status and returns the previous one so
// callers can award lesson XP exactly once.
func (r *CampaignRepository) UpsertLessonProgress(ctx context.Context, userID, lessonID uuid.UUID, status string, score *float64) (previousStatus string, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT status FROM campaign_progress WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID).Scan(&previousStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		previousStatus = "not_started"
	} else if err != nil {
		return "", fmt.Errorf("read lesson progress: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO campaign_progress (user_id, lesson_id, status, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET status = EXCLUDED.status, score = EXCLUDED.score, updated_at = now()`,
		userID, lessonID, status, score)
	if err != nil {
		return "", fmt.Errorf("upsert lesson progress: %w", err)
	}
	return previousStatus, nil
}
