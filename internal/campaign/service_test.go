package campaign

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

type stubCampaignStore struct {
	lessons  map[uuid.UUID]repository.CampaignLesson
	progress map[uuid.UUID]string
}

func newStubCampaignStore() *stubCampaignStore {
	return &stubCampaignStore{
		lessons:  make(map[uuid.UUID]repository.CampaignLesson),
		progress: make(map[uuid.UUID]string),
	}
}

func (s *stubCampaignStore) List(ctx context.Context) ([]repository.Campaign, error) {
	return nil, nil
}

func (s *stubCampaignStore) GetLesson(ctx context.Context, lessonID uuid.UUID) (repository.CampaignLesson, error) {
	l, ok := s.lessons[lessonID]
	if !ok {
		return repository.CampaignLesson{}, repository.ErrNotFound
	}
	return l, nil
}

func (s *stubCampaignStore) UpsertLessonProgress(ctx context.Context, userID, lessonID uuid.UUID, status string, score *float64) (string, error) {
	previous, ok := s.progress[lessonID]
	if !ok {
		previous = StatusNotStarted
	}
	s.progress[lessonID] = status
	return previous, nil
}

type stubXP struct {
	awarded int
}

func (x *stubXP) IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error {
	x.awarded += xp
	return nil
}

func TestRecordLessonProgress_AwardsXPOnce(t *testing.T) {
	store := newStubCampaignStore()
	lesson := repository.CampaignLesson{ID: uuid.New(), Title: "The Axial Skeleton", XPReward: 50}
	store.lessons[lesson.ID] = lesson
	xp := &stubXP{}
	svc := NewService(store, xp, zerolog.Nop())

	userID := uuid.New()

	result, err := svc.RecordLessonProgress(context.Background(), userID, lesson.ID, StatusInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.XPAwarded)
	assert.Equal(t, 0, xp.awarded)

	result, err = svc.RecordLessonProgress(context.Background(), userID, lesson.ID, StatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, result.XPAwarded)
	assert.Equal(t, 50, xp.awarded)

	// Re-completing the same lesson grants nothing.
	result, err = svc.RecordLessonProgress(context.Background(), userID, lesson.ID, StatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.XPAwarded)
	assert.Equal(t, 50, xp.awarded)
}

func TestRecordLessonProgress_UnknownLesson(t *testing.T) {
	svc := NewService(newStubCampaignStore(), &stubXP{}, zerolog.Nop())

	_, err := svc.RecordLessonProgress(context.Background(), uuid.New(), uuid.New(), StatusCompleted, nil)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestRecordLessonProgress_InvalidStatus(t *testing.T) {
	svc := NewService(newStubCampaignStore(), &stubXP{}, zerolog.Nop())

	_, err := svc.RecordLessonProgress(context.Background(), uuid.New(), uuid.New(), "done", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
