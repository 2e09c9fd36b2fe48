package mission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

type stubMissionStore struct {
	missions map[string]repository.Mission
	progress map[uuid.UUID]repository.MissionProgress
}

func newStubMissionStore() *stubMissionStore {
	return &stubMissionStore{
		missions: make(map[string]repository.Mission),
		progress: make(map[uuid.UUID]repository.MissionProgress),
	}
}

func (s *stubMissionStore) FindMissionByTitle(ctx context.Context, title string) (repository.Mission, error) {
	m, ok := s.missions[title]
	if !ok {
		return repository.Mission{}, repository.ErrNotFound
	}
	return m, nil
}

func (s *stubMissionStore) CreateMission(ctx context.Context, m repository.Mission) (repository.Mission, error) {
	m.ID = uuid.New()
	s.missions[m.Title] = m
	return m, nil
}

func (s *stubMissionStore) CreateProgress(ctx context.Context, userID, missionID uuid.UUID, expiresAt time.Time) error {
	for _, p := range s.progress {
		if p.UserID == userID && p.MissionID == missionID {
			return nil
		}
	}
	var mission repository.Mission
	for _, m := range s.missions {
		if m.ID == missionID {
			mission = m
		}
	}
	id := uuid.New()
	s.progress[id] = repository.MissionProgress{
		ID:        id,
		MissionID: missionID,
		UserID:    userID,
		Status:    StatusActive,
		ExpiresAt: &expiresAt,
		Mission:   mission,
	}
	return nil
}

func (s *stubMissionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.MissionProgress, error) {
	var out []repository.MissionProgress
	for _, p := range s.progress {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubMissionStore) SaveProgress(ctx context.Context, p repository.MissionProgress) error {
	s.progress[p.ID] = p
	return nil
}

type stubXP struct {
	awarded int
}

func (x *stubXP) IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error {
	x.awarded += xp
	return nil
}

func TestAssignDefaults(t *testing.T) {
	store := newStubMissionStore()
	svc := NewService(store, &stubXP{}, zerolog.Nop())

	userID := uuid.New()
	require.NoError(t, svc.AssignDefaults(context.Background(), userID))

	rows, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// Assigning twice must not duplicate.
	require.NoError(t, svc.AssignDefaults(context.Background(), userID))
	rows, _ = store.ListByUser(context.Background(), userID)
	assert.Len(t, rows, 3)
}

func TestAdvance_CompletesAndPays(t *testing.T) {
	store := newStubMissionStore()
	xp := &stubXP{}
	svc := NewService(store, xp, zerolog.Nop())

	userID := uuid.New()
	require.NoError(t, svc.AssignDefaults(context.Background(), userID))

	// Marathoner targets 3 sessions for 40 XP.
	for i := 0; i < 3; i++ {
		svc.OnSessionComplete(context.Background(), userID, 5)
	}
	assert.Equal(t, 40, xp.awarded)

	rows, _ := svc.ListActive(context.Background(), userID)
	for _, p := range rows {
		if p.Mission.Title == "Marathoner" {
			assert.Equal(t, StatusCompleted, p.Status)
			assert.Equal(t, 3, p.Progress)
		}
	}

	// Further sessions leave a completed mission untouched.
	svc.OnSessionComplete(context.Background(), userID, 5)
	assert.Equal(t, 40, xp.awarded)
}

func TestOnAttempt_AdvancesAnswerMissions(t *testing.T) {
	store := newStubMissionStore()
	svc := NewService(store, &stubXP{}, zerolog.Nop())

	userID := uuid.New()
	require.NoError(t, svc.AssignDefaults(context.Background(), userID))

	svc.OnAttempt(context.Background(), userID, true)
	svc.OnAttempt(context.Background(), userID, false)

	rows, _ := svc.ListActive(context.Background(), userID)
	byTitle := make(map[string]repository.MissionProgress)
	for _, p := range rows {
		byTitle[p.Mission.Title] = p
	}
	assert.Equal(t, 2, byTitle["Dedication"].Progress, "every answer counts")
	assert.Equal(t, 1, byTitle["Sharpshooter"].Progress, "only correct answers count")
}

func TestListActive_ResetsExpiredWindows(t *testing.T) {
	store := newStubMissionStore()
	svc := NewService(store, &stubXP{}, zerolog.Nop())

	userID := uuid.New()
	require.NoError(t, svc.AssignDefaults(context.Background(), userID))
	svc.OnSessionComplete(context.Background(), userID, 5)

	// Jump past every expiry window.
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	rows, err := svc.ListActive(context.Background(), userID)
	require.NoError(t, err)
	for _, p := range rows {
		assert.Equal(t, 0, p.Progress)
		assert.Equal(t, StatusActive, p.Status)
		require.NotNil(t, p.ExpiresAt)
		assert.True(t, p.ExpiresAt.After(time.Now().Add(7*24*time.Hour)))
	}
}
