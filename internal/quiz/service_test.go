package quiz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

type stubQuizStore struct {
	sessions  map[uuid.UUID]repository.QuizSession
	questions []repository.QuizQuestion
	options   map[uuid.UUID]repository.QuizOption
	attempts  []repository.QuizAttempt
}

func newStubQuizStore() *stubQuizStore {
	return &stubQuizStore{
		sessions: make(map[uuid.UUID]repository.QuizSession),
		options:  make(map[uuid.UUID]repository.QuizOption),
	}
}

func (s *stubQuizStore) addQuestion(correctLabel string, wrongLabels ...string) repository.QuizQuestion {
	q := repository.QuizQuestion{
		ID:            uuid.New(),
		Prompt:        "identify the structure",
		AnatomySystem: "skeletal",
		Type:          "multiple_choice",
		Difficulty:    "easy",
	}
	correct := repository.QuizOption{ID: uuid.New(), QuestionID: q.ID, Label: correctLabel, IsCorrect: true}
	q.Options = append(q.Options, correct)
	s.options[correct.ID] = correct
	for _, label := range wrongLabels {
		o := repository.QuizOption{ID: uuid.New(), QuestionID: q.ID, Label: label}
		q.Options = append(q.Options, o)
		s.options[o.ID] = o
	}
	s.questions = append(s.questions, q)
	return q
}

func (s *stubQuizStore) CreateSession(ctx context.Context, userID uuid.UUID, mode string, system *string) (repository.QuizSession, error) {
	session := repository.QuizSession{ID: uuid.New(), UserID: userID, Mode: mode, System: system}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *stubQuizStore) GetSession(ctx context.Context, sessionID uuid.UUID) (repository.QuizSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return repository.QuizSession{}, repository.ErrNotFound
	}
	return session, nil
}

func (s *stubQuizStore) RandomQuestions(ctx context.Context, system, difficulty *string, limit int) ([]repository.QuizQuestion, error) {
	if limit > len(s.questions) {
		limit = len(s.questions)
	}
	return s.questions[:limit], nil
}

func (s *stubQuizStore) GetOption(ctx context.Context, optionID, questionID uuid.UUID) (repository.QuizOption, error) {
	o, ok := s.options[optionID]
	if !ok || o.QuestionID != questionID {
		return repository.QuizOption{}, repository.ErrNotFound
	}
	return o, nil
}

func (s *stubQuizStore) InsertAttempt(ctx context.Context, sessionID, questionID, optionID uuid.UUID, isCorrect bool) (repository.QuizAttempt, error) {
	attempt := repository.QuizAttempt{
		ID:               uuid.New(),
		SessionID:        sessionID,
		QuestionID:       questionID,
		SelectedOptionID: &optionID,
		IsCorrect:        isCorrect,
	}
	s.attempts = append(s.attempts, attempt)
	if isCorrect {
		session := s.sessions[sessionID]
		session.Score++
		s.sessions[sessionID] = session
	}
	return attempt, nil
}

func (s *stubQuizStore) CompleteSession(ctx context.Context, sessionID uuid.UUID, durationSeconds int) (repository.QuizSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return repository.QuizSession{}, repository.ErrNotFound
	}
	if !session.Completed {
		session.DurationSeconds = durationSeconds
		session.Completed = true
		s.sessions[sessionID] = session
	}
	return session, nil
}

type stubProgress struct {
	bumps map[string]float64
}

func (p *stubProgress) BumpCompletion(ctx context.Context, userID uuid.UUID, system string, delta float64) error {
	if p.bumps == nil {
		p.bumps = make(map[string]float64)
	}
	p.bumps[system] += delta
	return nil
}

type stubXP struct {
	awarded int
}

func (x *stubXP) IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error {
	x.awarded += xp
	return nil
}

func newTestQuizService(store *stubQuizStore, progress *stubProgress, xp *stubXP) *Service {
	return NewService(store, progress, xp, Options{}, zerolog.Nop())
}

func TestCreateSession(t *testing.T) {
	store := newStubQuizStore()
	for i := 0; i < 3; i++ {
		store.addQuestion("femur", "tibia", "ulna")
	}
	svc := newTestQuizService(store, &stubProgress{}, &stubXP{})

	session, err := svc.CreateSession(context.Background(), uuid.New(), CreateSessionRequest{Mode: ModeSprint})
	require.NoError(t, err)
	assert.Equal(t, ModeSprint, session.Mode)
	assert.False(t, session.Completed)
	assert.Len(t, session.Questions, 3)

	for _, q := range session.Questions {
		assert.Len(t, q.Options, 3)
	}
}

func TestCreateSession_InvalidMode(t *testing.T) {
	store := newStubQuizStore()
	store.addQuestion("femur", "tibia")
	svc := newTestQuizService(store, &stubProgress{}, &stubXP{})

	_, err := svc.CreateSession(context.Background(), uuid.New(), CreateSessionRequest{Mode: "speedrun"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCreateSession_NoQuestions(t *testing.T) {
	svc := newTestQuizService(newStubQuizStore(), &stubProgress{}, &stubXP{})

	_, err := svc.CreateSession(context.Background(), uuid.New(), CreateSessionRequest{Mode: ModeSprint})
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestSubmitAttempt_CorrectnessDecidedServerSide(t *testing.T) {
	store := newStubQuizStore()
	q := store.addQuestion("femur", "tibia")
	svc := newTestQuizService(store, &stubProgress{}, &stubXP{})

	userID := uuid.New()
	session, err := svc.CreateSession(context.Background(), userID, CreateSessionRequest{Mode: ModeSprint})
	require.NoError(t, err)

	var correctID, wrongID uuid.UUID
	for id, o := range store.options {
		if o.IsCorrect {
			correctID = id
		} else {
			wrongID = id
		}
	}

	result, err := svc.SubmitAttempt(context.Background(), userID, session.ID, SubmitAttemptRequest{
		QuestionID: q.ID,
		OptionID:   wrongID,
	})
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)

	result, err = svc.SubmitAttempt(context.Background(), userID, session.ID, SubmitAttemptRequest{
		QuestionID: q.ID,
		OptionID:   correctID,
	})
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 1, store.sessions[session.ID].Score)
}

func TestSubmitAttempt_WrongQuestionOptionPair(t *testing.T) {
	store := newStubQuizStore()
	q1 := store.addQuestion("femur", "tibia")
	q2 := store.addQuestion("radius", "ulna")
	svc := newTestQuizService(store, &stubProgress{}, &stubXP{})

	userID := uuid.New()
	session, err := svc.CreateSession(context.Background(), userID, CreateSessionRequest{Mode: ModeSprint})
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(context.Background(), userID, session.ID, SubmitAttemptRequest{
		QuestionID: q1.ID,
		OptionID:   q2.Options[0].ID,
	})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestSubmitAttempt_OtherUsersSessionHidden(t *testing.T) {
	store := newStubQuizStore()
	q := store.addQuestion("femur", "tibia")
	svc := newTestQuizService(store, &stubProgress{}, &stubXP{})

	owner := uuid.New()
	session, err := svc.CreateSession(context.Background(), owner, CreateSessionRequest{Mode: ModeSprint})
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(context.Background(), uuid.New(), session.ID, SubmitAttemptRequest{
		QuestionID: q.ID,
		OptionID:   q.Options[0].ID,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitAttempt_BumpsSystemProgress(t *testing.T) {
	store := newStubQuizStore()
	q := store.addQuestion("femur", "tibia")
	progress := &stubProgress{}
	svc := newTestQuizService(store, progress, &stubXP{})

	userID := uuid.New()
	system := "skeletal"
	session, err := svc.CreateSession(context.Background(), userID, CreateSessionRequest{Mode: ModeSprint, System: &system})
	require.NoError(t, err)

	var correctID uuid.UUID
	for id, o := range store.options {
		if o.IsCorrect {
			correctID = id
		}
	}

	_, err = svc.SubmitAttempt(context.Background(), userID, session.ID, SubmitAttemptRequest{
		QuestionID: q.ID,
		OptionID:   correctID,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, progress.bumps["skeletal"], 1e-9)
}

func TestCompleteSession_IdempotentXPAward(t *testing.T) {
	store := newStubQuizStore()
	q := store.addQuestion("femur", "tibia")
	xp := &stubXP{}
	svc := newTestQuizService(store, &stubProgress{}, xp)

	userID := uuid.New()
	session, err := svc.CreateSession(context.Background(), userID, CreateSessionRequest{Mode: ModeSprint})
	require.NoError(t, err)

	var correctID uuid.UUID
	for id, o := range store.options {
		if o.IsCorrect {
			correctID = id
		}
	}
	_, err = svc.SubmitAttempt(context.Background(), userID, session.ID, SubmitAttemptRequest{
		QuestionID: q.ID,
		OptionID:   correctID,
	})
	require.NoError(t, err)

	done, err := svc.CompleteSession(context.Background(), userID, session.ID, 45)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, 45, done.DurationSeconds)
	assert.Equal(t, 10, xp.awarded)

	// A second completion keeps the original duration and awards nothing.
	done, err = svc.CompleteSession(context.Background(), userID, session.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 45, done.DurationSeconds)
	assert.Equal(t, 10, xp.awarded)
}

func TestCompleteSession_RejectsSubsequentAttempts(t *testing.T) {
	store := newStubQuizStore()
	q := store.addQuestion("femur", "tibia")
	svc := newTestQuizService(store, &stubProgress{}, &stubXP{})

	userID := uuid.New()
	session, err := svc.CreateSession(context.Background(), userID, CreateSessionRequest{Mode: ModeSprint})
	require.NoError(t, err)

	_, err = svc.CompleteSession(context.Background(), userID, session.ID, 30)
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(context.Background(), userID, session.ID, SubmitAttemptRequest{
		QuestionID: q.ID,
		OptionID:   q.Options[0].ID,
	})
	assert.ErrorIs(t, err, ErrSessionCompleted)
}
