package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

// Service-level failures handlers translate into HTTP responses.
var (
	ErrInvalidMode      = errors.New("invalid quiz mode")
	ErrNoQuestions      = errors.New("no questions available")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session already completed")
	ErrInvalidOption    = errors.New("option does not belong to question")
)

const xpPerCorrectAnswer = 10

// systemProgressDelta is the completion bump applied per correct answer
// when the session is scoped to one anatomy system.
const systemProgressDelta = 0.05

type quizStore interface {
	CreateSession(ctx context.Context, userID uuid.UUID, mode string, system *string) (repository.QuizSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (repository.QuizSession, error)
	RandomQuestions(ctx context.Context, system, difficulty *string, limit int) ([]repository.QuizQuestion, error)
	GetOption(ctx context.Context, optionID, questionID uuid.UUID) (repository.QuizOption, error)
	InsertAttempt(ctx context.Context, sessionID, questionID, optionID uuid.UUID, isCorrect bool) (repository.QuizAttempt, error)
	CompleteSession(ctx context.Context, sessionID uuid.UUID, durationSeconds int) (repository.QuizSession, error)
}

type progressStore interface {
	BumpCompletion(ctx context.Context, userID uuid.UUID, system string, delta float64) error
}

type xpStore interface {
	IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error
}

// Rewarder receives quiz events so missions can advance alongside play.
type Rewarder interface {
	OnAttempt(ctx context.Context, userID uuid.UUID, correct bool)
	OnSessionComplete(ctx context.Context, userID uuid.UUID, score int)
}

// Options configures the quiz service.
type Options struct {
	DefaultQuestionLimit int
	MaxQuestionLimit     int
	Rewarder             Rewarder
}

// Service runs quiz sessions: question selection, attempt grading,
// and completion rewards.
type Service struct {
	store    quizStore
	progress progressStore
	xp       xpStore
	opts     Options
	logger   zerolog.Logger
}

// NewService creates a quiz service.
func NewService(store quizStore, progress progressStore, xp xpStore, opts Options, logger zerolog.Logger) *Service {
	if opts.DefaultQuestionLimit <= 0 {
		opts.DefaultQuestionLimit = 10
	}
	if opts.MaxQuestionLimit <= 0 {
		opts.MaxQuestionLimit = 50
	}
	return &Service{
		store:    store,
		progress: progress,
		xp:       xp,
		opts:     opts,
		logger:   logger.With().Str("component", "quiz").Logger(),
	}
}

// CreateSession selects questions and opens a new session. The question
// list is fixed at creation time.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, req CreateSessionRequest) (*Session, error) {
	if !ValidModes[req.Mode] {
		return nil, ErrInvalidMode
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultQuestionLimit
	}
	if limit > s.opts.MaxQuestionLimit {
		limit = s.opts.MaxQuestionLimit
	}

	questions, err := s.store.RandomQuestions(ctx, req.System, req.Difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	dbSession, err := s.store.CreateSession(ctx, userID, req.Mode, req.System)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sessionsCreated.WithLabelValues(req.Mode).Inc()
	s.logger.Info().
		Str("session_id", dbSession.ID.String()).
		Str("user_id", userID.String()).
		Str("mode", req.Mode).
		Int("questions", len(questions)).
		Msg("quiz session created")

	session := toSession(dbSession)
	session.Questions = toQuestions(questions)
	return &session, nil
}

// SubmitAttempt grades one answer. Correctness is decided here, never by
// the client. A correct answer bumps the session score and, for
// system-scoped sessions, the user's system progress.
func (s *Service) SubmitAttempt(ctx context.Context, userID, sessionID uuid.UUID, req SubmitAttemptRequest) (*AttemptResult, error) {
	dbSession, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if dbSession.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if dbSession.Completed {
		return nil, ErrSessionCompleted
	}

	option, err := s.store.GetOption(ctx, req.OptionID, req.QuestionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOption
		}
		return nil, fmt.Errorf("get option: %w", err)
	}

	attempt, err := s.store.InsertAttempt(ctx, sessionID, req.QuestionID, req.OptionID, option.IsCorrect)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	result := "incorrect"
	if option.IsCorrect {
		result = "correct"
		if dbSession.System != nil && s.progress != nil {
			if err := s.progress.BumpCompletion(ctx, userID, *dbSession.System, systemProgressDelta); err != nil {
				s.logger.Warn().Err(err).Str("system", *dbSession.System).Msg("progress bump failed")
			}
		}
	}
	attemptsSubmitted.WithLabelValues(result).Inc()

	if s.opts.Rewarder != nil {
		s.opts.Rewarder.OnAttempt(ctx, userID, option.IsCorrect)
	}

	return &AttemptResult{
		ID:               attempt.ID,
		SessionID:        attempt.SessionID,
		QuestionID:       attempt.QuestionID,
		SelectedOptionID: attempt.SelectedOptionID,
		IsCorrect:        attempt.IsCorrect,
	}, nil
}

// CompleteSession finalizes a session. Completion is idempotent: the
// recorded duration and XP award stick to the first call.
func (s *Service) CompleteSession(ctx context.Context, userID, sessionID uuid.UUID, durationSeconds int) (*Session, error) {
	dbSession, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if dbSession.UserID != userID {
		return nil, ErrSessionNotFound
	}

	alreadyCompleted := dbSession.Completed

	dbSession, err = s.store.CompleteSession(ctx, sessionID, durationSeconds)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	if !alreadyCompleted {
		sessionsCompleted.Inc()
		if s.xp != nil && dbSession.Score > 0 {
			if err := s.xp.IncrementXP(ctx, userID, dbSession.Score*xpPerCorrectAnswer); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("xp award failed")
			}
		}
		if s.opts.Rewarder != nil {
			s.opts.Rewarder.OnSessionComplete(ctx, userID, dbSession.Score)
		}
		s.logger.Info().
			Str("session_id", sessionID.String()).
			Int("score", dbSession.Score).
			Int("duration_seconds", dbSession.DurationSeconds).
			Msg("quiz session completed")
	}

	session := toSession(dbSession)
	return &session, nil
}

func toSession(row repository.QuizSession) Session {
	return Session{
		ID:              row.ID,
		Mode:            row.Mode,
		System:          row.System,
		Score:           row.Score,
		DurationSeconds: row.DurationSeconds,
		Completed:       row.Completed,
	}
}

func toQuestions(rows []repository.QuizQuestion) []Question {
	questions := make([]Question, 0, len(rows))
	for _, q := range rows {
		options := make([]Option, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, Option{ID: o.ID, Label: o.Label})
		}
		questions = append(questions, Question{
			ID:         q.ID,
			Prompt:     q.Prompt,
			System:     q.AnatomySystem,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			MediaURL:   q.MediaURL,
			Options:    options,
		})
	}
	return questions
}
