package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository contains DB helpers for sessions, questions and attempts.
type QuizRepository struct {
	db *pgxpool.Pool
}

// NewQuizRepository constructs a quiz repository.
func NewQuizRepository(db *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{db: db}
}

// CreateSession persists a new quiz session row.
func (r *QuizRepository) CreateSession(ctx context.Context, userID uuid.UUID, mode string, system *string) (QuizSession, error) {
	query := `
		INSERT INTO quiz_sessions (user_id, mode, system)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, mode, system, score, duration_seconds, completed, created_at`

	var s QuizSession
	err := r.db.QueryRow(ctx, query, userID, mode, system).Scan(
		&s.ID, &s.UserID, &s.Mode, &s.System, &s.Score, &s.DurationSeconds, &s.Completed, &s.CreatedAt)
	if err != nil {
		return QuizSession{}, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// GetSession fetches a session by ID.
func (r *QuizRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (QuizSession, error) {
	query := `
		SELECT id, user_id, mode, system, score, duration_seconds, completed, created_at
		FROM quiz_sessions WHERE id = $1`

	var s QuizSession
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&s.ID, &s.UserID, &s.Mode, &s.System, &s.Score, &s.DurationSeconds, &s.Completed, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuizSession{}, ErrNotFound
	}
	if err != nil {
		return QuizSession{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// RandomQuestions selects up to limit questions matching the optional system
// and difficulty filters, with their options attached.
func (r *QuizRepository) RandomQuestions(ctx context.Context, system, difficulty *string, limit int) ([]QuizQuestion, error) {
	query := `
		SELECT id, prompt, anatomy_system, type, difficulty, media_url
		FROM quiz_questions
		WHERE ($1::text IS NULL OR anatomy_system = $1)
		  AND ($2::text IS NULL OR difficulty = $2)
		ORDER BY random()
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, system, difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	var questions []QuizQuestion
	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var q QuizQuestion
		if err := rows.Scan(&q.ID, &q.Prompt, &q.AnatomySystem, &q.Type, &q.Difficulty, &q.MediaURL); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	options, err := r.optionsForQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Options = options[questions[i].ID]
	}
	return questions, nil
}

func (r *QuizRepository) optionsForQuestions(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]QuizOption, error) {
	query := `
		SELECT id, question_id, label, is_correct
		FROM quiz_options
		WHERE question_id = ANY($1)
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("select options: %w", err)
	}
	defer rows.Close()

	byQuestion := make(map[uuid.UUID][]QuizOption, len(questionIDs))
	for rows.Next() {
		var o QuizOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	return byQuestion, rows.Err()
}

// GetOption fetches an option only when it belongs to the given question.
func (r *QuizRepository) GetOption(ctx context.Context, optionID, questionID uuid.UUID) (QuizOption, error) {
	query := `SELECT id, question_id, label, is_correct FROM quiz_options WHERE id = $1 AND question_id = $2`

	var o QuizOption
	err := r.db.QueryRow(ctx, query, optionID, questionID).Scan(&o.ID, &o.QuestionID, &o.Label, &o.IsCorrect)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuizOption{}, ErrNotFound
	}
	if err != nil {
		return QuizOption{}, fmt.Errorf("get option: %w", err)
	}
	return o, nil
}

// InsertAttempt records an answer and bumps the session score when correct,
// in one transaction so the score never drifts from the attempt log.
func (r *QuizRepository) InsertAttempt(ctx context.Context, sessionID, questionID, optionID uuid.UUID, isCorrect bool) (QuizAttempt, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return QuizAttempt{}, fmt.Errorf("begin attempt tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var a QuizAttempt
	err = tx.QueryRow(ctx, `
		INSERT INTO quiz_attempts (session_id, question_id, selected_option_id, is_correct)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, question_id, selected_option_id, is_correct`,
		sessionID, questionID, optionID, isCorrect,
	).Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOptionID, &a.IsCorrect)
	if err != nil {
		return QuizAttempt{}, fmt.Errorf("insert attempt: %w", err)
	}

	if isCorrect {
		if _, err := tx.Exec(ctx,
			`UPDATE quiz_sessions SET score = score + 1, updated_at = now() WHERE id = $1`, sessionID); err != nil {
			return QuizAttempt{}, fmt.Errorf("increment score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return QuizAttempt{}, fmt.Errorf("commit attempt tx: %w", err)
	}
	return a, nil
}

// CompleteSession marks the session finished and stores the duration. The
// completed flag is monotonic: a finished session is never reopened.
func (r *QuizRepository) CompleteSession(ctx context.Context, sessionID uuid.UUID, durationSeconds int) (QuizSession, error) {
	query := `
		UPDATE quiz_sessions
		SET completed = TRUE,
		    duration_seconds = CASE WHEN completed THEN duration_seconds ELSE $2 END,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, user_id, mode, system, score, duration_seconds, completed, created_at`

	var s QuizSession
	err := r.db.QueryRow(ctx, query, sessionID, durationSeconds).Scan(
		&s.ID, &s.UserID, &s.Mode, &s.System, &s.Score, &s.DurationSeconds, &s.Completed, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuizSession{}, ErrNotFound
	}
	if err != nil {
		return QuizSession{}, fmt.Errorf("complete session: %w", err)
	}
	return s, nil
}
