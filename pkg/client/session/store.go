// Package session owns the client-side quiz session lifecycle: starting a
// session, submitting answers in strict question order, advancing with a
// feedback delay, and finishing exactly once. At most one session is cached
// per mode slot so that leaving the quiz screen and coming back resumes the
// in-flight run.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/pkg/client"
)

// Terminal failures surfaced to the screen layer.
var (
	ErrSessionCreation   = errors.New("session creation failed")
	ErrAttemptSubmission = errors.New("attempt submission failed")
)

// State of the current run.
type State int

const (
	StateNotStarted State = iota
	StateLoading
	StateInProgress
	StateFinished
)

const (
	defaultAdvanceDelay = 800 * time.Millisecond
	defaultSprintTicks  = 60
	defaultTickInterval = time.Second
)

// api is the slice of the REST client the store depends on. The bearer token
// is always an explicit input.
type api interface {
	CreateQuizSession(ctx context.Context, token string, req client.CreateSessionRequest) (*client.Session, error)
	SubmitAttempt(ctx context.Context, token string, sessionID, questionID, optionID uuid.UUID) (*client.AttemptResult, error)
	CompleteQuizSession(ctx context.Context, token string, sessionID uuid.UUID, durationSeconds int) (*client.Session, error)
}

// Options tunes timing behavior. Zero values take the defaults; tests shrink
// the delays.
type Options struct {
	AdvanceDelay time.Duration
	SprintTicks  int
	TickInterval time.Duration
}

// cacheEntry is the cross-visit snapshot of one mode's session.
type cacheEntry struct {
	session   *client.Session
	index     int
	score     int
	startedAt time.Time
}

// Store drives one quiz run at a time and caches at most one session per
// mode slot. All methods are safe for concurrent use; rapid double calls
// from the UI cannot double-submit or double-count.
type Store struct {
	api    api
	opts   Options
	logger zerolog.Logger

	mu           sync.Mutex
	run          uint64
	state        State
	session      *client.Session
	index        int
	score        int
	pending      bool
	dismissed    bool
	token        string
	startedAt    time.Time
	ticksLeft    int
	stopTicker   chan struct{}
	advanceTimer *time.Timer

	cachedMode string
	cached     *cacheEntry
}

// NewStore creates an idle store over the given API.
func NewStore(apiClient api, opts Options, logger zerolog.Logger) *Store {
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = defaultAdvanceDelay
	}
	if opts.SprintTicks <= 0 {
		opts.SprintTicks = defaultSprintTicks
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	return &Store{
		api:    apiClient,
		opts:   opts,
		logger: logger.With().Str("component", "session_store").Logger(),
	}
}

// Start begins (or resumes) a session for the given mode. A cached,
// uncompleted session of the same mode is reused without a network call;
// starting a different mode discards the previous cache slot. Failures wrap
// ErrSessionCreation and are terminal for the screen.
func (s *Store) Start(ctx context.Context, token, mode string, limit int) (*client.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: not authenticated", ErrSessionCreation)
	}

	s.mu.Lock()
	s.dismissed = false
	s.token = token

	if s.cached != nil && s.cachedMode == mode && !s.cached.session.Completed {
		entry := s.cached
		s.session = entry.session
		s.index = entry.index
		s.score = entry.score
		s.startedAt = entry.startedAt
		s.pending = false
		s.state = StateInProgress
		if mode == client.ModeSprint && s.stopTicker == nil {
			s.startCountdownLocked()
		}
		s.mu.Unlock()
		return entry.session, nil
	}

	// Abandoning any previous run: its countdown and scheduled advance must
	// not outlive it and fire against the new session.
	s.stopCountdownLocked()
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	s.ticksLeft = 0

	s.state = StateLoading
	s.mu.Unlock()

	created, err := s.api.CreateQuizSession(ctx, token, client.CreateSessionRequest{Mode: mode, Limit: limit})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dismissed {
		// The screen went away mid-flight; drop the result.
		s.state = StateNotStarted
		return nil, nil
	}
	if err != nil {
		s.state = StateNotStarted
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	s.run++
	s.session = created
	s.index = 0
	s.score = 0
	s.pending = false
	s.startedAt = time.Now()
	s.state = StateInProgress
	s.cachedMode = mode
	s.cached = &cacheEntry{session: created, startedAt: s.startedAt}
	if mode == client.ModeSprint {
		s.ticksLeft = s.opts.SprintTicks
		s.startCountdownLocked()
	}
	return created, nil
}

// Answer submits the chosen option for the current question. It is a guarded
// no-op when no question is current or an answer is already pending. On
// success the score grows for a correct verdict and advancement is scheduled
// after the feedback delay. On failure the pending flag is cleared so the
// same question can be answered again; nothing else changes.
func (s *Store) Answer(ctx context.Context, token string, optionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	if s.state != StateInProgress || s.pending || s.session == nil || s.index >= len(s.session.Questions) {
		s.mu.Unlock()
		return false, nil
	}
	s.pending = true
	run := s.run
	sessionID := s.session.ID
	questionID := s.session.Questions[s.index].ID
	s.mu.Unlock()

	result, err := s.api.SubmitAttempt(ctx, token, sessionID, questionID, optionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run {
		// A different run started while this attempt was in flight.
		return false, nil
	}
	if s.dismissed || s.state != StateInProgress {
		s.pending = false
		return false, nil
	}
	if err != nil {
		s.pending = false
		return false, fmt.Errorf("%w: %v", ErrAttemptSubmission, err)
	}

	if result.IsCorrect {
		s.score++
		if s.cached != nil {
			s.cached.score = s.score
		}
	}

	// The pending flag stays set until the scheduled advance fires, which
	// keeps the answered question locked while feedback is shown.
	s.advanceTimer = time.AfterFunc(s.opts.AdvanceDelay, func() { s.advanceRun(run) })
	return result.IsCorrect, nil
}

// Advance moves to the next question, or finishes when the last question has
// been answered. Idempotent once the run is finished.
func (s *Store) Advance() {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	s.advanceRun(run)
}

// advanceRun applies an advance only if the run it was scheduled for is
// still the active one; a stale timer firing after a mode switch is a no-op.
func (s *Store) advanceRun(run uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run != s.run || s.state != StateInProgress || s.session == nil {
		return
	}
	s.pending = false
	if s.index < len(s.session.Questions)-1 {
		s.index++
		if s.cached != nil {
			s.cached.index = s.index
		}
		return
	}
	s.finishLocked(s.elapsedSecondsLocked())
}

// Finish marks the run complete with the given elapsed duration. The first
// call wins; repeated calls are no-ops and never send a second completion
// request.
func (s *Store) Finish(durationSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(durationSeconds)
}

// Dismiss implements screen-unmount semantics: in-flight results are
// discarded, the countdown and any scheduled advance are torn down, and no
// further state commits happen until the next Start. The cached session
// survives so the run can be resumed.
func (s *Store) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = true
	s.stopCountdownLocked()
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	if s.state == StateInProgress && s.cached != nil {
		s.cached.index = s.index
		s.cached.score = s.score
	}
	if s.state == StateLoading {
		s.state = StateNotStarted
	}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the locally accumulated score. It never decreases within a
// run.
func (s *Store) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// QuestionIndex returns the zero-based index of the current question.
func (s *Store) QuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentQuestion returns the question awaiting an answer, or nil.
func (s *Store) CurrentQuestion() *client.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.session == nil || s.index >= len(s.session.Questions) {
		return nil
	}
	q := s.session.Questions[s.index]
	return &q
}

// TicksLeft returns the remaining sprint countdown ticks, zero for untimed
// modes.
func (s *Store) TicksLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticksLeft
}

// Session returns the active session, nil before the first successful Start.
func (s *Store) Session() *client.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) elapsedSecondsLocked() int {
	if s.startedAt.IsZero() {
		return 0
	}
	elapsed := int(time.Since(s.startedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// finishLocked performs the single local completion transition and fires the
// best-effort server completion. Callers hold s.mu.
func (s *Store) finishLocked(durationSeconds int) {
	if s.state == StateFinished || s.session == nil {
		return
	}
	s.state = StateFinished
	s.pending = false
	s.session.Completed = true
	s.session.Score = s.score
	s.session.DurationSeconds = durationSeconds
	s.stopCountdownLocked()
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	if s.cached != nil {
		s.cached.index = s.index
		s.cached.score = s.score
	}

	// Completion persistence never blocks the result screen; the server is
	// the durability authority and a failure here is log-only.
	sessionID := s.session.ID
	token := s.token
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.api.CompleteQuizSession(ctx, token, sessionID, durationSeconds); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to persist session completion")
		}
	}()
}

// startCountdownLocked arms the sprint countdown. It decrements once per
// tick interval while in progress and forces a single finish at zero.
// Callers hold s.mu.
func (s *Store) startCountdownLocked() {
	if s.ticksLeft <= 0 {
		s.ticksLeft = s.opts.SprintTicks
	}
	stop := make(chan struct{})
	s.stopTicker = stop

	go func() {
		ticker := time.NewTicker(s.opts.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				// The countdown may have been torn down while this tick
				// waited on the lock; stop is closed under the same lock.
				select {
				case <-stop:
					s.mu.Unlock()
					return
				default:
				}
				if s.state != StateInProgress {
					s.mu.Unlock()
					return
				}
				s.ticksLeft--
				if s.ticksLeft <= 0 {
					s.ticksLeft = 0
					s.finishLocked(s.elapsedSecondsLocked())
					s.mu.Unlock()
					return
				}
				s.mu.Unlock()
			}
		}
	}()
}

// stopCountdownLocked tears down a running countdown. Callers hold s.mu.
func (s *Store) stopCountdownLocked() {
	if s.stopTicker != nil {
		close(s.stopTicker)
		s.stopTicker = nil
	}
}
