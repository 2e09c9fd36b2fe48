package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/db/repository"
	ws "github.com/mtsferreira/anatomy-game/pkg/http/ws"
)

// Supported leaderboard scopes.
const (
	ScopeGlobal       = "global"
	ScopeOrganization = "organization"
	ScopeClassroom    = "classroom"
	ScopeFriends      = "friends"
)

// ErrUnknownScope is returned for scopes outside the supported set.
var ErrUnknownScope = errors.New("unknown leaderboard scope")

func isValidScope(scope string) bool {
	switch scope {
	case ScopeGlobal, ScopeOrganization, ScopeClassroom, ScopeFriends:
		return true
	default:
		return false
	}
}

// Entry is one ranked row sent to clients.
type Entry struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	XP          int     `json:"xp"`
	Streak      int     `json:"streak"`
	Rank        int     `json:"rank"`
	Avatar      *string `json:"avatar,omitempty"`
}

// Board is a generated ranking for one scope.
type Board struct {
	Scope       string    `json:"scope"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

type userStore interface {
	ListTopByXP(ctx context.Context, organizationID *uuid.UUID, limit int) ([]repository.User, error)
}

type snapshotStore interface {
	InsertSnapshot(ctx context.Context, scope string, referenceID *uuid.UUID, generatedAt time.Time, data json.RawMessage) error
	LatestSnapshot(ctx context.Context, scope string, referenceID *uuid.UUID) (repository.LeaderboardSnapshot, error)
}

// ServiceOptions configures leaderboard behavior.
type ServiceOptions struct {
	TopN          int
	CacheTTL      time.Duration
	PubSubChannel string
	KeyPrefix     string
}

// Service builds XP rankings from Postgres, caches them in Redis, and
// persists snapshots so a ranking survives cache loss.
type Service struct {
	users         userStore
	snapshots     snapshotStore
	redis         *redis.Client
	topN          int
	cacheTTL      time.Duration
	pubsubChannel string
	prefix        string
	logger        zerolog.Logger
}

// NewService constructs a leaderboard service.
func NewService(users userStore, snapshots snapshotStore, rdb *redis.Client, opts ServiceOptions, logger zerolog.Logger) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 20
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "lb"
	}

	return &Service{
		users:         users,
		snapshots:     snapshots,
		redis:         rdb,
		topN:          topN,
		cacheTTL:      ttl,
		pubsubChannel: channel,
		prefix:        prefix,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
	}
}

// Get returns the current board for a scope: Redis cache first, then the
// latest Postgres snapshot, then a fresh build.
func (s *Service) Get(ctx context.Context, scope string, referenceID *uuid.UUID) (*Board, error) {
	if !isValidScope(scope) {
		return nil, ErrUnknownScope
	}

	if board := s.readCache(ctx, scope, referenceID); board != nil {
		return board, nil
	}

	snapshot, err := s.snapshots.LatestSnapshot(ctx, scope, referenceID)
	if err == nil {
		var entries []Entry
		if err := json.Unmarshal(snapshot.Data, &entries); err == nil {
			board := &Board{Scope: scope, Entries: entries, GeneratedAt: snapshot.GeneratedAt}
			s.writeCache(ctx, scope, referenceID, board)
			return board, nil
		}
		s.logger.Warn().Err(err).Str("scope", scope).Msg("snapshot payload decode failed")
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("snapshot fetch failed")
	}

	return s.Build(ctx, scope, referenceID)
}

// Build recomputes the board from the users table, persists a snapshot,
// refreshes the cache, and announces the update over Pub/Sub.
func (s *Service) Build(ctx context.Context, scope string, referenceID *uuid.UUID) (*Board, error) {
	if !isValidScope(scope) {
		return nil, ErrUnknownScope
	}

	var orgFilter *uuid.UUID
	if scope == ScopeOrganization || scope == ScopeClassroom {
		orgFilter = referenceID
	}

	users, err := s.users.ListTopByXP(ctx, orgFilter, s.topN)
	if err != nil {
		return nil, fmt.Errorf("rank users: %w", err)
	}

	entries := make([]Entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, Entry{
			UserID:      u.ID.String(),
			DisplayName: u.DisplayName,
			XP:          u.XP,
			Streak:      u.Streak,
			Rank:        i + 1,
			Avatar:      avatarFromPreferences(u.Preferences),
		})
	}

	board := &Board{Scope: scope, Entries: entries, GeneratedAt: time.Now().UTC()}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	if err := s.snapshots.InsertSnapshot(ctx, scope, referenceID, board.GeneratedAt, data); err != nil {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("snapshot persist failed")
	}

	s.writeCache(ctx, scope, referenceID, board)
	s.updateRankIndex(ctx, scope, entries)
	s.publishUpdate(ctx, board)

	return board, nil
}

// GlobalRank reports the user's 1-based position in the global ranking
// index, if present.
func (s *Service) GlobalRank(ctx context.Context, userID uuid.UUID) (int64, bool) {
	if s.redis == nil {
		return 0, false
	}
	rank, err := s.redis.ZRevRank(ctx, s.rankKey(ScopeGlobal), userID.String()).Result()
	if err != nil {
		return 0, false
	}
	return rank + 1, true
}

func (s *Service) readCache(ctx context.Context, scope string, referenceID *uuid.UUID) *Board {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, s.cacheKey(scope, referenceID)).Result()
	if err != nil {
		return nil
	}
	var board Board
	if err := json.Unmarshal([]byte(raw), &board); err != nil {
		return nil
	}
	return &board
}

func (s *Service) writeCache(ctx context.Context, scope string, referenceID *uuid.UUID, board *Board) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(board)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, s.cacheKey(scope, referenceID), data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("cache write failed")
	}
}

func (s *Service) updateRankIndex(ctx context.Context, scope string, entries []Entry) {
	if s.redis == nil || scope != ScopeGlobal {
		return
	}
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{Score: float64(e.XP), Member: e.UserID})
	}
	if len(members) == 0 {
		return
	}
	if err := s.redis.ZAdd(ctx, s.rankKey(scope), members...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("rank index update failed")
	}
}

func (s *Service) publishUpdate(ctx context.Context, board *Board) {
	if s.redis == nil {
		return
	}
	payload := ws.LeaderboardUpdatePayload{
		Scope:       board.Scope,
		Top:         toWSEntries(board.Entries),
		GeneratedAt: board.GeneratedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
		return
	}
	if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
	}
}

func (s *Service) cacheKey(scope string, referenceID *uuid.UUID) string {
	if referenceID != nil {
		return fmt.Sprintf("%s:%s:%s", s.prefix, scope, referenceID.String())
	}
	return fmt.Sprintf("%s:%s", s.prefix, scope)
}

func (s *Service) rankKey(scope string) string {
	return fmt.Sprintf("%s:ranks:%s", s.prefix, scope)
}

func avatarFromPreferences(prefs json.RawMessage) *string {
	if len(prefs) == 0 {
		return nil
	}
	var decoded struct {
		Avatar *string `json:"avatar"`
	}
	if err := json.Unmarshal(prefs, &decoded); err != nil {
		return nil
	}
	return decoded.Avatar
}
