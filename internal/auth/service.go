package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth/jwt"
	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

// Common auth failures. Login never reveals which part of the credential
// pair was wrong.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

type userStore interface {
	Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	UpdateLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// Provisioner seeds per-user state (system progress, default missions) after
// a successful registration.
type Provisioner interface {
	ProvisionNewUser(ctx context.Context, userID uuid.UUID) error
}

// Service handles authentication and account creation.
type Service struct {
	users       userStore
	tokenMgr    *jwt.Manager
	redis       *redis.Client
	emailSvc    *EmailService
	provisioner Provisioner
	logger      zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	Redis       *redis.Client
	EmailSvc    *EmailService
	Provisioner Provisioner
}

// NewService creates an authentication service.
func NewService(users userStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:       users,
		tokenMgr:    jwt.NewManager(opts.TokenConfig),
		redis:       opts.Redis,
		emailSvc:    opts.EmailSvc,
		provisioner: opts.Provisioner,
		logger:      logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new account and seeds its initial progress and missions.
// It does not log the user in; clients follow up with Login.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("email required")
	}
	role, ok := defaultRoleForProfile[req.ProfileType]
	if !ok {
		return nil, fmt.Errorf("unknown profile type %q", req.ProfileType)
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	dbUser, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:          &req.Email,
		HashedPassword: &hash,
		DisplayName:    req.DisplayName,
		Role:           role,
		ProfileType:    req.ProfileType,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.provisioner != nil {
		if err := s.provisioner.ProvisionNewUser(ctx, dbUser.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", dbUser.ID.String()).Msg("provision new user failed")
		}
	}

	user := toUser(dbUser)
	s.logger.Info().Str("user_id", user.ID.String()).Str("email", req.Email).Msg("user registered")
	return &user, nil
}

// Login authenticates a user and returns a fresh token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	dbUser, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if dbUser.HashedPassword == nil {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(*dbUser.HashedPassword, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	_ = s.users.UpdateLogin(ctx, dbUser.ID)

	tokens, err := s.generateTokenPair(dbUser)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	s.logger.Info().Str("user_id", dbUser.ID.String()).Msg("user logged in")
	return tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	dbUser, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return s.generateTokenPair(dbUser)
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

// RequestPasswordReset generates a single-use reset token and mails it.
// It never reveals whether the email exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.redis == nil || s.emailSvc == nil {
		return fmt.Errorf("password reset not configured")
	}

	dbUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	payload, _ := json.Marshal(map[string]string{
		"user_id": dbUser.ID.String(),
		"email":   email,
	})
	key := fmt.Sprintf("password_reset:%s", token)
	if err := s.redis.Set(ctx, key, payload, time.Hour).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordResetEmail(ctx, email, token); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("password reset requested")
	return nil
}

// ResetPassword validates the reset token and updates the stored hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.redis == nil {
		return fmt.Errorf("password reset not configured")
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	key := fmt.Sprintf("password_reset:%s", token)
	raw, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("get reset token: %w", err)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("decode token data: %w", err)
	}
	userID, err := uuid.Parse(payload["user_id"])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete reset token")
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("password reset completed")
	return nil
}

func (s *Service) generateTokenPair(dbUser repository.User) (*TokenPair, error) {
	jwtUser := jwt.User{
		ID:          dbUser.ID,
		Email:       dbUser.Email,
		DisplayName: dbUser.DisplayName,
		Role:        dbUser.Role,
		ProfileType: dbUser.ProfileType,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(jwtUser)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokenMgr.GenerateRefreshToken(jwtUser)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func toUser(dbUser repository.User) User {
	return User{
		ID:          dbUser.ID,
		Email:       dbUser.Email,
		DisplayName: dbUser.DisplayName,
		Role:        dbUser.Role,
		ProfileType: dbUser.ProfileType,
		XP:          dbUser.XP,
		Streak:      dbUser.Streak,
		Energy:      dbUser.Energy,
		EloRating:   dbUser.EloRating,
		Preferences: dbUser.Preferences,
	}
}
