package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsferreira/anatomy-game/internal/auth/jwt"
	"github.com/mtsferreira/anatomy-game/internal/db/repository"
)

type stubUserStore struct {
	usersByEmail map[string]repository.User
	usersByID    map[uuid.UUID]repository.User
	created      []repository.CreateUserParams
	lastPassword string
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		usersByEmail: make(map[string]repository.User),
		usersByID:    make(map[uuid.UUID]repository.User),
	}
}

func (s *stubUserStore) add(u repository.User) {
	if u.Email != nil {
		s.usersByEmail[*u.Email] = u
	}
	s.usersByID[u.ID] = u
}

func (s *stubUserStore) Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error) {
	s.created = append(s.created, params)
	u := repository.User{
		ID:             uuid.New(),
		Email:          params.Email,
		HashedPassword: params.HashedPassword,
		DisplayName:    params.DisplayName,
		Role:           params.Role,
		ProfileType:    params.ProfileType,
		Energy:         5,
		EloRating:      1200,
	}
	s.add(u)
	return u, nil
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	u, ok := s.usersByEmail[email]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	u, ok := s.usersByID[userID]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (s *stubUserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	s.lastPassword = hashedPassword
	return nil
}

func newTestService(store userStore) *Service {
	return NewService(store, ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte("test-access-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}, zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.True(t, len(hash) > 20)
}

func TestVerifyPassword(t *testing.T) {
	hash, _ := HashPassword("testpassword123")

	err := VerifyPassword(hash, "testpassword123")
	assert.NoError(t, err)

	err = VerifyPassword(hash, "wrongpassword")
	assert.Error(t, err)
}

func TestPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)
	assert.Equal(t, ErrPasswordTooShort, err)
}

func TestService_Register(t *testing.T) {
	store := newStubUserStore()
	svc := newTestService(store)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "ana@example.com",
		Password:    "supersecret",
		DisplayName: "Ana",
		ProfileType: ProfileStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.DisplayName)
	assert.Equal(t, RoleStudent, user.Role)
	require.Len(t, store.created, 1)
	assert.NotEqual(t, "supersecret", *store.created[0].HashedPassword)
}

func TestService_Register_EmailTaken(t *testing.T) {
	store := newStubUserStore()
	email := "taken@example.com"
	store.add(repository.User{ID: uuid.New(), Email: &email})
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    "supersecret",
		DisplayName: "Dup",
		ProfileType: ProfileStudent,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Register_UnknownProfile(t *testing.T) {
	svc := newTestService(newStubUserStore())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "x@example.com",
		Password:    "supersecret",
		DisplayName: "X",
		ProfileType: "alien",
	})
	assert.Error(t, err)
}

func TestService_Login(t *testing.T) {
	store := newStubUserStore()
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "ana@example.com",
		Password:    "supersecret",
		DisplayName: "Ana",
		ProfileType: ProfileStudent,
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ana@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Ana", claims.DisplayName)
}

func TestService_Login_WrongPassword(t *testing.T) {
	store := newStubUserStore()
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "ana@example.com",
		Password:    "supersecret",
		DisplayName: "Ana",
		ProfileType: ProfileStudent,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "ana@example.com",
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "supersecret",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Refresh(t *testing.T) {
	store := newStubUserStore()
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "ana@example.com",
		Password:    "supersecret",
		DisplayName: "Ana",
		ProfileType: ProfileStudent,
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ana@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), tokens.AccessToken)
	assert.Error(t, err, "access token must not pass as refresh token")
}
