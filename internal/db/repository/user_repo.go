package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

const userColumns = `id, email, hashed_password, display_name, role, profile_type,
	xp, streak, energy, elo_rating, preferences, organization_id, metadata, created_at, last_login_at`

// UserRepository exposes typed DB operations for accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository wraps a pgx pool for user-specific operations.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUserParams carries the fields needed to insert an account.
type CreateUserParams struct {
	Email          *string
	HashedPassword *string
	DisplayName    string
	Role           string
	ProfileType    string
	Metadata       json.RawMessage
}

// Create inserts a new account row.
func (r *UserRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO users (email, hashed_password, display_name, role, profile_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query,
		params.Email, params.HashedPassword, params.DisplayName, params.Role, params.ProfileType, metadata)
	user, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("update login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET hashed_password = $2 WHERE id = $1`, userID, hashedPassword)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// MergePreferences deep-merges the given keys into the preferences JSON and
// returns the updated row.
func (r *UserRepository) MergePreferences(ctx context.Context, userID uuid.UUID, prefs json.RawMessage) (User, error) {
	query := `
		UPDATE users SET preferences = preferences || $2::jsonb
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, userID, prefs))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("merge preferences: %w", err)
	}
	return user, nil
}

// UpdateProfileParams carries optional profile fields.
type UpdateProfileParams struct {
	DisplayName *string
	Energy      *int
}

// UpdateProfile applies non-nil profile fields and returns the updated row.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (User, error) {
	query := `
		UPDATE users SET
			display_name = COALESCE($2, display_name),
			energy = COALESCE($3, energy)
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, userID, params.DisplayName, params.Energy))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// IncrementXP adds xp to the user's total.
func (r *UserRepository) IncrementXP(ctx context.Context, userID uuid.UUID, xp int) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET xp = xp + $2 WHERE id = $1`, userID, xp)
	if err != nil {
		return fmt.Errorf("increment xp: %w", err)
	}
	return nil
}

// ListTopByXP returns up to limit users ordered by XP, optionally filtered to
// one organization.
func (r *UserRepository) ListTopByXP(ctx context.Context, organizationID *uuid.UUID, limit int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1::uuid IS NULL OR organization_id = $1)
		ORDER BY xp DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.HashedPassword, &u.DisplayName, &u.Role, &u.ProfileType,
		&u.XP, &u.Streak, &u.Energy, &u.EloRating, &u.Preferences, &u.OrganizationID,
		&u.Metadata, &u.CreatedAt, &u.LastLoginAt,
	)
	return u, err
}
