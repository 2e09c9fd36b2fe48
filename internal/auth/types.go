package auth

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Profile types accepted at registration; each maps to a default role.
const (
	ProfileStudent      = "student"
	ProfileProfessional = "professional"
	ProfileProfessor    = "professor"
	ProfileGuest        = "guest"
)

// Roles derived from profile types.
const (
	RoleStudent      = "student"
	RoleProfessional = "professional"
	RoleTeacher      = "teacher"
	RoleAdmin        = "admin"
)

var defaultRoleForProfile = map[string]string{
	ProfileStudent:      RoleStudent,
	ProfileProfessional: RoleProfessional,
	ProfileProfessor:    RoleTeacher,
	ProfileGuest:        RoleStudent,
}

// User is the account view returned by auth operations.
type User struct {
	ID          uuid.UUID       `json:"id"`
	Email       *string         `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        string          `json:"role"`
	ProfileType string          `json:"profile_type"`
	XP          int             `json:"xp"`
	Streak      int             `json:"streak"`
	Energy      int             `json:"energy"`
	EloRating   int             `json:"elo_rating"`
	Preferences json.RawMessage `json:"preferences"`
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	ProfileType string `json:"profile_type"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OAuthProvider constants.
const OAuthProviderGoogle = "google"
