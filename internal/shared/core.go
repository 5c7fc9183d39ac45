// File: internal/shared/core.go
package shared

import (
	"context"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is the cross-package view of an account. The GORM model lives in
// internal/user; packages that only need identity data depend on this type
// to avoid import cycles.
type User struct {
	ID              uuid.UUID
	Email           *string
	FullName        *string
	Phone           *string
	Location        *string
	Role            string
	AuthProvider    string
	ProviderID      *string
	IsEmailVerified bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLoginAt     *time.Time
}

// CreateUserRequest represents a request to create a new user.
type CreateUserRequest struct {
	Email    string
	Password string
	FullName string
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	FullName *string
	Phone    *string
	Location *string
}

// TokenResponse represents the response containing JWT tokens.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// Service defines the interface for user-related business logic.
type Service interface {
	Register(ctx context.Context, req CreateUserRequest) (*User, *TokenResponse, error)
	Login(ctx context.Context, email, password string) (*User, *TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetOrCreateUserFromFirebaseClaims(ctx context.Context, firebaseToken *firebaseauth.Token) (usr *User, wasCreated bool, err error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() *string
	GetRole() string
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	GenerateRefreshToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
	ParseRefreshToken(refreshTokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// GetID implements UserDataForToken for the shared User.
func (u *User) GetID() uuid.UUID { return u.ID }

// GetEmail implements UserDataForToken for the shared User.
func (u *User) GetEmail() *string { return u.Email }

// GetRole implements UserDataForToken for the shared User.
func (u *User) GetRole() string { return u.Role }
