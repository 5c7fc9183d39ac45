// File: internal/user/service.go
package user

import (
	"context"
	"strings"
	"time"

	"startdrive_backend/internal/common"
	"startdrive_backend/internal/shared"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ServiceImplementation implements the shared.Service interface.
type ServiceImplementation struct {
	repo         Repository
	tokenService shared.TokenService
	logger       *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, tokenService shared.TokenService, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates a new email/password account and issues tokens.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, nil, common.ErrConflict.WithDetails("An account with this email already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not create account.")
	}
	hashStr := string(hash)

	newUser := &User{
		Email:        &email,
		PasswordHash: &hashStr,
		AuthProvider: "email",
		Role:         "user",
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		newUser.FullName = &name
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, nil, err
	}

	sharedUser := DBToShared(newUser)
	tokens, err := s.issueTokens(sharedUser)
	if err != nil {
		return nil, nil, err
	}
	return sharedUser, tokens, nil
}

// Login authenticates an email/password account and issues tokens.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Do not reveal whether the account exists.
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	if u.PasswordHash == nil {
		return nil, nil, common.ErrUnauthorized.WithDetails("This account uses a social sign-in provider.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	now := time.Now()
	u.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Warn("Failed to record last login time", zap.Error(err), zap.String("userID", u.ID.String()))
	}

	sharedUser := DBToShared(u)
	tokens, err := s.issueTokens(sharedUser)
	if err != nil {
		return nil, nil, err
	}
	return sharedUser, tokens, nil
}

// GetUserByID returns the shared view of a user.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DBToShared(u), nil
}

// GetUserByEmail returns the shared view of a user looked up by email.
func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return DBToShared(u), nil
}

// GetOrCreateUserFromFirebaseClaims resolves a verified Firebase token to a
// local account, creating one on first sign-in.
func (s *ServiceImplementation) GetOrCreateUserFromFirebaseClaims(ctx context.Context, firebaseToken *firebaseauth.Token) (*shared.User, bool, error) {
	existing, err := s.repo.FindByProvider(ctx, "firebase", firebaseToken.UID)
	if err == nil {
		now := time.Now()
		existing.LastLoginAt = &now
		if updErr := s.repo.Update(ctx, existing); updErr != nil {
			s.logger.Warn("Failed to record last login time", zap.Error(updErr), zap.String("userID", existing.ID.String()))
		}
		return DBToShared(existing), false, nil
	}
	if apiErr, ok := common.IsAPIError(err); !ok || apiErr.Code != common.ErrNotFound.Code {
		return nil, false, err
	}

	providerID := firebaseToken.UID
	newUser := &User{
		AuthProvider: "firebase",
		ProviderID:   &providerID,
		Role:         "user",
	}
	if emailClaim, ok := firebaseToken.Claims["email"].(string); ok && emailClaim != "" {
		email := strings.ToLower(emailClaim)
		newUser.Email = &email
	}
	if verified, ok := firebaseToken.Claims["email_verified"].(bool); ok {
		newUser.IsEmailVerified = verified
	}
	if name, ok := firebaseToken.Claims["name"].(string); ok && name != "" {
		newUser.FullName = &name
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, false, err
	}

	s.logger.Info("Created user from Firebase sign-in",
		zap.String("userID", newUser.ID.String()),
		zap.String("firebaseUID", firebaseToken.UID))
	return DBToShared(newUser), true, nil
}

// UpdateProfile applies the editable profile fields and returns the updated user.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		u.FullName = req.FullName
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.Location != nil {
		u.Location = req.Location
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return DBToShared(u), nil
}

func (s *ServiceImplementation) issueTokens(u *shared.User) (*shared.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokenService.GenerateAccessToken(u)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Could not generate access token.")
	}
	refreshToken, _, err := s.tokenService.GenerateRefreshToken(u)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Could not generate refresh token.")
	}
	return &shared.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiresAt,
	}, nil
}
