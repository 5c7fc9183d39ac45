package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"startdrive_backend/internal/middleware"
	"startdrive_backend/internal/shared"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserService is a mock type for shared.Service.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	args := m.Called(ctx, req)
	var u *shared.User
	if args.Get(0) != nil {
		u = args.Get(0).(*shared.User)
	}
	var tokens *shared.TokenResponse
	if args.Get(1) != nil {
		tokens = args.Get(1).(*shared.TokenResponse)
	}
	return u, tokens, args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	var u *shared.User
	if args.Get(0) != nil {
		u = args.Get(0).(*shared.User)
	}
	var tokens *shared.TokenResponse
	if args.Get(1) != nil {
		tokens = args.Get(1).(*shared.TokenResponse)
	}
	return u, tokens, args.Error(2)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) GetOrCreateUserFromFirebaseClaims(ctx context.Context, firebaseToken *firebaseauth.Token) (*shared.User, bool, error) {
	args := m.Called(ctx, firebaseToken)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*shared.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

// MockSessionProvider is a mock type for SessionProvider.
type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firebaseauth.Token), args.Error(1)
}

func (m *MockSessionProvider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func sessionClaims(userID uuid.UUID) *shared.Claims {
	return &shared.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// setupLogoutRouter builds the auth routes with an auth middleware stub that
// injects the given claims, the way the real middleware would after
// validating a token.
func setupLogoutRouter(t *testing.T, h *Handler, claims *shared.Claims) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authMW := func(c *gin.Context) {
		c.Set(middleware.UserIDKey, claims.UserID)
		c.Set(middleware.UserClaimsKey, claims)
		c.Next()
	}
	h.RegisterRoutes(router.Group("/api/v1"), authMW)
	return router
}

func TestHandler_Logout_RevokesFirebaseSession(t *testing.T) {
	mockUsers := new(MockUserService)
	mockProvider := new(MockSessionProvider)
	blocklist := NewInMemoryBlocklistService(InMemoryBlocklistConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})

	handler := NewHandler(mockUsers, newTestJWTService(t, time.Hour), blocklist, nil, zap.NewNop())
	handler.firebase = mockProvider

	userID := uuid.New()
	providerUID := "firebase-uid-123"
	mockUsers.On("GetUserByID", mock.Anything, userID).Return(&shared.User{
		ID:           userID,
		AuthProvider: "firebase",
		ProviderID:   &providerUID,
	}, nil)
	mockProvider.On("RevokeRefreshTokens", mock.Anything, providerUID).Return(nil)

	claims := sessionClaims(userID)
	router := setupLogoutRouter(t, handler, claims)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, blocklist.IsBlocklisted(claims.ID), "access token JTI should be blocklisted")
	mockProvider.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
}

func TestHandler_Logout_EmailAccountSkipsRevocation(t *testing.T) {
	mockUsers := new(MockUserService)
	mockProvider := new(MockSessionProvider)
	blocklist := NewInMemoryBlocklistService(InMemoryBlocklistConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})

	handler := NewHandler(mockUsers, newTestJWTService(t, time.Hour), blocklist, nil, zap.NewNop())
	handler.firebase = mockProvider

	userID := uuid.New()
	mockUsers.On("GetUserByID", mock.Anything, userID).Return(&shared.User{
		ID:           userID,
		AuthProvider: "email",
	}, nil)

	claims := sessionClaims(userID)
	router := setupLogoutRouter(t, handler, claims)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, blocklist.IsBlocklisted(claims.ID))
	mockProvider.AssertNotCalled(t, "RevokeRefreshTokens", mock.Anything, mock.Anything)
}

func TestHandler_Logout_RevocationFailureStillLogsOut(t *testing.T) {
	mockUsers := new(MockUserService)
	mockProvider := new(MockSessionProvider)
	blocklist := NewInMemoryBlocklistService(InMemoryBlocklistConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})

	handler := NewHandler(mockUsers, newTestJWTService(t, time.Hour), blocklist, nil, zap.NewNop())
	handler.firebase = mockProvider

	userID := uuid.New()
	providerUID := "firebase-uid-456"
	mockUsers.On("GetUserByID", mock.Anything, userID).Return(&shared.User{
		ID:           userID,
		AuthProvider: "firebase",
		ProviderID:   &providerUID,
	}, nil)
	mockProvider.On("RevokeRefreshTokens", mock.Anything, providerUID).
		Return(assert.AnError)

	claims := sessionClaims(userID)
	router := setupLogoutRouter(t, handler, claims)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	router.ServeHTTP(w, req)

	// The local token is revoked regardless of the provider call outcome.
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, blocklist.IsBlocklisted(claims.ID))
}
