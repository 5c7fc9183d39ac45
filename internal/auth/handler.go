// File: internal/auth/handler.go
package auth

import (
	"context"
	"errors"

	"startdrive_backend/internal/common"
	"startdrive_backend/internal/firebase"
	"startdrive_backend/internal/middleware"
	"startdrive_backend/internal/shared"
	"startdrive_backend/internal/user"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionProvider is the subset of the Firebase service the handler uses.
type SessionProvider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	userService  shared.Service
	tokenService shared.TokenService
	blocklist    TokenBlocklistService
	firebase     SessionProvider
	logger       *zap.Logger
}

// NewHandler creates a new auth handler. firebaseService may be nil when
// Firebase auth is not configured.
func NewHandler(
	userService shared.Service,
	tokenService shared.TokenService,
	blocklist TokenBlocklistService,
	firebaseService *firebase.FirebaseService,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		userService:  userService,
		tokenService: tokenService,
		blocklist:    blocklist,
		logger:       logger,
	}
	if firebaseService != nil {
		h.firebase = firebaseService
	}
	return h
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh-token", h.refreshToken)
		authGroup.POST("/firebase", h.firebaseExchange)

		authedGroup := authGroup.Group("")
		authedGroup.Use(authMW)
		{
			authedGroup.POST("/logout", h.logout)
			authedGroup.GET("/me", h.me)
		}
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Register: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	createdUser, tokenResponse, err := h.userService.Register(c.Request.Context(), shared.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Account created successfully.", gin.H{
		"user":  user.ToUserResponse(createdUser),
		"token": tokenResponse,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	loggedInUser, tokenResponse, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Login successful.", gin.H{
		"user":  user.ToUserResponse(loggedInUser),
		"token": tokenResponse,
	})
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Refresh token: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("refresh_token is required."))
		return
	}

	claims, err := h.tokenService.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.Warn("Refresh token validation failed", zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token."))
		return
	}

	u, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("User not found for valid refresh token claims", zap.String("userID", claims.UserID.String()), zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User associated with refresh token not found."))
		return
	}

	newAccessToken, newAccessExpiresAt, err := h.tokenService.GenerateAccessToken(u)
	if err != nil {
		h.logger.Error("Failed to generate new access token during refresh", zap.Error(err), zap.String("userID", u.ID.String()))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not generate new access token."))
		return
	}

	common.RespondOK(c, "Token refreshed successfully.", &shared.TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    newAccessExpiresAt,
	})
}

// firebaseExchange verifies a Firebase ID token, get-or-creates the local
// account, and issues local JWTs. This is how social sign-ins reach the API.
func (h *Handler) firebaseExchange(c *gin.Context) {
	if h.firebase == nil {
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Firebase authentication is not configured."))
		return
	}

	var req FirebaseExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("id_token is required."))
		return
	}

	fbToken, err := h.firebase.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid Firebase ID token."))
		return
	}

	u, wasCreated, err := h.userService.GetOrCreateUserFromFirebaseClaims(c.Request.Context(), fbToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	accessToken, accessExpiresAt, err := h.tokenService.GenerateAccessToken(u)
	if err != nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not generate access token."))
		return
	}
	refreshToken, _, err := h.tokenService.GenerateRefreshToken(u)
	if err != nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not generate refresh token."))
		return
	}

	message := "Login successful."
	if wasCreated {
		message = "Account created successfully."
	}
	common.RespondOK(c, message, gin.H{
		"user": user.ToUserResponse(u),
		"token": &shared.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresAt:    accessExpiresAt,
		},
	})
}

// logout revokes the presented access token until its natural expiry. For
// accounts that signed in through Firebase it also revokes the Firebase
// refresh tokens, so the client cannot silently mint a new session.
func (h *Handler) logout(c *gin.Context) {
	claims := middleware.GetUserClaimsFromContext(c)
	if claims == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	if claims.ID != "" && claims.ExpiresAt != nil {
		h.blocklist.AddToBlocklist(claims.ID, claims.ExpiresAt.Time)
	}
	if h.firebase != nil {
		h.revokeFirebaseSession(c, claims.UserID)
	}
	common.RespondOK(c, "Logged out successfully.", nil)
}

// revokeFirebaseSession is best-effort: failures are logged and the logout
// still succeeds, since the local access token is already blocklisted.
func (h *Handler) revokeFirebaseSession(c *gin.Context, userID uuid.UUID) {
	u, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("Logout: could not load user for session revocation",
			zap.String("userID", userID.String()), zap.Error(err))
		return
	}
	if u.AuthProvider != "firebase" || u.ProviderID == nil {
		return
	}
	if err := h.firebase.RevokeRefreshTokens(c.Request.Context(), *u.ProviderID); err != nil {
		h.logger.Warn("Logout: failed to revoke Firebase refresh tokens",
			zap.String("userID", userID.String()), zap.Error(err))
	}
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	u, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", user.ToUserResponse(u))
}
