// File: internal/auth/model.go
package auth

// RegisterRequest is the payload for email/password sign-up.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	FullName string `json:"full_name,omitempty" binding:"omitempty,max=100"`
}

// LoginRequest is the payload for email/password sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token to exchange for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// FirebaseExchangeRequest carries a Firebase ID token to exchange for local JWTs.
type FirebaseExchangeRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}
