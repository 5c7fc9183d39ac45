// File: internal/user/model.go
package user

import (
	"time"

	"startdrive_backend/internal/common"
	"startdrive_backend/internal/shared"

	"github.com/google/uuid"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel         // Embeds ID, CreatedAt, UpdatedAt
	Email            *string `gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash     *string `gorm:"type:varchar(255)"` // NULL for Firebase-only accounts
	FullName         *string `gorm:"type:varchar(100)"`
	Phone            *string `gorm:"type:varchar(50)"`
	Location         *string `gorm:"type:varchar(100)"`
	AuthProvider     string  `gorm:"type:varchar(50);not null;default:'email'"`
	ProviderID       *string `gorm:"type:varchar(255);index:idx_auth_provider_provider_id,unique"`
	IsEmailVerified  bool    `gorm:"not null;default:false"`
	Role             string  `gorm:"type:varchar(50);not null;default:'user'"`
	LastLoginAt      *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Sanitize removes sensitive information like the password hash.
func (u *User) Sanitize() {
	u.PasswordHash = nil
}

// DBToShared converts the GORM user model to the cross-package shared.User.
func DBToShared(u *User) *shared.User {
	if u == nil {
		return nil
	}
	return &shared.User{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Location:        u.Location,
		Role:            u.Role,
		AuthProvider:    u.AuthProvider,
		ProviderID:      u.ProviderID,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
}

// --- DTOs for API responses ---

// UpdateProfileRequest defines the editable profile fields.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" binding:"omitempty,max=100"`
	Phone    *string `json:"phone,omitempty" binding:"omitempty,max=50"`
	Location *string `json:"location,omitempty" binding:"omitempty,max=100"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           *string    `json:"email,omitempty"`
	FullName        *string    `json:"full_name,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Location        *string    `json:"location,omitempty"`
	AuthProvider    string     `json:"auth_provider"`
	IsEmailVerified bool       `json:"is_email_verified"`
	Role            string     `json:"role"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Location:        u.Location,
		AuthProvider:    u.AuthProvider,
		IsEmailVerified: u.IsEmailVerified,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
}
