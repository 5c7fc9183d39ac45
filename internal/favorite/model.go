// File: internal/favorite/model.go
package favorite

import (
	"time"

	"startdrive_backend/internal/car"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite represents a user's saved car. The (user_id, car_id) pair is
// unique; favoriting is a set membership, not a counter.
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_car;index" json:"user_id"`
	CarID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_car" json:"car_id"`
	Car       *car.Car  `gorm:"foreignKey:CarID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Favorite) TableName() string {
	return "favorites"
}

// BeforeCreate assigns a UUID when none was set by the caller.
func (f *Favorite) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ToggleResult reports the outcome of a favorite toggle.
type ToggleResult struct {
	CarID     uuid.UUID `json:"car_id"`
	Favorited bool      `json:"favorited"`
	Message   string    `json:"message"`
}

// FavoriteResponse is a saved car with the time it was favorited.
type FavoriteResponse struct {
	Car         car.CarResponse `json:"car"`
	FavoritedAt time.Time       `json:"favorited_at"`
}
