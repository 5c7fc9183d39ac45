// File: internal/platform/database/migrate.go
package database

import (
	"fmt"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/chat"
	"startdrive_backend/internal/favorite"
	"startdrive_backend/internal/notification"
	"startdrive_backend/internal/user"

	"gorm.io/gorm"
)

// AutoMigrate brings the schema up to date for every model. Order matters:
// referenced tables must exist before the tables that point at them.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&car.Car{},
		&favorite.Favorite{},
		&chat.Chat{},
		&chat.Message{},
		&notification.Notification{},
	); err != nil {
		return fmt.Errorf("failed to run schema migration: %w", err)
	}
	return nil
}
