// File: internal/favorite/repository.go
package favorite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"startdrive_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for favorite data operations.
type Repository interface {
	Exists(ctx context.Context, userID, carID uuid.UUID) (bool, error)
	Insert(ctx context.Context, favorite *Favorite) error
	Delete(ctx context.Context, userID, carID uuid.UUID) (int64, error)
	ListCarIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListWithCars(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Favorite, *common.Pagination, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM favorite repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Exists reports whether the user has favorited the car.
func (r *gormRepository) Exists(ctx context.Context, userID, carID uuid.UUID) (bool, error) {
	var favorite Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND car_id = ?", userID, carID).
		First(&favorite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check favorite existence: %w", err)
	}
	return true, nil
}

// Insert adds a favorite. A unique-constraint violation maps to ErrConflict,
// which the service treats as the pair already being favorited.
func (r *gormRepository) Insert(ctx context.Context, favorite *Favorite) error {
	if err := r.db.WithContext(ctx).Create(favorite).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint") {
			return common.ErrConflict.WithDetails("This car is already in your favorites.")
		}
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite and returns how many rows were affected.
func (r *gormRepository) Delete(ctx context.Context, userID, carID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND car_id = ?", userID, carID).
		Delete(&Favorite{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete favorite: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListCarIDsByUser returns just the favorited car IDs for quick heart-state
// lookups on listing pages.
func (r *gormRepository) ListCarIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	err := r.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("car_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite car ids: %w", err)
	}
	return ids, nil
}

// ListWithCars returns the user's favorites with their cars and sellers
// preloaded, newest favorite first.
func (r *gormRepository) ListWithCars(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Favorite, *common.Pagination, error) {
	var favorites []Favorite
	var total int64

	if err := r.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count favorites: %w", err)
	}

	pagination := common.NewPagination(total, page, pageSize)

	offset := (page - 1) * pageSize
	if page <= 0 {
		offset = 0
	}

	err := r.db.WithContext(ctx).
		Preload("Car").
		Preload("Car.Seller").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&favorites).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, pagination, nil
}
