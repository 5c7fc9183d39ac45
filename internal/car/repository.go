// File: internal/car/repository.go
package car

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"startdrive_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for car data operations.
type Repository interface {
	Create(ctx context.Context, car *Car) error
	FindByID(ctx context.Context, id uuid.UUID, preloadSeller bool) (*Car, error)
	FindBySlug(ctx context.Context, slug string) (*Car, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Car, error)
	Update(ctx context.Context, car *Car) error
	Search(ctx context.Context, query CarSearchQuery) ([]Car, *common.Pagination, error)
	FindBySellerID(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]Car, *common.Pagination, error)
	FindRecent(ctx context.Context, limit int) ([]Car, error)
	FindBatch(ctx context.Context, offset, limit int) ([]Car, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM car repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new car listing into the database.
func (r *gormRepository) Create(ctx context.Context, car *Car) error {
	if err := r.db.WithContext(ctx).Create(car).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") {
			return common.ErrConflict.WithDetails("A listing with this slug already exists.")
		}
		return fmt.Errorf("failed to create car listing: %w", err)
	}
	return nil
}

// FindByID retrieves a car listing by its ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadSeller bool) (*Car, error) {
	var car Car
	query := r.db.WithContext(ctx)
	if preloadSeller {
		query = query.Preload("Seller")
	}
	err := query.First(&car, "cars.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Car listing not found.")
		}
		return nil, err
	}
	return &car, nil
}

// FindBySlug retrieves a car listing by its slug.
func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Car, error) {
	var car Car
	err := r.db.WithContext(ctx).Preload("Seller").First(&car, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Car listing not found.")
		}
		return nil, err
	}
	return &car, nil
}

// FindByIDs retrieves car listings for a set of IDs. The result order is
// unspecified; callers that care about order reorder in memory.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Car, error) {
	if len(ids) == 0 {
		return []Car{}, nil
	}
	var cars []Car
	err := r.db.WithContext(ctx).Preload("Seller").Where("id IN ?", ids).Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cars by ids: %w", err)
	}
	return cars, nil
}

// Update saves all fields of an existing car listing.
func (r *gormRepository) Update(ctx context.Context, car *Car) error {
	if err := r.db.WithContext(ctx).Save(car).Error; err != nil {
		return fmt.Errorf("failed to update car listing: %w", err)
	}
	return nil
}

// Search retrieves car listings matching the query filters with pagination.
func (r *gormRepository) Search(ctx context.Context, queryParams CarSearchQuery) ([]Car, *common.Pagination, error) {
	var cars []Car
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Car{}).Preload("Seller")

	if term := strings.TrimSpace(queryParams.SearchTerm); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		dbQuery = dbQuery.Where(
			"LOWER(cars.make) LIKE ? OR LOWER(cars.model) LIKE ? OR LOWER(cars.description) LIKE ?",
			like, like, like)
	}
	if queryParams.Make != "" {
		dbQuery = dbQuery.Where("LOWER(cars.make) = ?", strings.ToLower(queryParams.Make))
	}
	if queryParams.Fuel != "" {
		dbQuery = dbQuery.Where("cars.fuel = ?", queryParams.Fuel)
	}
	if queryParams.Transmission != "" {
		dbQuery = dbQuery.Where("cars.transmission = ?", queryParams.Transmission)
	}
	if queryParams.Location != "" {
		dbQuery = dbQuery.Where("LOWER(cars.location) LIKE ?", "%"+strings.ToLower(queryParams.Location)+"%")
	}
	if queryParams.YearMin != nil {
		dbQuery = dbQuery.Where("cars.year >= ?", *queryParams.YearMin)
	}
	if queryParams.YearMax != nil {
		dbQuery = dbQuery.Where("cars.year <= ?", *queryParams.YearMax)
	}
	if queryParams.PriceMin != nil {
		dbQuery = dbQuery.Where("cars.price >= ?", *queryParams.PriceMin)
	}
	if queryParams.PriceMax != nil {
		dbQuery = dbQuery.Where("cars.price <= ?", *queryParams.PriceMax)
	}
	if queryParams.Featured != nil {
		dbQuery = dbQuery.Where("cars.featured = ?", *queryParams.Featured)
	}
	if !queryParams.IncludeSold {
		dbQuery = dbQuery.Where("cars.sold = ?", false)
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count car listings: %w", err)
	}

	// Sort field names are mapped from a fixed set; user input never reaches
	// the ORDER BY clause directly.
	validSortableFields := map[string]string{
		"created_at": "cars.created_at",
		"price":      "cars.price",
		"year":       "cars.year",
		"mileage":    "cars.mileage",
	}
	sortField, ok := validSortableFields[queryParams.SortBy]
	if !ok {
		sortField = "cars.created_at"
	}
	sortOrder := "DESC"
	if strings.ToLower(queryParams.SortOrder) == "asc" {
		sortOrder = "ASC"
	}
	dbQuery = dbQuery.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	pagination := common.NewPagination(totalItems, queryParams.Page, queryParams.Limit())
	dbQuery = dbQuery.Offset(queryParams.Offset()).Limit(queryParams.Limit())

	if err := dbQuery.Find(&cars).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to search car listings: %w", err)
	}
	return cars, pagination, nil
}

// FindBySellerID retrieves a paginated list of a seller's own listings,
// including sold ones, newest first.
func (r *gormRepository) FindBySellerID(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]Car, *common.Pagination, error) {
	var cars []Car
	var totalItems int64

	if err := r.db.WithContext(ctx).Model(&Car{}).
		Where("seller_id = ?", sellerID).
		Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count seller listings: %w", err)
	}

	pagination := common.NewPagination(totalItems, page, pageSize)

	offset := (page - 1) * pageSize
	if page <= 0 {
		offset = 0
	}

	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&cars).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch seller listings: %w", err)
	}
	return cars, pagination, nil
}

// FindRecent retrieves the newest unsold listings.
func (r *gormRepository) FindRecent(ctx context.Context, limit int) ([]Car, error) {
	var cars []Car
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("sold = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent listings: %w", err)
	}
	return cars, nil
}

// FindBatch retrieves a stable window of listings for bulk indexing.
func (r *gormRepository) FindBatch(ctx context.Context, offset, limit int) ([]Car, error) {
	var cars []Car
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch car batch: %w", err)
	}
	return cars, nil
}
