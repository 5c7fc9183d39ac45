// File: internal/car/model.go
package car

import (
	"time"

	"startdrive_backend/internal/car/esutil"
	"startdrive_backend/internal/common"
	"startdrive_backend/internal/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FuelType enumerates the accepted fuel types.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelHybrid   FuelType = "Hybrid"
	FuelElectric FuelType = "Electric"
	FuelLPG      FuelType = "LPG"
)

// TransmissionType enumerates the accepted transmission types.
type TransmissionType string

const (
	TransmissionAutomatic TransmissionType = "Automatic"
	TransmissionManual    TransmissionType = "Manual"
	TransmissionCVT       TransmissionType = "CVT"
)

// Validation bounds for car listings.
const (
	MinYear       = 1900
	MaxPrice      = 10_000_000
	MaxMileage    = 1_000_000
	MaxCompareIDs = 4
)

// Car represents a car listing in the database.
type Car struct {
	common.BaseModel
	SellerID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Seller       *user.User       `gorm:"foreignKey:SellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Make         string           `gorm:"type:varchar(50);not null"`
	Model        string           `gorm:"type:varchar(50);not null"`
	Year         int              `gorm:"not null"`
	Price        float64          `gorm:"type:decimal(12,2);not null"`
	Mileage      int              `gorm:"not null;default:0"`
	Fuel         FuelType         `gorm:"type:varchar(20);not null"`
	Transmission TransmissionType `gorm:"type:varchar(20);not null"`
	Location     string           `gorm:"type:varchar(100);not null"`
	Description  *string          `gorm:"type:text"`
	Color        *string          `gorm:"type:varchar(30)"`
	Images       pq.StringArray   `gorm:"type:text[]"`
	Slug         string           `gorm:"type:varchar(255);not null;uniqueIndex"`
	Featured     bool             `gorm:"not null;default:false"`
	Verified     bool             `gorm:"not null;default:false"`
	Sold         bool             `gorm:"not null;default:false;index"`
}

// TableName specifies the table name for the Car model.
func (Car) TableName() string {
	return "cars"
}

// --- DTOs ---

// CreateCarRequest defines the payload for creating a car listing.
// The year upper bound is dynamic (next model year) and checked in the service.
type CreateCarRequest struct {
	Make         string           `json:"make" binding:"required,max=50"`
	Model        string           `json:"model" binding:"required,max=50"`
	Year         int              `json:"year" binding:"required,gte=1900"`
	Price        float64          `json:"price" binding:"required,gt=0,lte=10000000"`
	Mileage      int              `json:"mileage" binding:"gte=0,lte=1000000"`
	Fuel         FuelType         `json:"fuel" binding:"required,oneof=Petrol Diesel Hybrid Electric LPG"`
	Transmission TransmissionType `json:"transmission" binding:"required,oneof=Automatic Manual CVT"`
	Location     string           `json:"location" binding:"required,max=100"`
	Description  *string          `json:"description,omitempty" binding:"omitempty,max=5000"`
	Color        *string          `json:"color,omitempty" binding:"omitempty,max=30"`
}

// UpdateCarRequest defines the payload for updating a car listing.
// All fields are optional; only provided fields are applied.
type UpdateCarRequest struct {
	Make         *string           `json:"make,omitempty" binding:"omitempty,min=1,max=50"`
	Model        *string           `json:"model,omitempty" binding:"omitempty,min=1,max=50"`
	Year         *int              `json:"year,omitempty" binding:"omitempty,gte=1900"`
	Price        *float64          `json:"price,omitempty" binding:"omitempty,gt=0,lte=10000000"`
	Mileage      *int              `json:"mileage,omitempty" binding:"omitempty,gte=0,lte=1000000"`
	Fuel         *FuelType         `json:"fuel,omitempty" binding:"omitempty,oneof=Petrol Diesel Hybrid Electric LPG"`
	Transmission *TransmissionType `json:"transmission,omitempty" binding:"omitempty,oneof=Automatic Manual CVT"`
	Location     *string           `json:"location,omitempty" binding:"omitempty,min=1,max=100"`
	Description  *string           `json:"description,omitempty" binding:"omitempty,max=5000"`
	Color        *string           `json:"color,omitempty" binding:"omitempty,max=30"`
}

// CarSearchQuery holds search and filter parameters for car listings.
type CarSearchQuery struct {
	common.PaginationQuery
	SearchTerm   string   `form:"q"`
	Make         string   `form:"make"`
	Fuel         string   `form:"fuel"`
	Transmission string   `form:"transmission"`
	YearMin      *int     `form:"year_min"`
	YearMax      *int     `form:"year_max"`
	PriceMin     *float64 `form:"price_min"`
	PriceMax     *float64 `form:"price_max"`
	Location     string   `form:"location"`
	Featured     *bool    `form:"featured"`
	IncludeSold  bool     `form:"include_sold"`
	SortBy       string   `form:"sort_by"`    // created_at, price, year
	SortOrder    string   `form:"sort_order"` // asc, desc
}

// SellerResponse is the trimmed seller view embedded in car responses.
type SellerResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName *string   `json:"full_name,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Location *string   `json:"location,omitempty"`
}

// CarResponse defines the structure for car data sent in API responses.
type CarResponse struct {
	ID           uuid.UUID        `json:"id"`
	SellerID     uuid.UUID        `json:"seller_id"`
	Seller       *SellerResponse  `json:"seller,omitempty"`
	Make         string           `json:"make"`
	Model        string           `json:"model"`
	Year         int              `json:"year"`
	Price        float64          `json:"price"`
	Mileage      int              `json:"mileage"`
	Fuel         FuelType         `json:"fuel"`
	Transmission TransmissionType `json:"transmission"`
	Location     string           `json:"location"`
	Description  *string          `json:"description,omitempty"`
	Color        *string          `json:"color,omitempty"`
	Images       []string         `json:"images"`
	Slug         string           `json:"slug"`
	Featured     bool             `json:"featured"`
	Verified     bool             `json:"verified"`
	Sold         bool             `json:"sold"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ToCarResponse converts a Car model to a CarResponse DTO. resolveURL maps a
// stored relative image path to its public URL; a nil resolver keeps paths as-is.
func ToCarResponse(c *Car, resolveURL func(string) string) CarResponse {
	images := make([]string, 0, len(c.Images))
	for _, path := range c.Images {
		if resolveURL != nil {
			images = append(images, resolveURL(path))
		} else {
			images = append(images, path)
		}
	}

	resp := CarResponse{
		ID:           c.ID,
		SellerID:     c.SellerID,
		Make:         c.Make,
		Model:        c.Model,
		Year:         c.Year,
		Price:        c.Price,
		Mileage:      c.Mileage,
		Fuel:         c.Fuel,
		Transmission: c.Transmission,
		Location:     c.Location,
		Description:  c.Description,
		Color:        c.Color,
		Images:       images,
		Slug:         c.Slug,
		Featured:     c.Featured,
		Verified:     c.Verified,
		Sold:         c.Sold,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.Seller != nil {
		resp.Seller = &SellerResponse{
			ID:       c.Seller.ID,
			FullName: c.Seller.FullName,
			Phone:    c.Seller.Phone,
			Location: c.Seller.Location,
		}
	}
	return resp
}

// ToDocument maps a car to its Elasticsearch index document.
func ToDocument(c *Car) esutil.CarDocument {
	doc := esutil.CarDocument{
		Make:         c.Make,
		Model:        c.Model,
		Slug:         c.Slug,
		Year:         c.Year,
		Price:        c.Price,
		Mileage:      c.Mileage,
		Fuel:         string(c.Fuel),
		Transmission: string(c.Transmission),
		Location:     c.Location,
		SellerID:     c.SellerID.String(),
		Featured:     c.Featured,
		Verified:     c.Verified,
		Sold:         c.Sold,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.Description != nil {
		doc.Description = *c.Description
	}
	return doc
}

// ToCarResponses converts a slice of cars.
func ToCarResponses(cars []Car, resolveURL func(string) string) []CarResponse {
	responses := make([]CarResponse, 0, len(cars))
	for i := range cars {
		responses = append(responses, ToCarResponse(&cars[i], resolveURL))
	}
	return responses
}
