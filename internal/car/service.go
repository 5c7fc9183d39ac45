// File: internal/car/service.go
package car

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"startdrive_backend/internal/car/esutil"
	"startdrive_backend/internal/common"
	"startdrive_backend/internal/config"
	"startdrive_backend/internal/filestorage"
	"startdrive_backend/internal/notification"
	"startdrive_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service defines the interface for car listing business logic.
type Service interface {
	CreateCar(ctx context.Context, sellerID uuid.UUID, req CreateCarRequest) (*Car, error)
	GetCarByID(ctx context.Context, id uuid.UUID) (*Car, error)
	GetCarBySlug(ctx context.Context, slug string) (*Car, error)
	UpdateCar(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, req UpdateCarRequest) (*Car, error)
	MarkCarSold(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) (*Car, error)
	SearchCars(ctx context.Context, query CarSearchQuery) ([]Car, *common.Pagination, error)
	CompareCars(ctx context.Context, ids []uuid.UUID) ([]Car, error)
	GetSellerCars(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]Car, *common.Pagination, error)
	GetRecentCars(ctx context.Context, limit int) ([]Car, error)
	AddCarImages(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, files []*multipart.FileHeader) (*Car, error)

	ToResponse(c *Car) CarResponse
	ToResponses(cars []Car) []CarResponse
}

// ServiceImplementation implements the car Service interface.
type ServiceImplementation struct {
	repo                Repository
	notificationService notification.Service
	fileStorage         *filestorage.FileStorageService
	esClient            *elasticsearch.ESClientWrapper
	cfg                 *config.Config
	logger              *zap.Logger
}

// NewService creates a new car service. esClient may be nil, in which case
// search runs against the database.
func NewService(
	repo Repository,
	notificationService notification.Service,
	fileStorage *filestorage.FileStorageService,
	esClient *elasticsearch.ESClientWrapper,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:                repo,
		notificationService: notificationService,
		fileStorage:         fileStorage,
		esClient:            esClient,
		cfg:                 cfg,
		logger:              logger,
	}
}

// CreateCar validates and persists a new car listing.
func (s *ServiceImplementation) CreateCar(ctx context.Context, sellerID uuid.UUID, req CreateCarRequest) (*Car, error) {
	maxYear := time.Now().Year() + 1
	if req.Year > maxYear {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Year cannot be later than %d.", maxYear))
	}

	newCar := &Car{
		SellerID:     sellerID,
		Make:         strings.TrimSpace(req.Make),
		Model:        strings.TrimSpace(req.Model),
		Year:         req.Year,
		Price:        req.Price,
		Mileage:      req.Mileage,
		Fuel:         req.Fuel,
		Transmission: req.Transmission,
		Location:     strings.TrimSpace(req.Location),
		Description:  req.Description,
		Color:        req.Color,
		Slug:         generateSlug(req.Make, req.Model, req.Year),
	}
	if newCar.Make == "" || newCar.Model == "" || newCar.Location == "" {
		return nil, common.ErrBadRequest.WithDetails("Make, model and location cannot be blank.")
	}

	if err := s.repo.Create(ctx, newCar); err != nil {
		return nil, err
	}

	s.indexCar(ctx, newCar)

	msg := fmt.Sprintf("Your listing %d %s %s is now live.", newCar.Year, newCar.Make, newCar.Model)
	if err := s.notificationService.CreateNotification(ctx, sellerID, notification.CarListingLive, msg, &newCar.ID); err != nil {
		s.logger.Warn("Failed to send listing-live notification", zap.Error(err), zap.String("carID", newCar.ID.String()))
	}

	return s.repo.FindByID(ctx, newCar.ID, true)
}

// GetCarByID retrieves a car listing with its seller.
func (s *ServiceImplementation) GetCarByID(ctx context.Context, id uuid.UUID) (*Car, error) {
	return s.repo.FindByID(ctx, id, true)
}

// GetCarBySlug retrieves a car listing by slug with its seller.
func (s *ServiceImplementation) GetCarBySlug(ctx context.Context, carSlug string) (*Car, error) {
	return s.repo.FindBySlug(ctx, carSlug)
}

// UpdateCar applies the provided fields to a listing owned by sellerID.
func (s *ServiceImplementation) UpdateCar(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, req UpdateCarRequest) (*Car, error) {
	existing, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != sellerID {
		return nil, common.ErrForbidden.WithDetails("You can only edit your own listings.")
	}

	if req.Year != nil {
		maxYear := time.Now().Year() + 1
		if *req.Year > maxYear {
			return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Year cannot be later than %d.", maxYear))
		}
		existing.Year = *req.Year
	}
	if req.Make != nil {
		existing.Make = strings.TrimSpace(*req.Make)
	}
	if req.Model != nil {
		existing.Model = strings.TrimSpace(*req.Model)
	}
	if req.Price != nil {
		existing.Price = *req.Price
	}
	if req.Mileage != nil {
		existing.Mileage = *req.Mileage
	}
	if req.Fuel != nil {
		existing.Fuel = *req.Fuel
	}
	if req.Transmission != nil {
		existing.Transmission = *req.Transmission
	}
	if req.Location != nil {
		existing.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.Color != nil {
		existing.Color = req.Color
	}
	if existing.Make == "" || existing.Model == "" || existing.Location == "" {
		return nil, common.ErrBadRequest.WithDetails("Make, model and location cannot be blank.")
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.indexCar(ctx, existing)
	return s.repo.FindByID(ctx, id, true)
}

// MarkCarSold flags a listing as sold. Sold listings drop out of search and
// browse results but remain visible to their seller and via direct link.
func (s *ServiceImplementation) MarkCarSold(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) (*Car, error) {
	existing, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != sellerID {
		return nil, common.ErrForbidden.WithDetails("You can only mark your own listings as sold.")
	}
	if existing.Sold {
		return nil, common.ErrConflict.WithDetails("This listing is already marked as sold.")
	}

	existing.Sold = true
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.indexCar(ctx, existing)

	msg := fmt.Sprintf("Your listing %d %s %s has been marked as sold.", existing.Year, existing.Make, existing.Model)
	if err := s.notificationService.CreateNotification(ctx, sellerID, notification.CarListingSold, msg, &existing.ID); err != nil {
		s.logger.Warn("Failed to send listing-sold notification", zap.Error(err), zap.String("carID", existing.ID.String()))
	}

	return s.repo.FindByID(ctx, id, true)
}

// SearchCars runs the search against Elasticsearch when available, falling
// back to the database on any failure so search never goes dark with ES down.
func (s *ServiceImplementation) SearchCars(ctx context.Context, query CarSearchQuery) ([]Car, *common.Pagination, error) {
	if s.esClient != nil {
		cars, pagination, err := s.searchWithElasticsearch(ctx, query)
		if err == nil {
			return cars, pagination, nil
		}
		s.logger.Warn("Elasticsearch search failed, falling back to database", zap.Error(err))
	}
	return s.repo.Search(ctx, query)
}

func (s *ServiceImplementation) searchWithElasticsearch(ctx context.Context, query CarSearchQuery) ([]Car, *common.Pagination, error) {
	payload, err := esutil.BuildSearchQuery(esutil.SearchParams{
		SearchTerm:   query.SearchTerm,
		Make:         query.Make,
		Fuel:         query.Fuel,
		Transmission: query.Transmission,
		Location:     query.Location,
		YearMin:      query.YearMin,
		YearMax:      query.YearMax,
		PriceMin:     query.PriceMin,
		PriceMax:     query.PriceMax,
		Featured:     query.Featured,
		IncludeSold:  query.IncludeSold,
		SortBy:       query.SortBy,
		SortOrder:    query.SortOrder,
		From:         query.Offset(),
		Size:         query.Limit(),
	})
	if err != nil {
		return nil, nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{elasticsearch.CarsIndexName},
		Body:  bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, s.esClient.Client)
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, nil, fmt.Errorf("elasticsearch search returned status %s", res.Status())
	}

	var parsed esutil.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode elasticsearch response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, parseErr := uuid.Parse(hit.ID)
		if parseErr != nil {
			s.logger.Warn("Skipping malformed document ID in search results", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}

	cars, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	ordered := reorderByIDs(cars, ids)

	pagination := common.NewPagination(parsed.Hits.Total.Value, query.Page, query.Limit())
	return ordered, pagination, nil
}

// CompareCars fetches up to MaxCompareIDs listings, preserving request order.
func (s *ServiceImplementation) CompareCars(ctx context.Context, ids []uuid.UUID) ([]Car, error) {
	if len(ids) == 0 {
		return nil, common.ErrBadRequest.WithDetails("At least one car ID is required.")
	}
	if len(ids) > MaxCompareIDs {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("At most %d cars can be compared.", MaxCompareIDs))
	}

	cars, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(cars) != len(dedupeIDs(ids)) {
		return nil, common.ErrNotFound.WithDetails("One or more of the requested cars no longer exist.")
	}
	return reorderByIDs(cars, ids), nil
}

// GetSellerCars returns a seller's own listings, sold ones included.
func (s *ServiceImplementation) GetSellerCars(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]Car, *common.Pagination, error) {
	return s.repo.FindBySellerID(ctx, sellerID, page, pageSize)
}

// GetRecentCars returns the newest unsold listings for the landing view.
func (s *ServiceImplementation) GetRecentCars(ctx context.Context, limit int) ([]Car, error) {
	if limit <= 0 || limit > common.MaxPageSize {
		limit = common.DefaultPageSize
	}
	return s.repo.FindRecent(ctx, limit)
}

// AddCarImages stores uploaded images for a listing owned by sellerID and
// appends their paths to the listing.
func (s *ServiceImplementation) AddCarImages(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, files []*multipart.FileHeader) (*Car, error) {
	if len(files) == 0 {
		return nil, common.ErrBadRequest.WithDetails("No image files provided.")
	}

	existing, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != sellerID {
		return nil, common.ErrForbidden.WithDetails("You can only add images to your own listings.")
	}
	if len(existing.Images)+len(files) > s.cfg.MaxImagesPerCar {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("A listing can have at most %d images.", s.cfg.MaxImagesPerCar))
	}

	saved := make([]string, 0, len(files))
	for _, fileHeader := range files {
		relativePath, saveErr := s.fileStorage.SaveUploadedFile(fileHeader, "cars")
		if saveErr != nil {
			// Roll back files already written for this request.
			for _, p := range saved {
				if delErr := s.fileStorage.DeleteFile(p); delErr != nil {
					s.logger.Warn("Failed to clean up image after upload failure", zap.String("path", p), zap.Error(delErr))
				}
			}
			return nil, common.ErrBadRequest.WithDetails(saveErr.Error())
		}
		saved = append(saved, relativePath)
	}

	existing.Images = append(existing.Images, saved...)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id, true)
}

// ToResponse converts a car to its API response with public image URLs.
func (s *ServiceImplementation) ToResponse(c *Car) CarResponse {
	return ToCarResponse(c, s.fileStorage.PublicURL)
}

// ToResponses converts a slice of cars to API responses.
func (s *ServiceImplementation) ToResponses(cars []Car) []CarResponse {
	return ToCarResponses(cars, s.fileStorage.PublicURL)
}

// indexCar writes the listing into the cars index. Indexing is best-effort;
// the periodic sync job repairs anything missed here.
func (s *ServiceImplementation) indexCar(ctx context.Context, c *Car) {
	if s.esClient == nil {
		return
	}

	body, err := ToDocument(c).Marshal()
	if err != nil {
		s.logger.Error("Failed to marshal car for indexing", zap.Error(err), zap.String("carID", c.ID.String()))
		return
	}

	req := esapi.IndexRequest{
		Index:      elasticsearch.CarsIndexName,
		DocumentID: c.ID.String(),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.esClient.Client)
	if err != nil {
		s.logger.Warn("Failed to index car listing", zap.Error(err), zap.String("carID", c.ID.String()))
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.logger.Warn("Car indexing returned an error",
			zap.String("status", res.Status()),
			zap.String("carID", c.ID.String()))
	}
}

// generateSlug builds a unique, URL-safe slug like "2021-toyota-corolla-1a2b3c4d".
func generateSlug(make, model string, year int) string {
	base := slug.Make(fmt.Sprintf("%d %s %s", year, make, model))
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return base + "-" + suffix
}

func reorderByIDs(cars []Car, ids []uuid.UUID) []Car {
	byID := make(map[uuid.UUID]*Car, len(cars))
	for i := range cars {
		byID[cars[i].ID] = &cars[i]
	}
	ordered := make([]Car, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := byID[id]; ok {
			ordered = append(ordered, *c)
		}
	}
	return ordered
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
