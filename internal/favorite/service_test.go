package favorite

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockFavoriteRepository is a mock type for favorite.Repository
type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) Exists(ctx context.Context, userID, carID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, carID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) Insert(ctx context.Context, favorite *Favorite) error {
	args := m.Called(ctx, favorite)
	return args.Error(0)
}

func (m *MockFavoriteRepository) Delete(ctx context.Context, userID, carID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, carID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFavoriteRepository) ListCarIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockFavoriteRepository) ListWithCars(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Favorite, *common.Pagination, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Favorite), args.Get(1).(*common.Pagination), args.Error(2)
}

// MockCarService is a mock type for car.Service
type MockCarService struct {
	mock.Mock
}

func (m *MockCarService) CreateCar(ctx context.Context, sellerID uuid.UUID, req car.CreateCarRequest) (*car.Car, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) GetCarByID(ctx context.Context, id uuid.UUID) (*car.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) GetCarBySlug(ctx context.Context, slug string) (*car.Car, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) UpdateCar(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, req car.UpdateCarRequest) (*car.Car, error) {
	args := m.Called(ctx, id, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) MarkCarSold(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) (*car.Car, error) {
	args := m.Called(ctx, id, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) SearchCars(ctx context.Context, query car.CarSearchQuery) ([]car.Car, *common.Pagination, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]car.Car), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockCarService) CompareCars(ctx context.Context, ids []uuid.UUID) ([]car.Car, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]car.Car), args.Error(1)
}

func (m *MockCarService) GetSellerCars(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]car.Car, *common.Pagination, error) {
	args := m.Called(ctx, sellerID, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]car.Car), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockCarService) GetRecentCars(ctx context.Context, limit int) ([]car.Car, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]car.Car), args.Error(1)
}

func (m *MockCarService) AddCarImages(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, files []*multipart.FileHeader) (*car.Car, error) {
	args := m.Called(ctx, id, sellerID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) ToResponse(c *car.Car) car.CarResponse {
	args := m.Called(c)
	return args.Get(0).(car.CarResponse)
}

func (m *MockCarService) ToResponses(cars []car.Car) []car.CarResponse {
	args := m.Called(cars)
	return args.Get(0).([]car.CarResponse)
}

// fakeFavoriteRepo is an in-memory Repository used by the concurrency test.
// It is intentionally unsynchronized: the service's per-pair lock is what
// keeps concurrent toggles from corrupting it.
type fakeFavoriteRepo struct {
	pairs map[string]bool
}

func (f *fakeFavoriteRepo) key(userID, carID uuid.UUID) string {
	return userID.String() + ":" + carID.String()
}

func (f *fakeFavoriteRepo) Exists(_ context.Context, userID, carID uuid.UUID) (bool, error) {
	return f.pairs[f.key(userID, carID)], nil
}

func (f *fakeFavoriteRepo) Insert(_ context.Context, favorite *Favorite) error {
	k := f.key(favorite.UserID, favorite.CarID)
	if f.pairs[k] {
		return common.ErrConflict.WithDetails("This car is already in your favorites.")
	}
	f.pairs[k] = true
	return nil
}

func (f *fakeFavoriteRepo) Delete(_ context.Context, userID, carID uuid.UUID) (int64, error) {
	k := f.key(userID, carID)
	if !f.pairs[k] {
		return 0, nil
	}
	delete(f.pairs, k)
	return 1, nil
}

func (f *fakeFavoriteRepo) ListCarIDsByUser(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeFavoriteRepo) ListWithCars(_ context.Context, _ uuid.UUID, _, _ int) ([]Favorite, *common.Pagination, error) {
	return nil, nil, nil
}

// --- Test Cases ---

func TestService_Toggle_AddsWhenAbsent(t *testing.T) {
	mockRepo := new(MockFavoriteRepository)
	mockCarService := new(MockCarService)
	svc := NewService(mockRepo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()

	mockCarService.On("GetCarByID", ctx, carID).Return(&car.Car{BaseModel: common.BaseModel{ID: carID}}, nil)
	mockRepo.On("Exists", ctx, userID, carID).Return(false, nil)
	mockRepo.On("Insert", ctx, mock.MatchedBy(func(f *Favorite) bool {
		return f.UserID == userID && f.CarID == carID
	})).Return(nil)

	result, err := svc.Toggle(ctx, userID, carID)

	assert.NoError(t, err)
	assert.True(t, result.Favorited)
	assert.Equal(t, "Added to favorites", result.Message)
	mockRepo.AssertExpectations(t)
}

func TestService_Toggle_RemovesWhenPresent(t *testing.T) {
	mockRepo := new(MockFavoriteRepository)
	mockCarService := new(MockCarService)
	svc := NewService(mockRepo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()

	mockCarService.On("GetCarByID", ctx, carID).Return(&car.Car{BaseModel: common.BaseModel{ID: carID}}, nil)
	mockRepo.On("Exists", ctx, userID, carID).Return(true, nil)
	mockRepo.On("Delete", ctx, userID, carID).Return(int64(1), nil)

	result, err := svc.Toggle(ctx, userID, carID)

	assert.NoError(t, err)
	assert.False(t, result.Favorited)
	assert.Equal(t, "Removed from favorites", result.Message)
	mockRepo.AssertExpectations(t)
}

func TestService_Toggle_CarNotFound(t *testing.T) {
	mockRepo := new(MockFavoriteRepository)
	mockCarService := new(MockCarService)
	svc := NewService(mockRepo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()

	mockCarService.On("GetCarByID", ctx, carID).Return(nil, common.ErrNotFound.WithDetails("Car listing not found."))

	result, err := svc.Toggle(ctx, userID, carID)

	assert.Error(t, err)
	assert.Nil(t, result)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	mockRepo.AssertNotCalled(t, "Exists")
	mockRepo.AssertNotCalled(t, "Insert")
}

func TestService_Toggle_InsertRaceTreatedAsFavorited(t *testing.T) {
	mockRepo := new(MockFavoriteRepository)
	mockCarService := new(MockCarService)
	svc := NewService(mockRepo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()

	mockCarService.On("GetCarByID", ctx, carID).Return(&car.Car{BaseModel: common.BaseModel{ID: carID}}, nil)
	mockRepo.On("Exists", ctx, userID, carID).Return(false, nil)
	mockRepo.On("Insert", ctx, mock.AnythingOfType("*favorite.Favorite")).
		Return(common.ErrConflict.WithDetails("This car is already in your favorites."))

	result, err := svc.Toggle(ctx, userID, carID)

	assert.NoError(t, err)
	assert.True(t, result.Favorited)
	assert.Equal(t, "Added to favorites", result.Message)
}

func TestService_Toggle_FailureLeavesStateUntouched(t *testing.T) {
	mockRepo := new(MockFavoriteRepository)
	mockCarService := new(MockCarService)
	svc := NewService(mockRepo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()

	mockCarService.On("GetCarByID", ctx, carID).Return(&car.Car{BaseModel: common.BaseModel{ID: carID}}, nil)
	mockRepo.On("Exists", ctx, userID, carID).Return(false, nil)
	mockRepo.On("Insert", ctx, mock.AnythingOfType("*favorite.Favorite")).
		Return(common.ErrInternalServer.WithDetails("db down"))

	result, err := svc.Toggle(ctx, userID, carID)

	assert.Error(t, err)
	assert.Nil(t, result)
	mockRepo.AssertNotCalled(t, "Delete")
}

// Two sequential toggles must restore the starting state.
func TestService_Toggle_TwiceRestoresState(t *testing.T) {
	repo := &fakeFavoriteRepo{pairs: make(map[string]bool)}
	mockCarService := new(MockCarService)
	svc := NewService(repo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()
	mockCarService.On("GetCarByID", ctx, carID).Return(&car.Car{BaseModel: common.BaseModel{ID: carID}}, nil)

	first, err := svc.Toggle(ctx, userID, carID)
	assert.NoError(t, err)
	assert.True(t, first.Favorited)

	second, err := svc.Toggle(ctx, userID, carID)
	assert.NoError(t, err)
	assert.False(t, second.Favorited)

	exists, err := repo.Exists(ctx, userID, carID)
	assert.NoError(t, err)
	assert.False(t, exists)
}

// Concurrent toggles for the same pair are serialized: each one observes the
// previous result, so an even number of toggles lands back where it started
// and adds and removes strictly alternate.
func TestService_Toggle_ConcurrentTogglesSerialized(t *testing.T) {
	repo := &fakeFavoriteRepo{pairs: make(map[string]bool)}
	mockCarService := new(MockCarService)
	svc := NewService(repo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID, carID := uuid.New(), uuid.New()
	mockCarService.On("GetCarByID", ctx, carID).Return(&car.Car{BaseModel: common.BaseModel{ID: carID}}, nil)

	const toggles = 10
	results := make([]*ToggleResult, toggles)

	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Toggle(ctx, userID, carID)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	var added, removed int
	for _, r := range results {
		if r.Favorited {
			added++
		} else {
			removed++
		}
	}
	assert.Equal(t, toggles/2, added)
	assert.Equal(t, toggles/2, removed)

	exists, err := repo.Exists(ctx, userID, carID)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestService_GetFavorites_SkipsMissingCars(t *testing.T) {
	mockRepo := new(MockFavoriteRepository)
	mockCarService := new(MockCarService)
	svc := NewService(mockRepo, mockCarService, zap.NewNop())

	ctx := context.Background()
	userID := uuid.New()
	presentCar := &car.Car{BaseModel: common.BaseModel{ID: uuid.New()}, Make: "Skoda", Model: "Octavia"}

	favorites := []Favorite{
		{ID: uuid.New(), UserID: userID, CarID: presentCar.ID, Car: presentCar},
		{ID: uuid.New(), UserID: userID, CarID: uuid.New(), Car: nil},
	}
	pagination := &common.Pagination{CurrentPage: 1, PageSize: 10, TotalItems: 2, TotalPages: 1}

	mockRepo.On("ListWithCars", ctx, userID, 1, 10).Return(favorites, pagination, nil)
	mockCarService.On("ToResponse", presentCar).Return(car.CarResponse{ID: presentCar.ID, Make: "Skoda", Model: "Octavia"})

	responses, _, err := svc.GetFavorites(ctx, userID, 1, 10)

	assert.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Equal(t, presentCar.ID, responses[0].Car.ID)
}
