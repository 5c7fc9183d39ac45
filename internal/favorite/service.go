// File: internal/favorite/service.go
package favorite

import (
	"context"
	"sync"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgAdded   = "Added to favorites"
	msgRemoved = "Removed from favorites"
)

// Service defines the interface for favorite business logic.
type Service interface {
	Toggle(ctx context.Context, userID, carID uuid.UUID) (*ToggleResult, error)
	GetFavoriteCarIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetFavorites(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]FavoriteResponse, *common.Pagination, error)
}

// toggleLock is a refcounted mutex held while one toggle for a
// (user, car) pair is in flight.
type toggleLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and reclaims it once no goroutine
// holds or waits on it. Unlike request deduplication, every caller still runs
// its own toggle; they are just serialized, so two rapid clicks flip the
// state twice rather than being collapsed into one flip.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*toggleLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*toggleLock)}
}

func (k *keyedMutex) lock(key string) *toggleLock {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &toggleLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return l
}

func (k *keyedMutex) unlock(key string, l *toggleLock) {
	l.mu.Unlock()

	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

type serviceImpl struct {
	repo       Repository
	carService car.Service
	toggles    *keyedMutex
	logger     *zap.Logger
}

// NewService creates a new favorite service.
func NewService(repo Repository, carService car.Service, logger *zap.Logger) Service {
	return &serviceImpl{
		repo:       repo,
		carService: carService,
		toggles:    newKeyedMutex(),
		logger:     logger,
	}
}

// Toggle flips the favorite state for (userID, carID). The current state is
// read first and the opposite action applied; concurrent toggles for the same
// pair are serialized so each one observes the previous one's result. On any
// failure the stored state is left as it was.
func (s *serviceImpl) Toggle(ctx context.Context, userID, carID uuid.UUID) (*ToggleResult, error) {
	if _, err := s.carService.GetCarByID(ctx, carID); err != nil {
		return nil, err
	}

	key := userID.String() + ":" + carID.String()
	l := s.toggles.lock(key)
	defer s.toggles.unlock(key, l)

	favorited, err := s.repo.Exists(ctx, userID, carID)
	if err != nil {
		return nil, err
	}

	if favorited {
		rows, err := s.repo.Delete(ctx, userID, carID)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			// Row vanished between the read and the delete, e.g. removed in
			// another session. The end state is what the user asked for.
			s.logger.Debug("Favorite already removed", zap.String("userID", userID.String()), zap.String("carID", carID.String()))
		}
		return &ToggleResult{CarID: carID, Favorited: false, Message: msgRemoved}, nil
	}

	if err := s.repo.Insert(ctx, &Favorite{UserID: userID, CarID: carID}); err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.Code == common.ErrConflict.Code {
			// Same reasoning as the delete race: the pair is favorited now.
			return &ToggleResult{CarID: carID, Favorited: true, Message: msgAdded}, nil
		}
		return nil, err
	}
	return &ToggleResult{CarID: carID, Favorited: true, Message: msgAdded}, nil
}

// GetFavoriteCarIDs returns the IDs of all cars the user has favorited.
func (s *serviceImpl) GetFavoriteCarIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListCarIDsByUser(ctx, userID)
}

// GetFavorites returns the user's saved cars, newest favorite first.
func (s *serviceImpl) GetFavorites(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]FavoriteResponse, *common.Pagination, error) {
	favorites, pagination, err := s.repo.ListWithCars(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]FavoriteResponse, 0, len(favorites))
	for i := range favorites {
		if favorites[i].Car == nil {
			// The car was deleted under the favorite; skip rather than fail
			// the whole page.
			s.logger.Warn("Favorite references missing car",
				zap.String("userID", userID.String()),
				zap.String("carID", favorites[i].CarID.String()))
			continue
		}
		responses = append(responses, FavoriteResponse{
			Car:         s.carService.ToResponse(favorites[i].Car),
			FavoritedAt: favorites[i].CreatedAt,
		})
	}
	return responses, pagination, nil
}
