package favorite

import (
	"context"
	"fmt"
	"testing"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupFavoriteRepoTest(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()

	// A named shared-cache database keeps all pooled connections on the same
	// in-memory store while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory sqlite database")

	require.NoError(t, db.AutoMigrate(&user.User{}, &car.Car{}, &Favorite{}), "Failed to migrate schema")

	return NewGORMRepository(db), db
}

func seedUser(t *testing.T, db *gorm.DB) *user.User {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", uuid.NewString()[:8])
	u := &user.User{Email: &email, AuthProvider: "email", Role: "user"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCar(t *testing.T, db *gorm.DB, sellerID uuid.UUID) *car.Car {
	t.Helper()
	c := &car.Car{
		SellerID:     sellerID,
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2020,
		Price:        14000,
		Fuel:         car.FuelPetrol,
		Transmission: car.TransmissionManual,
		Location:     "Munich",
		Slug:         "2020-toyota-corolla-" + uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestFavoriteRepository_InsertAndExists(t *testing.T) {
	repo, db := setupFavoriteRepoTest(t)
	ctx := context.Background()

	owner := seedUser(t, db)
	buyer := seedUser(t, db)
	listing := seedCar(t, db, owner.ID)

	exists, err := repo.Exists(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: buyer.ID, CarID: listing.ID}))

	exists, err = repo.Exists(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFavoriteRepository_InsertDuplicateConflicts(t *testing.T) {
	repo, db := setupFavoriteRepoTest(t)
	ctx := context.Background()

	owner := seedUser(t, db)
	buyer := seedUser(t, db)
	listing := seedCar(t, db, owner.ID)

	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: buyer.ID, CarID: listing.ID}))
	err := repo.Insert(ctx, &Favorite{UserID: buyer.ID, CarID: listing.ID})
	assert.Error(t, err)
}

func TestFavoriteRepository_DeleteReportsRows(t *testing.T) {
	repo, db := setupFavoriteRepoTest(t)
	ctx := context.Background()

	owner := seedUser(t, db)
	buyer := seedUser(t, db)
	listing := seedCar(t, db, owner.ID)

	rows, err := repo.Delete(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: buyer.ID, CarID: listing.ID}))

	rows, err = repo.Delete(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	exists, err := repo.Exists(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFavoriteRepository_ListIsPerUser(t *testing.T) {
	repo, db := setupFavoriteRepoTest(t)
	ctx := context.Background()

	owner := seedUser(t, db)
	alice := seedUser(t, db)
	bob := seedUser(t, db)
	carA := seedCar(t, db, owner.ID)
	carB := seedCar(t, db, owner.ID)

	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: alice.ID, CarID: carA.ID}))
	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: alice.ID, CarID: carB.ID}))
	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: bob.ID, CarID: carA.ID}))

	aliceIDs, err := repo.ListCarIDsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, aliceIDs, 2)

	bobIDs, err := repo.ListCarIDsByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobIDs, 1)
	assert.Equal(t, carA.ID, bobIDs[0])
}

func TestFavoriteRepository_ListWithCarsPreloadsCar(t *testing.T) {
	repo, db := setupFavoriteRepoTest(t)
	ctx := context.Background()

	owner := seedUser(t, db)
	buyer := seedUser(t, db)
	listing := seedCar(t, db, owner.ID)

	require.NoError(t, repo.Insert(ctx, &Favorite{UserID: buyer.ID, CarID: listing.ID}))

	favorites, pagination, err := repo.ListWithCars(ctx, buyer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, int64(1), pagination.TotalItems)
	require.NotNil(t, favorites[0].Car)
	assert.Equal(t, "Toyota", favorites[0].Car.Make)
	require.NotNil(t, favorites[0].Car.Seller)
	assert.Equal(t, owner.ID, favorites[0].Car.Seller.ID)
}
