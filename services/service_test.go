package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/binify/binify/cache"
	"github.com/binify/binify/hashpool"
	"github.com/binify/binify/models"
	"github.com/binify/binify/storage"
)

// newTestDB initializes an in-memory SQLite (modernc.org/sqlite) for service tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Bin{}, &models.View{}, &models.Like{}, &models.Comment{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

type testEnv struct {
	db         *gorm.DB
	blobs      *storage.MemoryStore
	poolStore  *hashpool.MemoryStore
	pool       *hashpool.Pool
	cacheStore *cache.MemoryStore
	binCache   *cache.BinCache
	bins       *BinService
	views      *InteractionService
	search     *SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop().Sugar()
	db := newTestDB(t)

	blobs := storage.NewMemoryStore("")
	poolStore := hashpool.NewMemoryStore()
	pool := hashpool.New(poolStore, hashpool.Config{}, log)
	cacheStore := cache.NewMemoryStore()
	binCache := cache.New(cacheStore, 0, 0, log)

	bins := NewBinService(db, blobs, pool, binCache, log)
	return &testEnv{
		db:         db,
		blobs:      blobs,
		poolStore:  poolStore,
		pool:       pool,
		cacheStore: cacheStore,
		binCache:   binCache,
		bins:       bins,
		views:      NewInteractionService(db, binCache, log),
		search:     NewSearchService(db),
	}
}

// fillPool runs one replenish round so allocations succeed.
func (e *testEnv) fillPool(t *testing.T) {
	t.Helper()
	if err := e.pool.Replenish(context.Background()); err != nil {
		t.Fatalf("failed to replenish pool: %v", err)
	}
}

func (e *testEnv) newUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) createBin(t *testing.T, user *models.User, in CreateBinInput) *models.Bin {
	t.Helper()
	bin, err := e.bins.Create(context.Background(), user, in)
	if err != nil {
		t.Fatalf("failed to create bin: %v", err)
	}
	return bin
}

// failingBlobStore wraps a working store but refuses deletes.
type failingBlobStore struct {
	*storage.MemoryStore
}

func (f *failingBlobStore) Delete(ctx context.Context, key string) error {
	return errors.New("blob backend unavailable")
}
