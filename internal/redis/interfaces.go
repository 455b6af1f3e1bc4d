package redis

import (
	"context"
	"time"

	"carrent/internal/domain"
	"carrent/internal/maps"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireCarLock(ctx context.Context, carID int64, ttl time.Duration) (token string, ok bool, err error)
	ReleaseCarLock(ctx context.Context, carID int64, token string) error
}

// AvailabilityCacheInterface caches availability answers per date range.
type AvailabilityCacheInterface interface {
	GetAvailability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error)
	SetAvailability(ctx context.Context, start, end time.Time, result []domain.CarAvailability) error
	InvalidateAvailability(ctx context.Context) error
}

// CarCacheInterface caches the active catalog.
type CarCacheInterface interface {
	GetCars(ctx context.Context) ([]*domain.Car, error)
	SetCars(ctx context.Context, cars []*domain.Car) error
}

// TileCacheInterface caches map tiles.
type TileCacheInterface interface {
	GetTile(ctx context.Context, z, x, y int) (*CachedTile, error)
	SetTile(ctx context.Context, z, x, y int, tile *CachedTile) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface         = (*LockStore)(nil)
	_ AvailabilityCacheInterface = (*CacheStore)(nil)
	_ CarCacheInterface          = (*CacheStore)(nil)
	_ TileCacheInterface         = (*CacheStore)(nil)
	_ maps.AddressCache          = (*CacheStore)(nil)
)
