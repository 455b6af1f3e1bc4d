package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrent/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func day(s string) time.Time {
	d, _ := domain.ParseDate(s)
	return d
}

func TestCacheStore_Availability(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	store := NewCacheStore(client)

	start, end := day("2026-02-01"), day("2026-02-03")

	got, err := store.GetAvailability(ctx, start, end)
	require.NoError(t, err)
	assert.Nil(t, got, "expected cache miss")

	want := []domain.CarAvailability{{CarID: 1, IsAvailable: true}, {CarID: 7, IsAvailable: false}}
	require.NoError(t, store.SetAvailability(ctx, start, end, want))

	got, err = store.GetAvailability(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := store.GetAvailability(ctx, start, day("2026-02-04"))
	require.NoError(t, err)
	assert.Nil(t, other, "different range must miss")

	mr.FastForward(AvailabilityCacheTTL + time.Second)
	got, err = store.GetAvailability(ctx, start, end)
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry must miss")
}

func TestCacheStore_InvalidateAvailability(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	store := NewCacheStore(client)

	start, end := day("2026-02-01"), day("2026-02-03")
	require.NoError(t, store.SetAvailability(ctx, start, end, []domain.CarAvailability{{CarID: 1, IsAvailable: true}}))
	require.NoError(t, store.InvalidateAvailability(ctx))

	got, err := store.GetAvailability(ctx, start, end)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Entries written after the bump are visible again.
	require.NoError(t, store.SetAvailability(ctx, start, end, []domain.CarAvailability{{CarID: 1, IsAvailable: false}}))
	got, err = store.GetAvailability(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsAvailable)
}

func TestCacheStore_Cars(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	store := NewCacheStore(client)

	cars := []*domain.Car{{
		ID:          3,
		Name:        "Honda City",
		PricePerDay: 1200,
		FuelType:    "petrol",
		CarType:     "sedan",
		IsActive:    true,
		Images:      []domain.CarImage{{ID: 9, CarID: 3, ImageURL: "/media/city.jpg"}},
	}}
	require.NoError(t, store.SetCars(ctx, cars))

	got, err := store.GetCars(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Honda City", got[0].Name)
	assert.Equal(t, int64(1200), got[0].PricePerDay)
	require.Len(t, got[0].Images, 1)
	assert.Equal(t, int64(3), got[0].Images[0].CarID)

	require.NoError(t, store.InvalidateCars(ctx))
	got, err = store.GetCars(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheStore_Address(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	store := NewCacheStore(client)

	_, ok, err := store.GetAddress(ctx, "13.74660,100.53930")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetAddress(ctx, "13.74660,100.53930", "Pathum Wan, Bangkok"))
	addr, ok, err := store.GetAddress(ctx, "13.74660,100.53930")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Pathum Wan, Bangkok", addr)

	ttl := mr.TTL(geocodeCachePrefix + "13.74660,100.53930")
	assert.Equal(t, GeocodeCacheTTL, ttl)
}

func TestCacheStore_Tile(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	store := NewCacheStore(client)

	got, err := store.GetTile(ctx, 5, 24, 15)
	require.NoError(t, err)
	assert.Nil(t, got)

	tile := &CachedTile{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	require.NoError(t, store.SetTile(ctx, 5, 24, 15, tile))

	got, err = store.GetTile(ctx, 5, 24, 15)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tile, got)
	assert.Equal(t, TileCacheTTL, mr.TTL("cache:tile:5:24:15"))
}
