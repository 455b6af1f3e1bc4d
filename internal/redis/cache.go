package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"carrent/internal/domain"
)

// CacheStore handles read-through caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	AvailabilityCacheTTL = 30 * time.Second
	CarsCacheTTL         = 5 * time.Minute
	GeocodeCacheTTL      = 24 * time.Hour
	TileCacheTTL         = 10 * time.Minute
)

// Key prefixes
const (
	availabilityCachePrefix = "cache:availability:"
	availabilityVersionKey  = "cache:availability:version"
	carsCacheKey            = "cache:cars:active"
	geocodeCachePrefix      = "cache:geocode:"
	tileCachePrefix         = "cache:tile:"
)

// CachedAvailability is a cached availability answer.
type CachedAvailability struct {
	CarID       int64 `json:"car_id"`
	IsAvailable bool  `json:"is_available"`
}

// CachedCar is a cached catalog entry.
type CachedCar struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	PricePerDay     int64            `json:"price_per_day"`
	FuelType        string           `json:"fuel_type"`
	FuelConsumption string           `json:"fuel_consumption"`
	CarType         string           `json:"car_type"`
	SeatCapacity    int              `json:"seat_capacity"`
	EngineCC        int              `json:"engine_cc"`
	Horsepower      int              `json:"horsepower"`
	Images          []CachedCarImage `json:"images"`
}

// CachedCarImage is a cached car image.
type CachedCarImage struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// availabilityKey embeds the current version; bumping it orphans every
// range cached before it.
func (s *CacheStore) availabilityKey(ctx context.Context, start, end time.Time) (string, error) {
	version, err := s.client.Get(ctx, availabilityVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return availabilityCachePrefix + strconv.FormatInt(version, 10) + ":" +
		start.Format(domain.DateLayout) + ":" + end.Format(domain.DateLayout), nil
}

// GetAvailability retrieves the cached availability of a date range.
// Returns nil on a cache miss.
func (s *CacheStore) GetAvailability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error) {
	key, err := s.availabilityKey(ctx, start, end)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached []CachedAvailability
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	out := make([]domain.CarAvailability, 0, len(cached))
	for _, c := range cached {
		out = append(out, domain.CarAvailability{CarID: c.CarID, IsAvailable: c.IsAvailable})
	}
	return out, nil
}

// SetAvailability stores the availability of a date range.
func (s *CacheStore) SetAvailability(ctx context.Context, start, end time.Time, result []domain.CarAvailability) error {
	key, err := s.availabilityKey(ctx, start, end)
	if err != nil {
		return err
	}

	cached := make([]CachedAvailability, 0, len(result))
	for _, r := range result {
		cached = append(cached, CachedAvailability{CarID: r.CarID, IsAvailable: r.IsAvailable})
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, AvailabilityCacheTTL).Err()
}

// InvalidateAvailability drops every cached availability range.
func (s *CacheStore) InvalidateAvailability(ctx context.Context) error {
	return s.client.Incr(ctx, availabilityVersionKey).Err()
}

// GetCars retrieves the cached active catalog. Returns nil on a cache miss.
func (s *CacheStore) GetCars(ctx context.Context) ([]*domain.Car, error) {
	data, err := s.client.Get(ctx, carsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached []CachedCar
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	cars := make([]*domain.Car, 0, len(cached))
	for _, c := range cached {
		car := &domain.Car{
			ID:              c.ID,
			Name:            c.Name,
			PricePerDay:     c.PricePerDay,
			FuelType:        c.FuelType,
			FuelConsumption: c.FuelConsumption,
			CarType:         c.CarType,
			SeatCapacity:    c.SeatCapacity,
			EngineCC:        c.EngineCC,
			Horsepower:      c.Horsepower,
			IsActive:        true,
		}
		for _, img := range c.Images {
			car.Images = append(car.Images, domain.CarImage{ID: img.ID, CarID: c.ID, ImageURL: img.ImageURL, Caption: img.Caption})
		}
		cars = append(cars, car)
	}
	return cars, nil
}

// SetCars stores the active catalog.
func (s *CacheStore) SetCars(ctx context.Context, cars []*domain.Car) error {
	cached := make([]CachedCar, 0, len(cars))
	for _, car := range cars {
		c := CachedCar{
			ID:              car.ID,
			Name:            car.Name,
			PricePerDay:     car.PricePerDay,
			FuelType:        car.FuelType,
			FuelConsumption: car.FuelConsumption,
			CarType:         car.CarType,
			SeatCapacity:    car.SeatCapacity,
			EngineCC:        car.EngineCC,
			Horsepower:      car.Horsepower,
		}
		for _, img := range car.Images {
			c.Images = append(c.Images, CachedCarImage{ID: img.ID, ImageURL: img.ImageURL, Caption: img.Caption})
		}
		cached = append(cached, c)
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, carsCacheKey, data, CarsCacheTTL).Err()
}

// InvalidateCars removes the cached catalog.
func (s *CacheStore) InvalidateCars(ctx context.Context) error {
	return s.client.Del(ctx, carsCacheKey).Err()
}

// GetAddress retrieves a reverse-geocoded address.
func (s *CacheStore) GetAddress(ctx context.Context, key string) (string, bool, error) {
	addr, err := s.client.Get(ctx, geocodeCachePrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil // Cache miss
		}
		return "", false, err
	}
	return addr, true, nil
}

// SetAddress stores a reverse-geocoded address.
func (s *CacheStore) SetAddress(ctx context.Context, key, address string) error {
	return s.client.Set(ctx, geocodeCachePrefix+key, address, GeocodeCacheTTL).Err()
}

// CachedTile is a map tile image.
type CachedTile struct {
	ContentType string
	Data        []byte
}

func tileKey(z, x, y int) string {
	return tileCachePrefix + strconv.Itoa(z) + ":" + strconv.Itoa(x) + ":" + strconv.Itoa(y)
}

// GetTile retrieves a cached tile. Returns nil on a cache miss.
func (s *CacheStore) GetTile(ctx context.Context, z, x, y int) (*CachedTile, error) {
	fields, err := s.client.HGetAll(ctx, tileKey(z, x, y)).Result()
	if err != nil {
		return nil, err
	}
	data, ok := fields["data"]
	if !ok {
		return nil, nil // Cache miss
	}
	return &CachedTile{ContentType: fields["content_type"], Data: []byte(data)}, nil
}

// SetTile stores a tile and its content type with one round trip.
func (s *CacheStore) SetTile(ctx context.Context, z, x, y int, tile *CachedTile) error {
	key := tileKey(z, x, y)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "content_type", tile.ContentType, "data", tile.Data)
		pipe.Expire(ctx, key, TileCacheTTL)
		return nil
	})
	return err
}
