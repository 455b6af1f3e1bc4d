package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carrent/internal/domain"
	"carrent/internal/redis"
	"carrent/internal/repository"
	"carrent/internal/wizard"
)

// CarService answers catalog and availability queries.
type CarService struct {
	carRepo     repository.CarRepository
	bookingRepo repository.BookingRepository
	cache       redis.AvailabilityCacheInterface
	carCache    redis.CarCacheInterface
	logger      *zap.Logger
}

// NewCarService creates a new CarService. Either cache may be nil.
func NewCarService(
	carRepo repository.CarRepository,
	bookingRepo repository.BookingRepository,
	cache redis.AvailabilityCacheInterface,
	carCache redis.CarCacheInterface,
	logger *zap.Logger,
) *CarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarService{
		carRepo:     carRepo,
		bookingRepo: bookingRepo,
		cache:       cache,
		carCache:    carCache,
		logger:      logger,
	}
}

// ActiveCars returns the active catalog, read through the car cache.
func (s *CarService) ActiveCars(ctx context.Context) ([]*domain.Car, error) {
	if s.carCache != nil {
		cars, err := s.carCache.GetCars(ctx)
		if err != nil {
			s.logger.Warn("car cache read failed", zap.Error(err))
		} else if cars != nil {
			return cars, nil
		}
	}

	cars, err := s.carRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if s.carCache != nil {
		if err := s.carCache.SetCars(ctx, cars); err != nil {
			s.logger.Warn("car cache write failed", zap.Error(err))
		}
	}
	return cars, nil
}

// ListCars returns the active cars matching filter.
func (s *CarService) ListCars(ctx context.Context, filter domain.CarFilter) ([]*domain.Car, error) {
	cars, err := s.ActiveCars(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterCars(cars, filter), nil
}

// Availability reports, for every active car, whether no approved booking
// overlaps the inclusive range [start, end].
func (s *CarService) Availability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrInvalidDateRange
	}
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	if s.cache != nil {
		cached, err := s.cache.GetAvailability(ctx, start, end)
		if err != nil {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	cars, err := s.ActiveCars(ctx)
	if err != nil {
		return nil, err
	}

	booked, err := s.bookingRepo.BookedCarIDs(ctx, start, end)
	if err != nil {
		return nil, err
	}

	result := make([]domain.CarAvailability, 0, len(cars))
	for _, car := range cars {
		result = append(result, domain.CarAvailability{
			CarID:       car.ID,
			IsAvailable: !booked[car.ID],
		})
	}

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, start, end, result); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

// Ensure CarService can back the wizard.
var _ wizard.AvailabilityFetcher = (*CarService)(nil)
