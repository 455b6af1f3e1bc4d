package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrent/internal/domain"
	"carrent/internal/redis"
	"carrent/internal/repository"
	"carrent/internal/repository/postgres"
	"carrent/internal/wizard"
)

// bookingLockTTL bounds how long a crashed request can block a car.
const bookingLockTTL = 10 * time.Second

// BookingService handles booking creation and lookup.
type BookingService struct {
	db                  *sql.DB
	carRepo             repository.CarRepository
	bookingRepo         repository.BookingRepository
	locks               redis.LockStoreInterface
	cache               redis.AvailabilityCacheInterface
	notificationService *NotificationService
	logger              *zap.Logger
	now                 func() time.Time
	loc                 *time.Location
}

// NewBookingService creates a new BookingService. When db is non-nil the
// overlap check and insert run in one transaction; locks, cache and
// notificationService may be nil.
func NewBookingService(
	db *sql.DB,
	carRepo repository.CarRepository,
	bookingRepo repository.BookingRepository,
	locks redis.LockStoreInterface,
	cache redis.AvailabilityCacheInterface,
	notificationService *NotificationService,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		db:                  db,
		carRepo:             carRepo,
		bookingRepo:         bookingRepo,
		locks:               locks,
		cache:               cache,
		notificationService: notificationService,
		logger:              logger,
		now:                 time.Now,
		loc:                 time.Local,
	}
}

// WithClock sets the clock and the time zone "today" is evaluated in.
func (s *BookingService) WithClock(now func() time.Time, loc *time.Location) *BookingService {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
	return s
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	CarID               int64
	StartDate           time.Time
	EndDate             time.Time
	CurrentProvince     string
	DestinationProvince string
	PickupType          domain.PickupType
	Delivery            *domain.LatLng // required for delivery, ignored for self
	DeliveryAddress     string
	ContactNumber       string
}

// Create validates req, checks the car is free and stores a pending booking.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:                  uuid.New().String(),
		CarID:               req.CarID,
		StartDate:           domain.DateOnly(req.StartDate),
		EndDate:             domain.DateOnly(req.EndDate),
		CurrentProvince:     strings.TrimSpace(req.CurrentProvince),
		DestinationProvince: strings.TrimSpace(req.DestinationProvince),
		PickupType:          req.PickupType,
		ContactNumber:       req.ContactNumber,
		Status:              domain.BookingStatusPending,
		OrderStage:          domain.OrderStageAwaitingContact,
		CreatedAt:           s.now(),
	}
	if req.PickupType == domain.PickupDelivery {
		p := *req.Delivery
		booking.Delivery = &p
		booking.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	}

	// Serialise concurrent bookings of the same car.
	if s.locks != nil {
		token, acquired, err := s.locks.AcquireCarLock(ctx, req.CarID, bookingLockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrBookingLocked
		}
		defer func() {
			// Released even when the caller has gone away.
			if err := s.locks.ReleaseCarLock(context.WithoutCancel(ctx), req.CarID, token); err != nil {
				s.logger.Warn("release car lock", zap.Int64("car_id", req.CarID), zap.Error(err))
			}
		}()
	}

	if s.db != nil {
		if err := s.createInTx(ctx, booking); err != nil {
			return nil, err
		}
	} else if err := s.create(ctx, s.carRepo, s.bookingRepo, booking); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAvailability(ctx); err != nil {
			s.logger.Warn("invalidate availability cache", zap.Error(err))
		}
	}

	if s.notificationService != nil {
		if err := s.notificationService.NotifyBookingCreated(ctx, booking); err != nil {
			s.logger.Warn("notify booking created", zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.Int64("car_id", booking.CarID),
		zap.String("pickup_type", string(booking.PickupType)),
		zap.Int64("total_price", booking.TotalPrice),
	)

	return booking, nil
}

func (s *BookingService) createInTx(ctx context.Context, booking *domain.Booking) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	txCarRepo := postgres.NewCarRepositoryWithTx(tx)
	txBookingRepo := postgres.NewBookingRepositoryWithTx(tx)

	if err = s.create(ctx, txCarRepo, txBookingRepo, booking); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *BookingService) create(
	ctx context.Context,
	carRepo repository.CarRepository,
	bookingRepo repository.BookingRepository,
	booking *domain.Booking,
) error {
	car, err := carRepo.GetByID(ctx, booking.CarID)
	if err != nil {
		return err
	}
	if !car.IsActive {
		return ErrCarInactive
	}

	taken, err := bookingRepo.HasApprovedOverlap(ctx, car.ID, booking.StartDate, booking.EndDate)
	if err != nil {
		return err
	}
	if taken {
		return ErrCarUnavailable
	}

	booking.CarName = car.Name
	booking.TotalPrice = domain.NewQuote(car.PricePerDay, booking.StartDate, booking.EndDate).Total

	return bookingRepo.Create(ctx, booking)
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	return s.bookingRepo.GetByID(ctx, bookingID)
}

// SubmitBooking stores a completed wizard draft and returns the booking ID.
func (s *BookingService) SubmitBooking(ctx context.Context, sub wizard.Submission) (string, error) {
	booking, err := s.Create(ctx, CreateBookingRequest{
		CarID:               sub.CarID,
		StartDate:           sub.StartDate,
		EndDate:             sub.EndDate,
		CurrentProvince:     sub.CurrentProvince,
		DestinationProvince: sub.DestinationProvince,
		PickupType:          sub.PickupType,
		Delivery:            sub.Delivery,
		DeliveryAddress:     sub.DeliveryAddress,
		ContactNumber:       sub.ContactNumber,
	})
	if err != nil {
		return "", err
	}
	return booking.ID, nil
}

// validateCreateRequest validates the create booking request.
func (s *BookingService) validateCreateRequest(req CreateBookingRequest) error {
	if req.CarID <= 0 {
		return ErrInvalidCarID
	}

	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return ErrInvalidDateRange
	}

	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	if !start.After(domain.DateOnly(s.now().In(s.loc))) {
		return ErrStartNotInFuture
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}

	if strings.TrimSpace(req.CurrentProvince) == "" || strings.TrimSpace(req.DestinationProvince) == "" {
		return ErrMissingProvince
	}

	if !req.PickupType.Valid() {
		return ErrInvalidPickupType
	}

	if req.PickupType == domain.PickupDelivery {
		if req.Delivery == nil {
			return ErrMissingDeliveryLocation
		}
		if !req.Delivery.Valid() {
			return ErrInvalidLocation
		}
	}

	if !wizard.ValidContactNumber(req.ContactNumber) {
		return ErrInvalidContactNumber
	}

	return nil
}

// Ensure BookingService can back the wizard.
var _ wizard.Submitter = (*BookingService)(nil)
