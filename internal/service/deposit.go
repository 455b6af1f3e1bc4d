package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrent/internal/domain"
	"carrent/internal/repository"
	"carrent/internal/repository/postgres"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, amount int64) (bool, error)
}

// MockPSP is a mock implementation of PSP for testing.
type MockPSP struct{}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a payment charge. Always succeeds.
func (p *MockPSP) Charge(ctx context.Context, amount int64) (bool, error) {
	return true, nil
}

// DepositService collects booking deposits.
type DepositService struct {
	db                  *sql.DB
	bookingRepo         repository.BookingRepository
	depositRepo         repository.DepositRepository
	psp                 PSP
	notificationService *NotificationService
	logger              *zap.Logger
}

// NewDepositService creates a new DepositService. When db is non-nil a
// successful charge and the stage change are committed together.
func NewDepositService(
	db *sql.DB,
	bookingRepo repository.BookingRepository,
	depositRepo repository.DepositRepository,
	psp PSP,
	notificationService *NotificationService,
	logger *zap.Logger,
) *DepositService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepositService{
		db:                  db,
		bookingRepo:         bookingRepo,
		depositRepo:         depositRepo,
		psp:                 psp,
		notificationService: notificationService,
		logger:              logger,
	}
}

// depositStages are the order stages a deposit may be paid in.
var depositStages = map[domain.OrderStage]bool{
	domain.OrderStageAwaitingContact: true,
	domain.OrderStageAwaitingDeposit: true,
}

// PayDeposit charges the deposit of a booking with idempotency support.
// A failed charge is returned with status failed and may be retried.
func (s *DepositService) PayDeposit(ctx context.Context, bookingID string) (*domain.Deposit, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	idempotencyKey := depositKey(bookingID)

	deposit, err := s.depositRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if deposit != nil && deposit.Status != domain.DepositStatusFailed {
		// Deposit already exists - return it (idempotent).
		return deposit, nil
	}

	if !depositStages[booking.OrderStage] {
		return nil, ErrDepositNotAllowed
	}

	amount := booking.Quote().Deposit
	if amount <= 0 {
		return nil, ErrInvalidDepositAmount
	}

	if deposit == nil {
		deposit = &domain.Deposit{
			ID:             uuid.New().String(),
			BookingID:      bookingID,
			Amount:         amount,
			Status:         domain.DepositStatusPending,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      time.Now(),
		}
		if err := s.depositRepo.Create(ctx, deposit); err != nil {
			return nil, err
		}
	}

	success, err := s.psp.Charge(ctx, deposit.Amount)
	if err != nil || !success {
		if err != nil {
			s.logger.Warn("deposit charge failed", zap.String("booking_id", bookingID), zap.Error(err))
		}
		if err := s.depositRepo.UpdateStatus(ctx, deposit.ID, domain.DepositStatusFailed); err != nil {
			return nil, err
		}
		deposit.Status = domain.DepositStatusFailed
		s.notify(ctx, booking, deposit)
		return deposit, nil
	}

	if err := s.settle(ctx, deposit.ID, bookingID); err != nil {
		return nil, err
	}
	deposit.Status = domain.DepositStatusSuccess
	s.notify(ctx, booking, deposit)

	return deposit, nil
}

// settle marks the deposit paid and advances the booking to handover.
func (s *DepositService) settle(ctx context.Context, depositID, bookingID string) error {
	if s.db == nil {
		if err := s.depositRepo.UpdateStatus(ctx, depositID, domain.DepositStatusSuccess); err != nil {
			return err
		}
		return s.bookingRepo.UpdateOrderStage(ctx, bookingID, domain.OrderStageAwaitingHandover)
	}

	return postgres.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := postgres.NewDepositRepositoryWithTx(tx).UpdateStatus(ctx, depositID, domain.DepositStatusSuccess); err != nil {
			return err
		}
		return postgres.NewBookingRepositoryWithTx(tx).UpdateOrderStage(ctx, bookingID, domain.OrderStageAwaitingHandover)
	})
}

func (s *DepositService) notify(ctx context.Context, booking *domain.Booking, deposit *domain.Deposit) {
	if s.notificationService == nil {
		return
	}
	var err error
	if deposit.Status == domain.DepositStatusSuccess {
		err = s.notificationService.NotifyDepositPaid(ctx, booking, deposit)
	} else {
		err = s.notificationService.NotifyDepositFailed(ctx, booking, deposit)
	}
	if err != nil {
		s.logger.Warn("deposit notification", zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

// GetDeposit retrieves a deposit by ID.
func (s *DepositService) GetDeposit(ctx context.Context, depositID string) (*domain.Deposit, error) {
	if depositID == "" {
		return nil, ErrInvalidDepositID
	}

	return s.depositRepo.GetByID(ctx, depositID)
}

// DepositForBooking returns the deposit of a booking, or nil if none was attempted.
func (s *DepositService) DepositForBooking(ctx context.Context, bookingID string) (*domain.Deposit, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	return s.depositRepo.GetByIdempotencyKey(ctx, depositKey(bookingID))
}

// depositKey is the idempotency key of the deposit of a booking.
func depositKey(bookingID string) string {
	return fmt.Sprintf("deposit:%s", bookingID)
}
