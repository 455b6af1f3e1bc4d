package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrent/internal/domain"
	"carrent/internal/repository"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated NotificationType = "BOOKING_CREATED"
	NotificationDepositPaid    NotificationType = "DEPOSIT_PAID"
	NotificationDepositFailed  NotificationType = "DEPOSIT_FAILED"
)

// NotificationService records customer notifications.
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService. When repo is
// nil notifications are only logged.
func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// NotifyBookingCreated tells the customer their request was received.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *domain.Booking) error {
	q := booking.Quote()
	return s.send(ctx, &domain.Notification{
		BookingID: booking.ID,
		Recipient: booking.ContactNumber,
		Kind:      string(NotificationBookingCreated),
		Title:     "Booking Received",
		Message: fmt.Sprintf("Your booking of %s from %s to %s (%d days) was received. Total %d, deposit %d.",
			booking.CarName,
			booking.StartDate.Format(domain.DateLayout),
			booking.EndDate.Format(domain.DateLayout),
			q.Days, q.Total, q.Deposit),
	})
}

// NotifyDepositPaid tells the customer their deposit was charged.
func (s *NotificationService) NotifyDepositPaid(ctx context.Context, booking *domain.Booking, deposit *domain.Deposit) error {
	return s.send(ctx, &domain.Notification{
		BookingID: booking.ID,
		Recipient: booking.ContactNumber,
		Kind:      string(NotificationDepositPaid),
		Title:     "Deposit Paid",
		Message: fmt.Sprintf("Deposit of %d was received. Remaining balance %d is due at handover.",
			deposit.Amount, booking.Quote().Remaining),
	})
}

// NotifyDepositFailed tells the customer their deposit could not be charged.
func (s *NotificationService) NotifyDepositFailed(ctx context.Context, booking *domain.Booking, deposit *domain.Deposit) error {
	return s.send(ctx, &domain.Notification{
		BookingID: booking.ID,
		Recipient: booking.ContactNumber,
		Kind:      string(NotificationDepositFailed),
		Title:     "Deposit Failed",
		Message:   fmt.Sprintf("Deposit of %d failed. Please try again.", deposit.Amount),
	})
}

// ForBooking lists the notifications recorded for a booking.
func (s *NotificationService) ForBooking(ctx context.Context, bookingID string) ([]*domain.Notification, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if s.repo == nil {
		return []*domain.Notification{}, nil
	}
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *NotificationService) send(ctx context.Context, n *domain.Notification) error {
	n.ID = uuid.New().String()
	n.CreatedAt = s.now()

	s.logger.Info("notification",
		zap.String("kind", n.Kind),
		zap.String("booking_id", n.BookingID),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	)

	if s.repo == nil {
		return nil
	}
	return s.repo.Create(ctx, n)
}
