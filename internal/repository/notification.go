package repository

import (
	"context"

	"carrent/internal/domain"
)

// NotificationRepository stores customer notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByBooking(ctx context.Context, bookingID string) ([]*domain.Notification, error)
}
