package postgres

import (
	"context"
	"database/sql"

	"carrent/internal/domain"
)

// NotificationRepository is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a new PostgreSQL notification repository.
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{q: db}
}

// Create persists a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, booking_id, recipient, kind, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		n.ID,
		n.BookingID,
		n.Recipient,
		n.Kind,
		n.Title,
		n.Message,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

// ListByBooking returns the notifications of a booking, newest first.
func (r *NotificationRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.Notification, error) {
	query := `
		SELECT id, booking_id, recipient, kind, title, message, is_read, created_at
		FROM notifications WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.BookingID, &n.Recipient, &n.Kind, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
