package repository

import (
	"context"
	"time"

	"carrent/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID, including the car name.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// HasApprovedOverlap reports whether an approved booking of carID
	// overlaps the inclusive range [start, end].
	HasApprovedOverlap(ctx context.Context, carID int64, start, end time.Time) (bool, error)

	// BookedCarIDs returns the cars with an approved booking overlapping
	// the inclusive range [start, end].
	BookedCarIDs(ctx context.Context, start, end time.Time) (map[int64]bool, error)

	// UpdateOrderStage moves a booking to stage.
	UpdateOrderStage(ctx context.Context, id string, stage domain.OrderStage) error
}
