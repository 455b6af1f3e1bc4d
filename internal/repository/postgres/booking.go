package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carrent/internal/domain"
	"carrent/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (
			id, car_id, start_date, end_date, current_province, destination_province,
			pickup_type, delivery_lat, delivery_lng, delivery_address, contact_number,
			total_price, status, order_stage, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var lat, lng sql.NullFloat64
	if b.Delivery != nil {
		lat = sql.NullFloat64{Float64: b.Delivery.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: b.Delivery.Lng, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		b.ID,
		b.CarID,
		b.StartDate,
		b.EndDate,
		b.CurrentProvince,
		b.DestinationProvince,
		b.PickupType,
		lat,
		lng,
		b.DeliveryAddress,
		b.ContactNumber,
		b.TotalPrice,
		b.Status,
		b.OrderStage,
		b.CreatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID, including the car name.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT b.id, b.car_id, c.name, b.start_date, b.end_date, b.current_province,
			b.destination_province, b.pickup_type, b.delivery_lat, b.delivery_lng,
			b.delivery_address, b.contact_number, b.total_price, b.status, b.order_stage,
			b.completed_at, b.created_at
		FROM bookings b
		JOIN cars c ON c.id = b.car_id
		WHERE b.id = $1
	`

	var b domain.Booking
	var lat, lng sql.NullFloat64
	var completedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.CarID,
		&b.CarName,
		&b.StartDate,
		&b.EndDate,
		&b.CurrentProvince,
		&b.DestinationProvince,
		&b.PickupType,
		&lat,
		&lng,
		&b.DeliveryAddress,
		&b.ContactNumber,
		&b.TotalPrice,
		&b.Status,
		&b.OrderStage,
		&completedAt,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if lat.Valid && lng.Valid {
		b.Delivery = &domain.LatLng{Lat: lat.Float64, Lng: lng.Float64}
	}
	if completedAt.Valid {
		b.CompletedAt = completedAt.Time
	}

	return &b, nil
}

// HasApprovedOverlap reports whether an approved booking of carID overlaps
// the inclusive range [start, end].
func (r *BookingRepository) HasApprovedOverlap(ctx context.Context, carID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE car_id = $1 AND status = $2
				AND start_date <= $4 AND end_date >= $3
		)
	`

	var exists bool
	err := r.q.QueryRowContext(ctx, query, carID, domain.BookingStatusApproved, start, end).Scan(&exists)
	return exists, err
}

// BookedCarIDs returns the cars with an approved booking overlapping the
// inclusive range [start, end].
func (r *BookingRepository) BookedCarIDs(ctx context.Context, start, end time.Time) (map[int64]bool, error) {
	query := `
		SELECT DISTINCT car_id FROM bookings
		WHERE status = $1 AND start_date <= $3 AND end_date >= $2
	`

	rows, err := r.q.QueryContext(ctx, query, domain.BookingStatusApproved, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		booked[id] = true
	}
	return booked, rows.Err()
}

// UpdateOrderStage moves a booking to stage, stamping completion time when
// the booking completes.
func (r *BookingRepository) UpdateOrderStage(ctx context.Context, id string, stage domain.OrderStage) error {
	query := `
		UPDATE bookings
		SET order_stage = $1,
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, stage, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
