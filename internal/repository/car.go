package repository

import (
	"context"

	"carrent/internal/domain"
)

// CarRepository defines the persistence operations for cars.
type CarRepository interface {
	// GetByID retrieves a car with its images.
	GetByID(ctx context.Context, id int64) (*domain.Car, error)

	// ListActive returns every active car with its images, ordered by ID.
	ListActive(ctx context.Context) ([]*domain.Car, error)
}
