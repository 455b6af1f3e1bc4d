package repository

import (
	"context"

	"carrent/internal/domain"
)

// DepositRepository defines the persistence operations for deposits.
type DepositRepository interface {
	// Create persists a new deposit.
	Create(ctx context.Context, deposit *domain.Deposit) error

	// GetByID retrieves a deposit by ID.
	GetByID(ctx context.Context, id string) (*domain.Deposit, error)

	// GetByIdempotencyKey retrieves a deposit by its idempotency key.
	// Returns nil if no deposit exists with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Deposit, error)

	// UpdateStatus updates the status of a deposit.
	UpdateStatus(ctx context.Context, id string, status domain.DepositStatus) error
}
