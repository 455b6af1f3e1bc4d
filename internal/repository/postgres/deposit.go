package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carrent/internal/domain"
	"carrent/internal/repository"
)

// DepositRepository is a PostgreSQL implementation of repository.DepositRepository.
type DepositRepository struct {
	q Querier
}

// NewDepositRepository creates a new PostgreSQL deposit repository.
func NewDepositRepository(db *sql.DB) *DepositRepository {
	return &DepositRepository{q: db}
}

// NewDepositRepositoryWithTx creates a deposit repository using a transaction.
func NewDepositRepositoryWithTx(tx *sql.Tx) *DepositRepository {
	return &DepositRepository{q: tx}
}

// Create persists a new deposit.
func (r *DepositRepository) Create(ctx context.Context, d *domain.Deposit) error {
	query := `
		INSERT INTO deposits (id, booking_id, amount, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		d.ID,
		d.BookingID,
		d.Amount,
		d.Status,
		d.IdempotencyKey,
		d.CreatedAt,
	)

	return err
}

const depositColumns = `id, booking_id, amount, status, idempotency_key, created_at`

func (r *DepositRepository) getOne(ctx context.Context, where string, arg any) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE ` + where + ` = $1`

	var d domain.Deposit
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&d.ID,
		&d.BookingID,
		&d.Amount,
		&d.Status,
		&d.IdempotencyKey,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByID retrieves a deposit by ID.
func (r *DepositRepository) GetByID(ctx context.Context, id string) (*domain.Deposit, error) {
	d, err := r.getOne(ctx, "id", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// GetByIdempotencyKey retrieves a deposit by its idempotency key.
// Returns nil if no deposit exists with the given key.
func (r *DepositRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Deposit, error) {
	d, err := r.getOne(ctx, "idempotency_key", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// UpdateStatus updates the status of a deposit.
func (r *DepositRepository) UpdateStatus(ctx context.Context, id string, status domain.DepositStatus) error {
	query := `UPDATE deposits SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
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
