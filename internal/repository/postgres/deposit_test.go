package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrent/internal/domain"
	"carrent/internal/repository"
)

var depositRowColumns = []string{"id", "booking_id", "amount", "status", "idempotency_key", "created_at"}

func TestDepositRepository_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositRepository(db)
	created := time.Date(2026, 1, 10, 2, 0, 0, 0, time.UTC)

	d := &domain.Deposit{
		ID:             "d-1",
		BookingID:      "b-1",
		Amount:         1350,
		Status:         domain.DepositStatusPending,
		IdempotencyKey: "deposit:b-1",
		CreatedAt:      created,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO deposits")).
		WithArgs("d-1", "b-1", int64(1350), "pending", "deposit:b-1", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), d))

	mock.ExpectQuery(regexp.QuoteMeta("FROM deposits WHERE id = $1")).
		WithArgs("d-1").
		WillReturnRows(sqlmock.NewRows(depositRowColumns).AddRow("d-1", "b-1", 1350, "pending", "deposit:b-1", created))

	got, err := repo.GetByID(context.Background(), "d-1")
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDepositRepository_GetByIdempotencyKey(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM deposits WHERE idempotency_key = $1")).
		WithArgs("deposit:none").
		WillReturnError(sql.ErrNoRows)

	d, err := repo.GetByIdempotencyKey(context.Background(), "deposit:none")
	require.NoError(t, err)
	assert.Nil(t, d)

	mock.ExpectQuery(regexp.QuoteMeta("FROM deposits WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDepositRepository_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDepositRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE deposits SET status = $1 WHERE id = $2")).
		WithArgs("failed", "d-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "d-1", domain.DepositStatusFailed))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE deposits")).
		WithArgs("failed", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", domain.DepositStatusFailed), repository.ErrNotFound)
}
