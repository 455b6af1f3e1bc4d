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

	"carrent/internal/repository"
)

var carRowColumns = []string{
	"id", "name", "price_per_day", "fuel_type", "fuel_consumption", "car_type",
	"seat_capacity", "engine_cc", "horsepower", "is_active",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestCarRepository_ListActive(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cars WHERE is_active = TRUE ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(carRowColumns).
			AddRow(7, "Toyota Yaris", 1500, "Gasoline", "18 km/l", "Sedan", 5, 1200, 94, true).
			AddRow(8, "Honda City", 1200, "Gasoline", nil, "Sedan", 5, 1000, 122, true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM car_images WHERE car_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "car_id", "image_url", "caption", "created_at"}).
			AddRow(1, 7, "/img/yaris-front.jpg", "Front", created).
			AddRow(2, 7, "/img/yaris-side.jpg", nil, created))

	cars, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, cars, 2)

	assert.Equal(t, "Toyota Yaris", cars[0].Name)
	assert.Equal(t, "18 km/l", cars[0].FuelConsumption)
	require.Len(t, cars[0].Images, 2)
	assert.Equal(t, "Front", cars[0].Images[0].Caption)
	assert.Empty(t, cars[0].Images[1].Caption)

	assert.Empty(t, cars[1].FuelConsumption)
	assert.Empty(t, cars[1].Images)
}

func TestCarRepository_ListActive_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cars WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows(carRowColumns))

	cars, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cars)
}

func TestCarRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cars WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
