package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carrent/internal/domain"
	"carrent/internal/repository"
)

// CarRepository is a PostgreSQL implementation of repository.CarRepository.
type CarRepository struct {
	q Querier
}

// NewCarRepository creates a new PostgreSQL car repository.
func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{q: db}
}

// NewCarRepositoryWithTx creates a car repository using a transaction.
func NewCarRepositoryWithTx(tx *sql.Tx) *CarRepository {
	return &CarRepository{q: tx}
}

const carColumns = `id, name, price_per_day, fuel_type, fuel_consumption, car_type,
	seat_capacity, engine_cc, horsepower, is_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*domain.Car, error) {
	var car domain.Car
	var fuelConsumption sql.NullString
	err := row.Scan(
		&car.ID,
		&car.Name,
		&car.PricePerDay,
		&car.FuelType,
		&fuelConsumption,
		&car.CarType,
		&car.SeatCapacity,
		&car.EngineCC,
		&car.Horsepower,
		&car.IsActive,
	)
	if err != nil {
		return nil, err
	}
	car.FuelConsumption = fuelConsumption.String
	return &car, nil
}

// GetByID retrieves a car with its images.
func (r *CarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`

	car, err := scanCar(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.attachImages(ctx, []*domain.Car{car}); err != nil {
		return nil, err
	}
	return car, nil
}

// ListActive returns every active car with its images, ordered by ID.
func (r *CarRepository) ListActive(ctx context.Context) ([]*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE is_active = TRUE ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []*domain.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachImages(ctx, cars); err != nil {
		return nil, err
	}
	return cars, nil
}

// attachImages loads the images of cars in one query.
func (r *CarRepository) attachImages(ctx context.Context, cars []*domain.Car) error {
	if len(cars) == 0 {
		return nil
	}

	ids := make(pq.Int64Array, 0, len(cars))
	byID := make(map[int64]*domain.Car, len(cars))
	for _, car := range cars {
		ids = append(ids, car.ID)
		byID[car.ID] = car
	}

	query := `
		SELECT id, car_id, image_url, caption, created_at
		FROM car_images WHERE car_id = ANY($1)
		ORDER BY car_id, id
	`

	rows, err := r.q.QueryContext(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.CarImage
		var caption sql.NullString
		if err := rows.Scan(&img.ID, &img.CarID, &img.ImageURL, &caption, &img.CreatedAt); err != nil {
			return err
		}
		img.Caption = caption.String
		if car, ok := byID[img.CarID]; ok {
			car.Images = append(car.Images, img)
		}
	}
	return rows.Err()
}
