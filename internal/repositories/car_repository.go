package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car_repair_backend/internal/models"
)

// CarRepository persists customer vehicles.
type CarRepository interface {
	// UpsertByPlate inserts the car or refreshes the owner details of the car
	// already registered under the same plate. It returns the car id.
	UpsertByPlate(ctx context.Context, exec SQLExecutor, car *models.Car) (int64, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Car, error)
	GetByPlate(ctx context.Context, exec SQLExecutor, plate string) (*models.Car, error)
}

type carRepository struct{}

// NewCarRepository creates a new instance of CarRepository.
func NewCarRepository() CarRepository {
	return &carRepository{}
}

const carColumns = `id, license_plate, owner_name, phone_number, address, email, vehicle_type, color, created_at, updated_at`

func (r *carRepository) UpsertByPlate(ctx context.Context, exec SQLExecutor, car *models.Car) (int64, error) {
	query := `INSERT INTO cars (license_plate, owner_name, phone_number, address, email, vehicle_type, color, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	          ON CONFLICT (license_plate) DO UPDATE SET
	              owner_name = EXCLUDED.owner_name,
	              phone_number = EXCLUDED.phone_number,
	              address = EXCLUDED.address,
	              email = EXCLUDED.email,
	              vehicle_type = EXCLUDED.vehicle_type,
	              color = EXCLUDED.color,
	              updated_at = EXCLUDED.updated_at
	          RETURNING id`

	now := time.Now()
	err := exec.QueryRowContext(ctx, query,
		car.LicensePlate, car.OwnerName, car.PhoneNumber, car.Address, car.Email, car.VehicleType, car.Color, now,
	).Scan(&car.ID)
	if err != nil {
		return 0, wrapWriteError(err, "upserting car "+car.LicensePlate)
	}
	return car.ID, nil
}

func (r *carRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Car, error) {
	car, err := scanCar(exec.QueryRowContext(ctx, `SELECT `+carColumns+` FROM cars WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting car by ID %d: %v", ErrDatabaseError, id, err)
	}
	return car, nil
}

func (r *carRepository) GetByPlate(ctx context.Context, exec SQLExecutor, plate string) (*models.Car, error) {
	car, err := scanCar(exec.QueryRowContext(ctx, `SELECT `+carColumns+` FROM cars WHERE license_plate = $1`, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting car by plate %s: %v", ErrDatabaseError, plate, err)
	}
	return car, nil
}

func scanCar(row scanner) (*models.Car, error) {
	car := &models.Car{}
	err := row.Scan(&car.ID, &car.LicensePlate, &car.OwnerName, &car.PhoneNumber, &car.Address,
		&car.Email, &car.VehicleType, &car.Color, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return car, nil
}
