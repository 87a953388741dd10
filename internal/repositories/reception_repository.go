package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"car_repair_backend/internal/models"

	"github.com/lib/pq"
)

// ReceptionRepository persists intake records.
type ReceptionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, slip *models.ReceptionSlip) (int64, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.ReceptionSlip, error)
	Update(ctx context.Context, exec SQLExecutor, slip *models.ReceptionSlip) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int64, status models.IntakeStatus) error
	// CountReceivedBetween counts intakes with reception_date in [from, to).
	CountReceivedBetween(ctx context.Context, exec SQLExecutor, from, to time.Time) (int, error)
	List(ctx context.Context, exec SQLExecutor, filters models.ReceptionFilters) ([]models.ReceptionSlip, error)
}

type receptionRepository struct{}

// NewReceptionRepository creates a new instance of ReceptionRepository.
func NewReceptionRepository() ReceptionRepository {
	return &receptionRepository{}
}

const receptionSelect = `
	SELECT rs.id, rs.car_id, rs.reception_date, rs.description, rs.status,
	       c.id, c.license_plate, c.owner_name, c.phone_number, c.address, c.email,
	       c.vehicle_type, c.color, c.created_at, c.updated_at,
	       rp.id
	FROM reception_slips rs
	JOIN cars c ON c.id = rs.car_id
	LEFT JOIN repair_slips rp ON rp.reception_slip_id = rs.id`

func (r *receptionRepository) Create(ctx context.Context, exec SQLExecutor, slip *models.ReceptionSlip) (int64, error) {
	query := `INSERT INTO reception_slips (car_id, reception_date, description, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if slip.ReceptionDate.IsZero() {
		slip.ReceptionDate = time.Now()
	}
	err := exec.QueryRowContext(ctx, query, slip.CarID, slip.ReceptionDate, slip.Description, slip.Status).Scan(&slip.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating reception slip")
	}
	return slip.ID, nil
}

func (r *receptionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.ReceptionSlip, error) {
	slip, err := scanReception(exec.QueryRowContext(ctx, receptionSelect+` WHERE rs.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting reception slip by ID %d: %v", ErrDatabaseError, id, err)
	}
	return slip, nil
}

func (r *receptionRepository) Update(ctx context.Context, exec SQLExecutor, slip *models.ReceptionSlip) error {
	query := `UPDATE reception_slips SET car_id = $1, description = $2, status = $3 WHERE id = $4`
	result, err := exec.ExecContext(ctx, query, slip.CarID, slip.Description, slip.Status, slip.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating reception slip ID %d", slip.ID))
	}
	return requireRowsAffected(result, fmt.Sprintf("reception slip update ID %d", slip.ID))
}

func (r *receptionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int64, status models.IntakeStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE reception_slips SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%w: updating status for reception slip ID %d: %v", ErrDatabaseError, id, err)
	}
	return requireRowsAffected(result, fmt.Sprintf("reception slip status update ID %d", id))
}

func (r *receptionRepository) CountReceivedBetween(ctx context.Context, exec SQLExecutor, from, to time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reception_slips WHERE reception_date >= $1 AND reception_date < $2`
	if err := exec.QueryRowContext(ctx, query, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting reception slips: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *receptionRepository) List(ctx context.Context, exec SQLExecutor, filters models.ReceptionFilters) ([]models.ReceptionSlip, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(receptionSelect)

	var args []interface{}
	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		queryBuilder.WriteString(fmt.Sprintf(" WHERE rs.status = ANY($%d)", len(args)))
	}
	if filters.OldestFirst {
		queryBuilder.WriteString(" ORDER BY rs.reception_date ASC, rs.id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY rs.reception_date DESC, rs.id DESC")
	}
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying reception slips: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	slips := []models.ReceptionSlip{}
	for rows.Next() {
		slip, err := scanReception(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning reception slip: %v", ErrDatabaseError, err)
		}
		slips = append(slips, *slip)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating reception slip rows: %v", ErrDatabaseError, err)
	}
	return slips, nil
}

func scanReception(row scanner) (*models.ReceptionSlip, error) {
	slip := &models.ReceptionSlip{}
	car := &models.Car{}
	var repairID sql.NullInt64
	err := row.Scan(
		&slip.ID, &slip.CarID, &slip.ReceptionDate, &slip.Description, &slip.Status,
		&car.ID, &car.LicensePlate, &car.OwnerName, &car.PhoneNumber, &car.Address, &car.Email,
		&car.VehicleType, &car.Color, &car.CreatedAt, &car.UpdatedAt,
		&repairID,
	)
	if err != nil {
		return nil, err
	}
	slip.Car = car
	if repairID.Valid {
		id := repairID.Int64
		slip.RepairSlipID = &id
	}
	return slip, nil
}
