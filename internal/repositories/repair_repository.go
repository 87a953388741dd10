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

// RepairRepository persists repair slips.
type RepairRepository interface {
	Create(ctx context.Context, exec SQLExecutor, repair *models.RepairSlip) (int64, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.RepairSlip, error)
	GetByReceptionID(ctx context.Context, exec SQLExecutor, receptionID int64) (*models.RepairSlip, error)
	// Finish stamps end_date on an open repair. A missing or already finished
	// repair yields ErrNotFound.
	Finish(ctx context.Context, exec SQLExecutor, id int64, endDate time.Time) error
	// List returns repairs whose intake is in one of statuses, optionally for
	// one technician only, newest first.
	List(ctx context.Context, exec SQLExecutor, filters RepairFilters) ([]models.RepairSlip, error)
}

// RepairFilters narrows repair listings.
type RepairFilters struct {
	TechnicianID *int64
	Statuses     []models.IntakeStatus
}

type repairRepository struct{}

// NewRepairRepository creates a new instance of RepairRepository.
func NewRepairRepository() RepairRepository {
	return &repairRepository{}
}

const repairSelect = `
	SELECT rp.id, rp.reception_slip_id, rp.technician_id, rp.start_date, rp.end_date, u.full_name,
	       rs.id, rs.car_id, rs.reception_date, rs.description, rs.status,
	       c.id, c.license_plate, c.owner_name, c.phone_number, c.address, c.email,
	       c.vehicle_type, c.color, c.created_at, c.updated_at
	FROM repair_slips rp
	JOIN reception_slips rs ON rs.id = rp.reception_slip_id
	JOIN cars c ON c.id = rs.car_id
	LEFT JOIN users u ON u.id = rp.technician_id`

func (r *repairRepository) Create(ctx context.Context, exec SQLExecutor, repair *models.RepairSlip) (int64, error) {
	query := `INSERT INTO repair_slips (reception_slip_id, technician_id, start_date)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	if repair.StartDate.IsZero() {
		repair.StartDate = time.Now()
	}
	err := exec.QueryRowContext(ctx, query, repair.ReceptionSlipID, repair.TechnicianID, repair.StartDate).Scan(&repair.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating repair slip for reception %d", repair.ReceptionSlipID))
	}
	return repair.ID, nil
}

func (r *repairRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.RepairSlip, error) {
	repair, err := scanRepair(exec.QueryRowContext(ctx, repairSelect+` WHERE rp.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting repair slip by ID %d: %v", ErrDatabaseError, id, err)
	}
	return repair, nil
}

func (r *repairRepository) GetByReceptionID(ctx context.Context, exec SQLExecutor, receptionID int64) (*models.RepairSlip, error) {
	repair, err := scanRepair(exec.QueryRowContext(ctx, repairSelect+` WHERE rp.reception_slip_id = $1`, receptionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting repair slip for reception %d: %v", ErrDatabaseError, receptionID, err)
	}
	return repair, nil
}

func (r *repairRepository) Finish(ctx context.Context, exec SQLExecutor, id int64, endDate time.Time) error {
	query := `UPDATE repair_slips SET end_date = $1 WHERE id = $2 AND end_date IS NULL`
	result, err := exec.ExecContext(ctx, query, endDate, id)
	if err != nil {
		return fmt.Errorf("%w: finishing repair slip ID %d: %v", ErrDatabaseError, id, err)
	}
	return requireRowsAffected(result, fmt.Sprintf("finishing repair slip ID %d", id))
}

func (r *repairRepository) List(ctx context.Context, exec SQLExecutor, filters RepairFilters) ([]models.RepairSlip, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(repairSelect)

	var conditions []string
	var args []interface{}
	if filters.TechnicianID != nil {
		args = append(args, *filters.TechnicianID)
		conditions = append(conditions, fmt.Sprintf("rp.technician_id = $%d", len(args)))
	}
	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("rs.status = ANY($%d)", len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY rp.start_date DESC, rp.id DESC")

	rows, err := exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying repair slips: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	repairs := []models.RepairSlip{}
	for rows.Next() {
		repair, err := scanRepair(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning repair slip: %v", ErrDatabaseError, err)
		}
		repairs = append(repairs, *repair)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating repair slip rows: %v", ErrDatabaseError, err)
	}
	return repairs, nil
}

func scanRepair(row scanner) (*models.RepairSlip, error) {
	repair := &models.RepairSlip{}
	slip := &models.ReceptionSlip{}
	car := &models.Car{}
	var endDate sql.NullTime
	var technicianName sql.NullString
	err := row.Scan(
		&repair.ID, &repair.ReceptionSlipID, &repair.TechnicianID, &repair.StartDate, &endDate, &technicianName,
		&slip.ID, &slip.CarID, &slip.ReceptionDate, &slip.Description, &slip.Status,
		&car.ID, &car.LicensePlate, &car.OwnerName, &car.PhoneNumber, &car.Address, &car.Email,
		&car.VehicleType, &car.Color, &car.CreatedAt, &car.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		end := endDate.Time
		repair.EndDate = &end
	}
	if technicianName.Valid {
		name := technicianName.String
		repair.TechnicianName = &name
	}
	slip.Car = car
	slip.RepairSlipID = &repair.ID
	repair.Reception = slip
	return repair, nil
}
