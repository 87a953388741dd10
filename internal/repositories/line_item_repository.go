package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"car_repair_backend/internal/models"

	"github.com/lib/pq"
)

// LineItemRepository persists repair details. price_at_time is written once
// on insert and never updated.
type LineItemRepository interface {
	Create(ctx context.Context, exec SQLExecutor, item *models.RepairDetail) (int64, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.RepairDetail, error)
	// UpdateMutable changes quantity, category and labor fee only.
	UpdateMutable(ctx context.Context, exec SQLExecutor, item *models.RepairDetail) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	ListByRepairIDs(ctx context.Context, exec SQLExecutor, repairIDs []int64) ([]models.RepairDetail, error)
}

type lineItemRepository struct{}

// NewLineItemRepository creates a new instance of LineItemRepository.
func NewLineItemRepository() LineItemRepository {
	return &lineItemRepository{}
}

const lineItemSelect = `
	SELECT d.id, d.repair_slip_id, d.component_id, cp.name, d.quantity, d.price_at_time, d.category, d.labor_fee
	FROM repair_details d
	LEFT JOIN components cp ON cp.id = d.component_id`

func (r *lineItemRepository) Create(ctx context.Context, exec SQLExecutor, item *models.RepairDetail) (int64, error) {
	query := `INSERT INTO repair_details (repair_slip_id, component_id, quantity, price_at_time, category, labor_fee)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := exec.QueryRowContext(ctx, query,
		item.RepairSlipID, item.ComponentID, item.Quantity, item.PriceAtTime, item.Category, item.LaborFee,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating line item for repair %d", item.RepairSlipID))
	}
	return item.ID, nil
}

func (r *lineItemRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.RepairDetail, error) {
	item, err := scanLineItem(exec.QueryRowContext(ctx, lineItemSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting line item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *lineItemRepository) UpdateMutable(ctx context.Context, exec SQLExecutor, item *models.RepairDetail) error {
	query := `UPDATE repair_details SET quantity = $1, category = $2, labor_fee = $3 WHERE id = $4`
	result, err := exec.ExecContext(ctx, query, item.Quantity, item.Category, item.LaborFee, item.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating line item ID %d", item.ID))
	}
	return requireRowsAffected(result, fmt.Sprintf("line item update ID %d", item.ID))
}

func (r *lineItemRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM repair_details WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting line item ID %d: %v", ErrDatabaseError, id, err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting line item ID %d", id))
}

func (r *lineItemRepository) ListByRepairIDs(ctx context.Context, exec SQLExecutor, repairIDs []int64) ([]models.RepairDetail, error) {
	items := []models.RepairDetail{}
	if len(repairIDs) == 0 {
		return items, nil
	}
	rows, err := exec.QueryContext(ctx, lineItemSelect+` WHERE d.repair_slip_id = ANY($1) ORDER BY d.repair_slip_id, d.id`, pq.Array(repairIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying line items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning line item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating line item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func scanLineItem(row scanner) (*models.RepairDetail, error) {
	item := &models.RepairDetail{}
	var componentID sql.NullInt64
	var componentName sql.NullString
	err := row.Scan(&item.ID, &item.RepairSlipID, &componentID, &componentName, &item.Quantity,
		&item.PriceAtTime, &item.Category, &item.LaborFee)
	if err != nil {
		return nil, err
	}
	if componentID.Valid {
		id := componentID.Int64
		item.ComponentID = &id
	}
	if componentName.Valid {
		name := componentName.String
		item.ComponentName = &name
	}
	return item, nil
}
