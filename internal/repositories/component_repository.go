package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car_repair_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ComponentRepository persists spare parts. Deleted components stay in the
// table for historical line items but are hidden from every listing.
type ComponentRepository interface {
	ListActive(ctx context.Context, exec SQLExecutor) ([]models.Component, error)
	// GetByID returns the component whether or not it is deleted.
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Component, error)
	GetActiveByName(ctx context.Context, exec SQLExecutor, name string) (*models.Component, error)
	Create(ctx context.Context, exec SQLExecutor, component *models.Component) (int64, error)
	Update(ctx context.Context, exec SQLExecutor, component *models.Component) error
	SoftDelete(ctx context.Context, exec SQLExecutor, id int64) error
	AddStock(ctx context.Context, exec SQLExecutor, id int64, quantity int) (int, error)
	UpdatePrice(ctx context.Context, exec SQLExecutor, id int64, price decimal.Decimal) error
}

type componentRepository struct{}

// NewComponentRepository creates a new instance of ComponentRepository.
func NewComponentRepository() ComponentRepository {
	return &componentRepository{}
}

const componentColumns = `id, name, current_price, stock_quantity, is_deleted, created_at, updated_at`

func (r *componentRepository) ListActive(ctx context.Context, exec SQLExecutor) ([]models.Component, error) {
	rows, err := exec.QueryContext(ctx, `SELECT `+componentColumns+` FROM components WHERE NOT is_deleted ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying components: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	components := []models.Component{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning component: %v", ErrDatabaseError, err)
		}
		components = append(components, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating component rows: %v", ErrDatabaseError, err)
	}
	return components, nil
}

func (r *componentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Component, error) {
	c, err := scanComponent(exec.QueryRowContext(ctx, `SELECT `+componentColumns+` FROM components WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting component by ID %d: %v", ErrDatabaseError, id, err)
	}
	return c, nil
}

func (r *componentRepository) GetActiveByName(ctx context.Context, exec SQLExecutor, name string) (*models.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM components WHERE LOWER(name) = LOWER($1) AND NOT is_deleted FOR UPDATE`
	c, err := scanComponent(exec.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting component by name %q: %v", ErrDatabaseError, name, err)
	}
	return c, nil
}

func (r *componentRepository) Create(ctx context.Context, exec SQLExecutor, component *models.Component) (int64, error) {
	query := `INSERT INTO components (name, current_price, stock_quantity, is_deleted, created_at, updated_at)
	          VALUES ($1, $2, $3, FALSE, $4, $4)
	          RETURNING id`
	now := time.Now()
	err := exec.QueryRowContext(ctx, query, component.Name, component.CurrentPrice, component.StockQuantity, now).Scan(&component.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating component "+component.Name)
	}
	component.CreatedAt, component.UpdatedAt = now, now
	return component.ID, nil
}

func (r *componentRepository) Update(ctx context.Context, exec SQLExecutor, component *models.Component) error {
	query := `UPDATE components SET name = $1, current_price = $2, stock_quantity = $3, updated_at = $4
	          WHERE id = $5 AND NOT is_deleted`
	component.UpdatedAt = time.Now()
	result, err := exec.ExecContext(ctx, query, component.Name, component.CurrentPrice, component.StockQuantity, component.UpdatedAt, component.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating component ID %d", component.ID))
	}
	return requireRowsAffected(result, fmt.Sprintf("component update ID %d", component.ID))
}

func (r *componentRepository) SoftDelete(ctx context.Context, exec SQLExecutor, id int64) error {
	query := `UPDATE components SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND NOT is_deleted`
	result, err := exec.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: deleting component ID %d: %v", ErrDatabaseError, id, err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting component ID %d", id))
}

func (r *componentRepository) AddStock(ctx context.Context, exec SQLExecutor, id int64, quantity int) (int, error) {
	query := `UPDATE components SET stock_quantity = stock_quantity + $1, updated_at = $2
	          WHERE id = $3 AND NOT is_deleted
	          RETURNING stock_quantity`
	var stock int
	err := exec.QueryRowContext(ctx, query, quantity, time.Now(), id).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adding stock to component ID %d: %v", ErrDatabaseError, id, err)
	}
	return stock, nil
}

func (r *componentRepository) UpdatePrice(ctx context.Context, exec SQLExecutor, id int64, price decimal.Decimal) error {
	query := `UPDATE components SET current_price = $1, updated_at = $2 WHERE id = $3 AND NOT is_deleted`
	result, err := exec.ExecContext(ctx, query, price, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: updating price for component ID %d: %v", ErrDatabaseError, id, err)
	}
	return requireRowsAffected(result, fmt.Sprintf("price update for component ID %d", id))
}

func scanComponent(row scanner) (*models.Component, error) {
	c := &models.Component{}
	err := row.Scan(&c.ID, &c.Name, &c.CurrentPrice, &c.StockQuantity, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
