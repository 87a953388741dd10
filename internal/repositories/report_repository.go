package repositories

import (
	"context"
	"fmt"
	"time"

	"car_repair_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ReportRepository runs the read-only aggregate queries behind the admin
// dashboard. Time windows are half-open: [from, to).
type ReportRepository interface {
	// RevenueByDay sums invoice totals per day of month, where days are
	// calendar days in from's location.
	RevenueByDay(ctx context.Context, exec SQLExecutor, from, to time.Time) (map[int]decimal.Decimal, error)
	VehicleTypeCounts(ctx context.Context, exec SQLExecutor, from, to time.Time) ([]models.BreakdownItem, error)
	CategoryCounts(ctx context.Context, exec SQLExecutor, from, to time.Time) ([]models.BreakdownItem, error)
	// LowStock returns active components with stock <= threshold, ascending by
	// stock, with the quantity used by repairs started at or after usageSince.
	LowStock(ctx context.Context, exec SQLExecutor, threshold int, usageSince time.Time) ([]models.LowStockItem, error)
	LowStockCount(ctx context.Context, exec SQLExecutor, threshold int) (int, error)
	// ComponentUsage returns every active component with its lifetime line item count.
	ComponentUsage(ctx context.Context, exec SQLExecutor) ([]models.InventoryUsageItem, error)
}

type reportRepository struct{}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

// UnknownVehicleType and OtherCategory label rows with a missing value.
const (
	UnknownVehicleType = "Unknown"
	OtherCategory      = "Other"
)

func (r *reportRepository) RevenueByDay(ctx context.Context, exec SQLExecutor, from, to time.Time) (map[int]decimal.Decimal, error) {
	query := `SELECT created_at, total_amount
	          FROM invoices
	          WHERE created_at >= $1 AND created_at < $2`
	rows, err := exec.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily revenue: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	// days follow the window's zone, not the database session's
	loc := from.Location()
	revenue := make(map[int]decimal.Decimal)
	for rows.Next() {
		var createdAt time.Time
		var amount decimal.Decimal
		if err := rows.Scan(&createdAt, &amount); err != nil {
			return nil, fmt.Errorf("%w: scanning daily revenue: %v", ErrDatabaseError, err)
		}
		day := createdAt.In(loc).Day()
		revenue[day] = revenue[day].Add(amount)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily revenue rows: %v", ErrDatabaseError, err)
	}
	return revenue, nil
}

func (r *reportRepository) VehicleTypeCounts(ctx context.Context, exec SQLExecutor, from, to time.Time) ([]models.BreakdownItem, error) {
	query := `SELECT COALESCE(NULLIF(TRIM(c.vehicle_type), ''), $3) AS label, COUNT(*) AS cnt
	          FROM reception_slips rs
	          JOIN cars c ON c.id = rs.car_id
	          WHERE rs.reception_date >= $1 AND rs.reception_date < $2
	          GROUP BY label
	          ORDER BY cnt DESC, label`
	return r.breakdown(ctx, exec, "vehicle types", query, from, to, UnknownVehicleType)
}

func (r *reportRepository) CategoryCounts(ctx context.Context, exec SQLExecutor, from, to time.Time) ([]models.BreakdownItem, error) {
	query := `SELECT COALESCE(NULLIF(TRIM(d.category), ''), $3) AS label, COUNT(*) AS cnt
	          FROM repair_details d
	          JOIN repair_slips rp ON rp.id = d.repair_slip_id
	          JOIN reception_slips rs ON rs.id = rp.reception_slip_id
	          WHERE rs.reception_date >= $1 AND rs.reception_date < $2
	          GROUP BY label
	          ORDER BY cnt DESC, label`
	return r.breakdown(ctx, exec, "repair categories", query, from, to, OtherCategory)
}

func (r *reportRepository) breakdown(ctx context.Context, exec SQLExecutor, what, query string, args ...interface{}) ([]models.BreakdownItem, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", ErrDatabaseError, what, err)
	}
	defer rows.Close()

	items := []models.BreakdownItem{}
	for rows.Next() {
		var item models.BreakdownItem
		if err := rows.Scan(&item.Label, &item.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %v", ErrDatabaseError, what, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s rows: %v", ErrDatabaseError, what, err)
	}
	return items, nil
}

func (r *reportRepository) LowStock(ctx context.Context, exec SQLExecutor, threshold int, usageSince time.Time) ([]models.LowStockItem, error) {
	query := `SELECT cp.id, cp.name, cp.current_price, cp.stock_quantity,
	                 COALESCE(SUM(d.quantity) FILTER (WHERE rp.start_date >= $2), 0)::int AS recent_usage
	          FROM components cp
	          LEFT JOIN repair_details d ON d.component_id = cp.id
	          LEFT JOIN repair_slips rp ON rp.id = d.repair_slip_id
	          WHERE NOT cp.is_deleted AND cp.stock_quantity <= $1
	          GROUP BY cp.id, cp.name, cp.current_price, cp.stock_quantity
	          ORDER BY cp.stock_quantity ASC, cp.name ASC`
	rows, err := exec.QueryContext(ctx, query, threshold, usageSince)
	if err != nil {
		return nil, fmt.Errorf("%w: querying low stock components: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.LowStockItem{}
	for rows.Next() {
		var item models.LowStockItem
		if err := rows.Scan(&item.ComponentID, &item.Name, &item.CurrentPrice, &item.StockQuantity, &item.RecentUsage); err != nil {
			return nil, fmt.Errorf("%w: scanning low stock component: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low stock rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *reportRepository) LowStockCount(ctx context.Context, exec SQLExecutor, threshold int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM components WHERE NOT is_deleted AND stock_quantity <= $1`
	if err := exec.QueryRowContext(ctx, query, threshold).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting low stock components: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *reportRepository) ComponentUsage(ctx context.Context, exec SQLExecutor) ([]models.InventoryUsageItem, error) {
	query := `SELECT cp.id, cp.name, cp.current_price, cp.stock_quantity, COUNT(d.id)::int AS used
	          FROM components cp
	          LEFT JOIN repair_details d ON d.component_id = cp.id
	          WHERE NOT cp.is_deleted
	          GROUP BY cp.id, cp.name, cp.current_price, cp.stock_quantity
	          ORDER BY cp.id`
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying component usage: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.InventoryUsageItem{}
	for rows.Next() {
		var item models.InventoryUsageItem
		if err := rows.Scan(&item.ComponentID, &item.Name, &item.Price, &item.Inventory, &item.Used); err != nil {
			return nil, fmt.Errorf("%w: scanning component usage: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating component usage rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
