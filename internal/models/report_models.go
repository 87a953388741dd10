package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRevenue is one day of a monthly revenue chart.
type DailyRevenue struct {
	Day     int             `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RevenueReport has one entry per day of the month.
type RevenueReport struct {
	Month int             `json:"month"`
	Year  int             `json:"year"`
	Days  []DailyRevenue  `json:"days"`
	Total decimal.Decimal `json:"total"`
}

// BreakdownItem is a labelled count, e.g. intakes per vehicle type.
type BreakdownItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// VehicleTypeReport is the month's intakes per vehicle type.
type VehicleTypeReport struct {
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	Items         []BreakdownItem `json:"items"`
	TotalVehicles int             `json:"total_vehicles"`
}

// LowStockItem is a component at or under the low-stock threshold.
type LowStockItem struct {
	ComponentID   int64           `json:"component_id"`
	Name          string          `json:"name"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StockQuantity int             `json:"stock_quantity"`
	RecentUsage   int             `json:"recent_usage"`
	Status        string          `json:"status"`
}

// Low-stock statuses.
const (
	StockOut = "out"
	StockLow = "low"
)

// InventoryUsageItem is one component row of the inventory report.
type InventoryUsageItem struct {
	ComponentID int64           `json:"component_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Imported    int             `json:"imported"`
	Used        int             `json:"used"`
	Inventory   int             `json:"inventory"`
}

// InventoryUsageStats is the admin inventory dashboard.
type InventoryUsageStats struct {
	Items          []InventoryUsageItem `json:"items"`
	MostUsed       []InventoryUsageItem `json:"most_used"`
	MostImported   []InventoryUsageItem `json:"most_imported"`
	TotalInventory int                  `json:"total_inventory"`
}

// MonthRange returns [start, end) of a calendar month in loc.
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// DaysIn returns the number of days in the month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
