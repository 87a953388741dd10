package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	defaultRecentInvoices = 10
	maxRecentInvoices     = 100
	topUsageCount         = 5
	recentUsageWindow     = 30 * 24 * time.Hour
)

// ReportService computes the admin dashboard figures. Nothing is cached;
// every call reads the store.
type ReportService interface {
	DailyRevenue(ctx context.Context, month, year int) (*models.RevenueReport, error)
	VehicleTypeBreakdown(ctx context.Context, month, year int) (*models.VehicleTypeReport, error)
	CategoryBreakdown(ctx context.Context, month, year int) ([]models.BreakdownItem, error)
	// InvoiceTotals previews the bill for a repair at the current VAT rate.
	InvoiceTotals(ctx context.Context, repairID int64) (*models.InvoiceTotals, error)
	// LowStockComponents uses the configured threshold when threshold is nil.
	LowStockComponents(ctx context.Context, threshold *int) ([]models.LowStockItem, error)
	LowStockCount(ctx context.Context) (int, error)
	InventoryUsageStats(ctx context.Context) (*models.InventoryUsageStats, error)
	RecentInvoices(ctx context.Context, limit int) ([]models.Invoice, error)
	// ExportMonthlyReport writes an XLSX workbook with the month's figures to w.
	ExportMonthlyReport(ctx context.Context, month, year int, w io.Writer) error
}

type reportService struct {
	reportRepo  repositories.ReportRepository
	repairRepo  repositories.RepairRepository
	lineItems   repositories.LineItemRepository
	invoiceRepo repositories.InvoiceRepository
	settings    SettingsService
	db          repositories.SQLExecutor
	now         func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	reportRepo repositories.ReportRepository,
	repairRepo repositories.RepairRepository,
	lineItems repositories.LineItemRepository,
	invoiceRepo repositories.InvoiceRepository,
	settings SettingsService,
	db repositories.SQLExecutor,
) ReportService {
	return &reportService{
		reportRepo:  reportRepo,
		repairRepo:  repairRepo,
		lineItems:   lineItems,
		invoiceRepo: invoiceRepo,
		settings:    settings,
		db:          db,
		now:         time.Now,
	}
}

// monthWindow validates month/year and returns the month as [from, to) in
// server local time.
func (s *reportService) monthWindow(month, year int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrValidation, month)
	}
	if year < 1 || year > 9999 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: year must be between 1 and 9999, got %d", ErrValidation, year)
	}
	from, to := models.MonthRange(year, month, s.now().Location())
	return from, to, nil
}

func (s *reportService) DailyRevenue(ctx context.Context, month, year int) (*models.RevenueReport, error) {
	from, to, err := s.monthWindow(month, year)
	if err != nil {
		return nil, err
	}
	byDay, err := s.reportRepo.RevenueByDay(ctx, s.db, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing daily revenue: %w", err)
	}

	days := models.DaysIn(year, month)
	report := &models.RevenueReport{
		Month: month,
		Year:  year,
		Days:  make([]models.DailyRevenue, 0, days),
		Total: decimal.Zero,
	}
	for day := 1; day <= days; day++ {
		amount, ok := byDay[day]
		if !ok {
			amount = decimal.Zero
		}
		report.Days = append(report.Days, models.DailyRevenue{Day: day, Revenue: amount})
		report.Total = report.Total.Add(amount)
	}
	return report, nil
}

func (s *reportService) VehicleTypeBreakdown(ctx context.Context, month, year int) (*models.VehicleTypeReport, error) {
	from, to, err := s.monthWindow(month, year)
	if err != nil {
		return nil, err
	}
	items, err := s.reportRepo.VehicleTypeCounts(ctx, s.db, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing vehicle type breakdown: %w", err)
	}
	report := &models.VehicleTypeReport{Month: month, Year: year, Items: items}
	for _, it := range items {
		report.TotalVehicles += it.Count
	}
	return report, nil
}

func (s *reportService) CategoryBreakdown(ctx context.Context, month, year int) ([]models.BreakdownItem, error) {
	from, to, err := s.monthWindow(month, year)
	if err != nil {
		return nil, err
	}
	items, err := s.reportRepo.CategoryCounts(ctx, s.db, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing category breakdown: %w", err)
	}
	return items, nil
}

func (s *reportService) InvoiceTotals(ctx context.Context, repairID int64) (*models.InvoiceTotals, error) {
	if _, err := s.repairRepo.GetByID(ctx, s.db, repairID); err != nil {
		return nil, notFound(err, "repair %d", repairID)
	}
	details, err := s.lineItems.ListByRepairIDs(ctx, s.db, []int64{repairID})
	if err != nil {
		return nil, fmt.Errorf("loading line items for repair %d: %w", repairID, err)
	}
	rate, err := s.settings.VATRate(ctx)
	if err != nil {
		return nil, err
	}
	totals := ComputeInvoiceTotals(repairID, details, rate)
	return &totals, nil
}

func (s *reportService) threshold(ctx context.Context, threshold *int) (int, error) {
	if threshold == nil {
		return s.settings.LowStockThreshold(ctx)
	}
	if *threshold < 0 {
		return 0, fmt.Errorf("%w: threshold cannot be negative", ErrValidation)
	}
	return *threshold, nil
}

func (s *reportService) LowStockComponents(ctx context.Context, threshold *int) ([]models.LowStockItem, error) {
	limit, err := s.threshold(ctx, threshold)
	if err != nil {
		return nil, err
	}
	items, err := s.reportRepo.LowStock(ctx, s.db, limit, s.now().Add(-recentUsageWindow))
	if err != nil {
		return nil, fmt.Errorf("listing low stock components: %w", err)
	}
	for i := range items {
		if items[i].StockQuantity <= 0 {
			items[i].Status = models.StockOut
		} else {
			items[i].Status = models.StockLow
		}
	}
	return items, nil
}

func (s *reportService) LowStockCount(ctx context.Context) (int, error) {
	limit, err := s.settings.LowStockThreshold(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.reportRepo.LowStockCount(ctx, s.db, limit)
	if err != nil {
		return 0, fmt.Errorf("counting low stock components: %w", err)
	}
	return count, nil
}

func (s *reportService) InventoryUsageStats(ctx context.Context) (*models.InventoryUsageStats, error) {
	items, err := s.reportRepo.ComponentUsage(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("computing inventory usage: %w", err)
	}

	stats := &models.InventoryUsageStats{Items: items}
	for i := range items {
		items[i].Code = fmt.Sprintf("P%03d", items[i].ComponentID)
		items[i].Imported = items[i].Inventory + items[i].Used
		stats.TotalInventory += items[i].Inventory
	}
	stats.MostUsed = topBy(items, func(it models.InventoryUsageItem) int { return it.Used })
	stats.MostImported = topBy(items, func(it models.InventoryUsageItem) int { return it.Imported })
	return stats, nil
}

// topBy returns the topUsageCount items with the highest key, ties kept in
// input order.
func topBy(items []models.InventoryUsageItem, key func(models.InventoryUsageItem) int) []models.InventoryUsageItem {
	sorted := make([]models.InventoryUsageItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) > key(sorted[j]) })
	if len(sorted) > topUsageCount {
		sorted = sorted[:topUsageCount]
	}
	return sorted
}

func (s *reportService) RecentInvoices(ctx context.Context, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = defaultRecentInvoices
	}
	if limit > maxRecentInvoices {
		limit = maxRecentInvoices
	}
	invoices, err := s.invoiceRepo.ListRecent(ctx, s.db, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent invoices: %w", err)
	}
	return invoices, nil
}
