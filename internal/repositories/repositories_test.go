package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"car_repair_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTxRunner_CommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reception_slips SET status")).
		WithArgs("repairing", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTxRunner(db).WithinTx(context.Background(), func(exec SQLExecutor) error {
		return NewReceptionRepository().UpdateStatus(context.Background(), exec, 4, models.StatusRepairing)
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	expectationsMet(t, mock)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewTxRunner(db).WithinTx(context.Background(), func(exec SQLExecutor) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestInvoiceRepository_Create_UniqueViolationIsDuplicateKey(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO invoices")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value", Constraint: "invoices_repair_slip_id_key"})

	inv := &models.Invoice{RepairSlipID: 1, CashierID: 2, TotalAmount: decimal.NewFromInt(385000), VATRate: decimal.NewFromInt(10), PaymentMethod: models.PaymentCash}
	_, err := NewInvoiceRepository().Create(context.Background(), db, inv)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestInvoiceRepository_ListRecent(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "repair_slip_id", "cashier_id", "total_amount", "vat_rate", "payment_method", "created_at", "license_plate"}).
		AddRow(int64(9), int64(1), int64(3), "385000.00", "10.00", "card", now, "51A-12345")
	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices i")).WithArgs(10).WillReturnRows(rows)

	invoices, err := NewInvoiceRepository().ListRecent(context.Background(), db, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(invoices) != 1 || invoices[0].PaymentMethod != models.PaymentCard || *invoices[0].LicensePlate != "51A-12345" {
		t.Fatalf("unexpected invoices %+v", invoices)
	}
	if !invoices[0].TotalAmount.Equal(decimal.NewFromInt(385000)) {
		t.Fatalf("total = %s", invoices[0].TotalAmount)
	}
	expectationsMet(t, mock)
}

func TestRepairRepository_Finish_ClosedRepairIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE repair_slips SET end_date = $1 WHERE id = $2 AND end_date IS NULL")).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewRepairRepository().Finish(context.Background(), db, 7, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestLineItemRepository_GetByID_Missing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM repair_details d")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "repair_slip_id", "component_id", "name", "quantity", "price_at_time", "category", "labor_fee"}))

	_, err := NewLineItemRepository().GetByID(context.Background(), db, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestLineItemRepository_ListByRepairIDs(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "repair_slip_id", "component_id", "name", "quantity", "price_at_time", "category", "labor_fee"}).
		AddRow(int64(1), int64(5), nil, nil, 1, "0", "Labor", "200000").
		AddRow(int64(2), int64(5), int64(3), "Brake pad", 2, "50000.00", "Parts", "50000")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.repair_slip_id = ANY($1)")).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)

	items, err := NewLineItemRepository().ListByRepairIDs(context.Background(), db, []int64{5})
	if err != nil {
		t.Fatalf("ListByRepairIDs: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ComponentID != nil || items[1].ComponentID == nil || *items[1].ComponentName != "Brake pad" {
		t.Fatalf("component columns scanned wrong: %+v", items)
	}
	if !items[1].PriceAtTime.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("price_at_time = %s", items[1].PriceAtTime)
	}
	expectationsMet(t, mock)
}

func TestLineItemRepository_ListByRepairIDs_EmptySkipsQuery(t *testing.T) {
	db, mock := newMock(t)
	items, err := NewLineItemRepository().ListByRepairIDs(context.Background(), db, nil)
	if err != nil || len(items) != 0 {
		t.Fatalf("got %v, %v", items, err)
	}
	expectationsMet(t, mock)
}

func TestReceptionRepository_CountReceivedBetween(t *testing.T) {
	db, mock := newMock(t)
	from := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reception_slips")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(29))

	n, err := NewReceptionRepository().CountReceivedBetween(context.Background(), db, from, to)
	if err != nil || n != 29 {
		t.Fatalf("got %d, %v", n, err)
	}
	expectationsMet(t, mock)
}

func TestCarRepository_UpsertByPlate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (license_plate) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	car := &models.Car{LicensePlate: "51A-12345", OwnerName: "Nguyen Van A"}
	id, err := NewCarRepository().UpsertByPlate(context.Background(), db, car)
	if err != nil || id != 11 || car.ID != 11 {
		t.Fatalf("got id %d car %d err %v", id, car.ID, err)
	}
	expectationsMet(t, mock)
}

func TestComponentRepository_AddStock_DeletedIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE components SET stock_quantity = stock_quantity + $1")).
		WithArgs(5, sqlmock.AnyArg(), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}))

	_, err := NewComponentRepository().AddStock(context.Background(), db, 3, 5)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestSettingRepository_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT setting_value FROM system_settings")).
		WithArgs(models.SettingVATRate).
		WillReturnRows(sqlmock.NewRows([]string{"setting_value"}))

	_, err := NewSettingRepository().Get(context.Background(), db, models.SettingVATRate)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestReportRepository_RevenueByDay(t *testing.T) {
	db, mock := newMock(t)
	from, to := models.MonthRange(2024, 5, time.UTC)
	rows := sqlmock.NewRows([]string{"created_at", "total_amount"}).
		AddRow(time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC), "385000.00").
		AddRow(time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC), "120000.00").
		AddRow(time.Date(2024, 5, 17, 16, 0, 0, 0, time.UTC), "0.50")
	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices")).WithArgs(from, to).WillReturnRows(rows)

	revenue, err := NewReportRepository().RevenueByDay(context.Background(), db, from, to)
	if err != nil {
		t.Fatalf("RevenueByDay: %v", err)
	}
	if len(revenue) != 2 || !revenue[17].Equal(decimal.RequireFromString("120000.5")) {
		t.Fatalf("unexpected revenue %v", revenue)
	}
	expectationsMet(t, mock)
}

func TestReportRepository_RevenueByDayUsesWindowZone(t *testing.T) {
	db, mock := newMock(t)
	ict := time.FixedZone("ICT", 7*60*60)
	from, to := models.MonthRange(2024, 2, ict)
	rows := sqlmock.NewRows([]string{"created_at", "total_amount"}).
		// Feb 1 03:00 local, still Jan 31 in UTC
		AddRow(time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), "100.00").
		// Feb 29 23:30 local
		AddRow(time.Date(2024, 2, 29, 16, 30, 0, 0, time.UTC), "40.25")
	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices")).WithArgs(from, to).WillReturnRows(rows)

	revenue, err := NewReportRepository().RevenueByDay(context.Background(), db, from, to)
	if err != nil {
		t.Fatalf("RevenueByDay: %v", err)
	}
	if !revenue[1].Equal(decimal.RequireFromString("100")) {
		t.Fatalf("day 1 = %s, want 100 (revenue %v)", revenue[1], revenue)
	}
	if !revenue[29].Equal(decimal.RequireFromString("40.25")) {
		t.Fatalf("day 29 = %s, want 40.25 (revenue %v)", revenue[29], revenue)
	}
	if _, ok := revenue[31]; ok {
		t.Fatalf("revenue leaked into day 31: %v", revenue)
	}
	expectationsMet(t, mock)
}

func TestReportRepository_VehicleTypeCountsPassesUnknownLabel(t *testing.T) {
	db, mock := newMock(t)
	from, to := models.MonthRange(2024, 5, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reception_slips rs")).
		WithArgs(from, to, UnknownVehicleType).
		WillReturnRows(sqlmock.NewRows([]string{"label", "cnt"}).AddRow("Sedan", 4).AddRow("Unknown", 1))

	items, err := NewReportRepository().VehicleTypeCounts(context.Background(), db, from, to)
	if err != nil || len(items) != 2 || items[1].Label != "Unknown" {
		t.Fatalf("got %+v, %v", items, err)
	}
	expectationsMet(t, mock)
}

func TestReportRepository_LowStockQuery(t *testing.T) {
	db, mock := newMock(t)
	since := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	query := `(?s)SUM\(d\.quantity\) FILTER \(WHERE rp\.start_date >= \$2\).*` +
		`WHERE NOT cp\.is_deleted AND cp\.stock_quantity <= \$1.*` +
		`ORDER BY cp\.stock_quantity ASC`
	mock.ExpectQuery(query).
		WithArgs(10, since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "current_price", "stock_quantity", "recent_usage"}).
			AddRow(int64(4), "Brake pad", "50000.00", 0, 6).
			AddRow(int64(2), "Oil filter", "80000.00", 3, 2).
			AddRow(int64(9), "Spark plug", "30000.00", 10, 0))

	items, err := NewReportRepository().LowStock(context.Background(), db, 10, since)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %+v", items)
	}
	for i := 1; i < len(items); i++ {
		if items[i].StockQuantity < items[i-1].StockQuantity {
			t.Fatalf("not ascending by stock: %+v", items)
		}
	}
	if items[0].ComponentID != 4 || items[0].RecentUsage != 6 || !items[0].CurrentPrice.Equal(decimal.RequireFromString("50000")) {
		t.Fatalf("first item = %+v", items[0])
	}
	expectationsMet(t, mock)
}

func TestReportRepository_LowStockCountSkipsDeleted(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM components WHERE NOT is_deleted AND stock_quantity <= \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := NewReportRepository().LowStockCount(context.Background(), db, 5)
	if err != nil || count != 2 {
		t.Fatalf("LowStockCount = %d, %v", count, err)
	}
	expectationsMet(t, mock)
}

func TestReportRepository_ComponentUsageCountsLineItems(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)COUNT\(d\.id\)::int AS used.*LEFT JOIN repair_details d ON d\.component_id = cp\.id.*WHERE NOT cp\.is_deleted`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "current_price", "stock_quantity", "used"}).
			AddRow(int64(1), "Brake pad", "50000.00", 8, 3).
			AddRow(int64(2), "Coolant", "120000.00", 0, 0))

	items, err := NewReportRepository().ComponentUsage(context.Background(), db)
	if err != nil {
		t.Fatalf("ComponentUsage: %v", err)
	}
	if len(items) != 2 || items[0].Used != 3 || items[0].Inventory != 8 || items[1].Used != 0 {
		t.Fatalf("items = %+v", items)
	}
	expectationsMet(t, mock)
}
