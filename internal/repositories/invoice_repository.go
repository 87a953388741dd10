package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car_repair_backend/internal/models"
)

// InvoiceRepository persists invoices. repair_slip_id is unique, so a second
// insert for the same repair returns ErrDuplicateKey.
type InvoiceRepository interface {
	Create(ctx context.Context, exec SQLExecutor, invoice *models.Invoice) (int64, error)
	GetByRepairID(ctx context.Context, exec SQLExecutor, repairID int64) (*models.Invoice, error)
	ListRecent(ctx context.Context, exec SQLExecutor, limit int) ([]models.Invoice, error)
}

type invoiceRepository struct{}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository() InvoiceRepository {
	return &invoiceRepository{}
}

func (r *invoiceRepository) Create(ctx context.Context, exec SQLExecutor, invoice *models.Invoice) (int64, error) {
	query := `INSERT INTO invoices (repair_slip_id, cashier_id, total_amount, vat_rate, payment_method, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	err := exec.QueryRowContext(ctx, query,
		invoice.RepairSlipID, invoice.CashierID, invoice.TotalAmount, invoice.VATRate, invoice.PaymentMethod, invoice.CreatedAt,
	).Scan(&invoice.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating invoice for repair %d", invoice.RepairSlipID))
	}
	return invoice.ID, nil
}

func (r *invoiceRepository) GetByRepairID(ctx context.Context, exec SQLExecutor, repairID int64) (*models.Invoice, error) {
	query := `SELECT id, repair_slip_id, cashier_id, total_amount, vat_rate, payment_method, created_at
	          FROM invoices WHERE repair_slip_id = $1`
	inv := &models.Invoice{}
	err := exec.QueryRowContext(ctx, query, repairID).Scan(
		&inv.ID, &inv.RepairSlipID, &inv.CashierID, &inv.TotalAmount, &inv.VATRate, &inv.PaymentMethod, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting invoice for repair %d: %v", ErrDatabaseError, repairID, err)
	}
	return inv, nil
}

func (r *invoiceRepository) ListRecent(ctx context.Context, exec SQLExecutor, limit int) ([]models.Invoice, error) {
	query := `SELECT i.id, i.repair_slip_id, i.cashier_id, i.total_amount, i.vat_rate, i.payment_method, i.created_at,
	                 c.license_plate
	          FROM invoices i
	          JOIN repair_slips rp ON rp.id = i.repair_slip_id
	          JOIN reception_slips rs ON rs.id = rp.reception_slip_id
	          JOIN cars c ON c.id = rs.car_id
	          ORDER BY i.created_at DESC, i.id DESC
	          LIMIT $1`
	rows, err := exec.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recent invoices: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		var inv models.Invoice
		var plate string
		if err := rows.Scan(&inv.ID, &inv.RepairSlipID, &inv.CashierID, &inv.TotalAmount, &inv.VATRate,
			&inv.PaymentMethod, &inv.CreatedAt, &plate); err != nil {
			return nil, fmt.Errorf("%w: scanning invoice: %v", ErrDatabaseError, err)
		}
		inv.LicensePlate = &plate
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating invoice rows: %v", ErrDatabaseError, err)
	}
	return invoices, nil
}
