package services

import (
	"car_repair_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeInvoiceTotals is the one place the bill is calculated. The cashier
// preview and the payment commit both call it, so the charged amount always
// equals the previewed one.
//
//	subtotal = sum(price_at_time * quantity + labor_fee)
//	vat      = subtotal * rate / 100, exact
//	total    = subtotal + vat
//
// Prices and the rate carry two decimals, so vat fits the four-decimal
// total_amount column without rounding.
func ComputeInvoiceTotals(repairID int64, details []models.RepairDetail, vatRate decimal.Decimal) models.InvoiceTotals {
	subtotal := decimal.Zero
	for _, d := range details {
		subtotal = subtotal.Add(d.LineTotal())
	}
	vat := subtotal.Mul(vatRate).Shift(-2)
	return models.InvoiceTotals{
		RepairSlipID: repairID,
		Subtotal:     subtotal,
		VATRate:      vatRate,
		VATAmount:    vat,
		Total:        subtotal.Add(vat),
	}
}
