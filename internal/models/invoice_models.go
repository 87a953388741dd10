package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settled the invoice.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// ParsePaymentMethod defaults an empty value to cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentTransfer:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// Invoice is created once per repair when the customer pays.
type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	RepairSlipID  int64           `json:"repair_slip_id" db:"repair_slip_id"`
	CashierID     int64           `json:"cashier_id" db:"cashier_id"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	VATRate       decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	LicensePlate  *string         `json:"license_plate,omitempty"`
}

// InvoiceTotals is the computed bill for a repair.
type InvoiceTotals struct {
	RepairSlipID int64           `json:"repair_slip_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	Total        decimal.Decimal `json:"total"`
}
