package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepairSlip is the work record opened when a technician starts on a car.
type RepairSlip struct {
	ID              int64          `json:"id" db:"id"`
	ReceptionSlipID int64          `json:"reception_slip_id" db:"reception_slip_id"`
	TechnicianID    int64          `json:"technician_id" db:"technician_id"`
	StartDate       time.Time      `json:"start_date" db:"start_date"`
	EndDate         *time.Time     `json:"end_date,omitempty" db:"end_date"`
	TechnicianName  *string        `json:"technician_name,omitempty"`
	Reception       *ReceptionSlip `json:"reception,omitempty"`
	Details         []RepairDetail `json:"details,omitempty"`
}

// IsOpen is true until the repair is finished.
func (r RepairSlip) IsOpen() bool {
	return r.EndDate == nil
}

// RepairDetail is a line item: a part, labor, or both.
type RepairDetail struct {
	ID            int64           `json:"id" db:"id"`
	RepairSlipID  int64           `json:"repair_slip_id" db:"repair_slip_id"`
	ComponentID   *int64          `json:"component_id,omitempty" db:"component_id"`
	ComponentName *string         `json:"component_name,omitempty"`
	Quantity      int             `json:"quantity" db:"quantity"`
	PriceAtTime   decimal.Decimal `json:"price_at_time" db:"price_at_time"`
	Category      *string         `json:"category,omitempty" db:"category"`
	LaborFee      decimal.Decimal `json:"labor_fee" db:"labor_fee"`
}

// LineTotal is price_at_time * quantity + labor_fee.
func (d RepairDetail) LineTotal() decimal.Decimal {
	return d.PriceAtTime.Mul(decimal.NewFromInt(int64(d.Quantity))).Add(d.LaborFee)
}

// TechnicianBoard is the technician's landing view.
type TechnicianBoard struct {
	Queue     []ReceptionSlip `json:"queue"`
	MyRepairs []RepairSlip    `json:"my_repairs"`
}

// CashierQueueItem is a finished repair awaiting or past payment.
type CashierQueueItem struct {
	Reception ReceptionSlip   `json:"reception"`
	Repair    RepairSlip      `json:"repair"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
