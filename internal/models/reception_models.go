package models

import (
	"fmt"
	"strings"
	"time"
)

// IntakeStatus is the lifecycle state of a reception slip.
type IntakeStatus string

const (
	StatusPending   IntakeStatus = "pending"
	StatusWaiting   IntakeStatus = "waiting"
	StatusRepairing IntakeStatus = "repairing"
	StatusCompleted IntakeStatus = "completed"
	StatusPaid      IntakeStatus = "paid"
)

// IsValid reports whether s is a known status.
func (s IntakeStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusWaiting, StatusRepairing, StatusCompleted, StatusPaid:
		return true
	}
	return false
}

// IsQueued is true for cars waiting for a technician.
func (s IntakeStatus) IsQueued() bool {
	return s == StatusPending || s == StatusWaiting
}

// IsClosed is true once the repair has finished.
func (s IntakeStatus) IsClosed() bool {
	return s == StatusCompleted || s == StatusPaid
}

// CanTransitionTo encodes the forward-only workflow. Swapping between the two
// queue states is the only sideways move.
func (s IntakeStatus) CanTransitionTo(target IntakeStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusWaiting || target == StatusRepairing
	case StatusWaiting:
		return target == StatusPending || target == StatusRepairing
	case StatusRepairing:
		return target == StatusCompleted
	case StatusCompleted:
		return target == StatusPaid
	default:
		return false
	}
}

// ParseIntakeStatus rejects unrecognized values.
func ParseIntakeStatus(s string) (IntakeStatus, error) {
	st := IntakeStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// ReceptionSlip is the intake record created when a car arrives.
type ReceptionSlip struct {
	ID            int64        `json:"id" db:"id"`
	CarID         int64        `json:"car_id" db:"car_id"`
	ReceptionDate time.Time    `json:"reception_date" db:"reception_date"`
	Description   *string      `json:"description,omitempty" db:"description"`
	Status        IntakeStatus `json:"status" db:"status"`
	Car           *Car         `json:"car,omitempty"`
	RepairSlipID  *int64       `json:"repair_slip_id,omitempty"`
}

// ReceptionFilters narrows reception listings.
type ReceptionFilters struct {
	Statuses []IntakeStatus
	// OldestFirst orders by reception_date ascending; the default is newest first.
	OldestFirst bool
	Limit       int
}
