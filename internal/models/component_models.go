package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentLifecycle is derived from the is_deleted column.
type ComponentLifecycle string

const (
	ComponentActive  ComponentLifecycle = "active"
	ComponentDeleted ComponentLifecycle = "deleted"
)

// Component is a stocked spare part.
type Component struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	CurrentPrice  decimal.Decimal `json:"current_price" db:"current_price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	IsDeleted     bool            `json:"-" db:"is_deleted"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Lifecycle returns Active or Deleted.
func (c Component) Lifecycle() ComponentLifecycle {
	if c.IsDeleted {
		return ComponentDeleted
	}
	return ComponentActive
}
