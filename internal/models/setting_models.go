package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting keys stored in system_settings.
const (
	SettingVATRate           = "vat_rate"
	SettingMaxCarsPerDay     = "max_cars_per_day"
	SettingLowStockThreshold = "low_stock_threshold"
)

// Defaults used when a setting is absent or unreadable.
const (
	DefaultVATRate           = 10
	DefaultMaxCarsPerDay     = 30
	DefaultLowStockThreshold = 10
)

// Setting is a raw key/value row.
type Setting struct {
	Key       string    `json:"setting_key" db:"setting_key"`
	Value     string    `json:"setting_value" db:"setting_value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SystemSettings is the typed view of all settings.
type SystemSettings struct {
	VATRate           decimal.Decimal `json:"vat_rate"`
	MaxCarsPerDay     int             `json:"max_cars_per_day"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}
