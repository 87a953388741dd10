package models

import "time"

// Car is a customer vehicle, identified by its license plate.
type Car struct {
	ID           int64     `json:"id" db:"id"`
	LicensePlate string    `json:"license_plate" db:"license_plate"`
	OwnerName    string    `json:"owner_name" db:"owner_name"`
	PhoneNumber  *string   `json:"phone_number,omitempty" db:"phone_number"`
	Address      *string   `json:"address,omitempty" db:"address"`
	Email        *string   `json:"email,omitempty" db:"email"`
	VehicleType  *string   `json:"vehicle_type,omitempty" db:"vehicle_type"`
	Color        *string   `json:"color,omitempty" db:"color"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
