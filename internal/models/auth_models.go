package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of staff roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleReception  Role = "reception"
	RoleTechnician Role = "technician"
	RoleCashier    Role = "cashier"
)

// AllRoles lists every valid role.
var AllRoles = []Role{RoleAdmin, RoleReception, RoleTechnician, RoleCashier}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleReception, RoleTechnician, RoleCashier:
		return true
	}
	return false
}

// ParseRole is case-insensitive and rejects unknown roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents a staff account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	UserID int64
	Role   Role
}

// Can reports whether the actor holds one of roles. Admin is always allowed.
func (a Actor) Can(roles ...Role) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
