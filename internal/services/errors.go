package services

import (
	"errors"
	"fmt"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
)

// Error kinds returned by the services. Callers match them with errors.Is;
// details are attached with %w.
var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrCapacityExceeded     = errors.New("daily intake capacity reached")
	ErrDuplicateInvoice     = errors.New("repair has already been invoiced")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrRepairAlreadyStarted = errors.New("repair already started for this intake")
	ErrLineItemsLocked      = errors.New("line items are locked once the repair is completed")
	ErrForbidden            = errors.New("operation not permitted for this role")
	ErrConflict             = errors.New("conflicting record already exists")
)

func requireRole(actor models.Actor, op string, roles ...models.Role) error {
	if !actor.Can(roles...) {
		return fmt.Errorf("%w: %s requires role %v, caller is %q", ErrForbidden, op, roles, actor.Role)
	}
	return nil
}

// notFound converts repositories.ErrNotFound into the service kind and
// passes other errors through with context.
func notFound(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
