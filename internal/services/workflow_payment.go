package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
	"car_repair_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

func (s *workflowService) ProcessPayment(ctx context.Context, actor models.Actor, repairID int64, req PaymentRequest) (*models.Invoice, error) {
	if err := requireRole(actor, "process payment", models.RoleCashier); err != nil {
		return nil, err
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total_amount cannot be negative", ErrValidation)
	}
	vatRate, err := s.settings.VATRate(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		repair, err := s.loadRepair(ctx, exec, repairID)
		if err != nil {
			return err
		}
		if repair.IsOpen() {
			return fmt.Errorf("%w: repair %d is not finished", ErrInvalidTransition, repairID)
		}
		if _, err := s.stores.Invoices.GetByRepairID(ctx, exec, repairID); err == nil {
			return fmt.Errorf("%w: repair %d", ErrDuplicateInvoice, repairID)
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if !repair.Reception.Status.CanTransitionTo(models.StatusPaid) {
			return fmt.Errorf("%w: intake %d is %s", ErrInvalidTransition, repair.ReceptionSlipID, repair.Reception.Status)
		}

		totals := ComputeInvoiceTotals(repairID, repair.Details, vatRate)
		if req.TotalAmount != nil && !req.TotalAmount.Equal(totals.Total) {
			return fmt.Errorf("%w: total_amount %s does not match invoice total %s", ErrValidation, req.TotalAmount, totals.Total)
		}

		invoice = &models.Invoice{
			RepairSlipID:  repairID,
			CashierID:     actor.UserID,
			TotalAmount:   totals.Total,
			VATRate:       vatRate,
			PaymentMethod: method,
			CreatedAt:     s.now(),
		}
		if _, err := s.stores.Invoices.Create(ctx, exec, invoice); err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: repair %d", ErrDuplicateInvoice, repairID)
			}
			return err
		}
		if err := s.stores.Receptions.UpdateStatus(ctx, exec, repair.ReceptionSlipID, models.StatusPaid); err != nil {
			return err
		}
		if repair.Reception.Car != nil {
			plate := repair.Reception.Car.LicensePlate
			invoice.LicensePlate = &plate
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("processing payment: %w", err)
	}
	utils.LogInfo("Payment processed", map[string]interface{}{
		"repair_id":  repairID,
		"invoice_id": invoice.ID,
		"total":      invoice.TotalAmount.String(),
		"method":     invoice.PaymentMethod,
		"cashier_id": actor.UserID,
	})
	return invoice, nil
}

func (s *workflowService) CashierQueue(ctx context.Context, actor models.Actor, status string) ([]models.CashierQueueItem, error) {
	if err := requireRole(actor, "view cashier queue", models.RoleCashier); err != nil {
		return nil, err
	}
	statuses := []models.IntakeStatus{models.StatusCompleted, models.StatusPaid}
	if status != "" && status != "all" {
		st, err := models.ParseIntakeStatus(status)
		if err != nil || !st.IsClosed() {
			return nil, fmt.Errorf("%w: status filter must be completed or paid, got %q", ErrValidation, status)
		}
		statuses = []models.IntakeStatus{st}
	}

	repairs, err := s.stores.Repairs.List(ctx, s.db, repositories.RepairFilters{Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("loading cashier queue: %w", err)
	}
	ids := make([]int64, len(repairs))
	for i, r := range repairs {
		ids[i] = r.ID
	}
	details, err := s.stores.LineItems.ListByRepairIDs(ctx, s.db, ids)
	if err != nil {
		return nil, fmt.Errorf("loading cashier queue line items: %w", err)
	}
	byRepair := make(map[int64][]models.RepairDetail, len(repairs))
	for _, d := range details {
		byRepair[d.RepairSlipID] = append(byRepair[d.RepairSlipID], d)
	}

	items := make([]models.CashierQueueItem, 0, len(repairs))
	for _, r := range repairs {
		r.Details = byRepair[r.ID]
		// subtotal only; VAT is applied at payment with the rate in force then
		totals := ComputeInvoiceTotals(r.ID, r.Details, decimal.Zero)
		item := models.CashierQueueItem{Repair: r, Subtotal: totals.Subtotal}
		if r.Reception != nil {
			item.Reception = *r.Reception
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *workflowService) RestockComponent(ctx context.Context, actor models.Actor, req RestockRequest) (*models.Component, error) {
	if err := requireRole(actor, "restock component", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	var component *models.Component
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.stores.Components.GetActiveByName(ctx, exec, name)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if existing == nil {
			component = &models.Component{Name: name, StockQuantity: req.Quantity}
			if req.Price != nil {
				component.CurrentPrice = *req.Price
			}
			if _, err := s.stores.Components.Create(ctx, exec, component); err != nil {
				if isDuplicate(err) {
					return fmt.Errorf("%w: component %q", ErrConflict, name)
				}
				return err
			}
			return nil
		}

		stock, err := s.stores.Components.AddStock(ctx, exec, existing.ID, req.Quantity)
		if err != nil {
			return notFound(err, "component %d", existing.ID)
		}
		existing.StockQuantity = stock
		if req.Price != nil {
			if err := s.stores.Components.UpdatePrice(ctx, exec, existing.ID, *req.Price); err != nil {
				return notFound(err, "component %d", existing.ID)
			}
			existing.CurrentPrice = *req.Price
		}
		component = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restocking component: %w", err)
	}
	utils.LogInfo("Component restocked", map[string]interface{}{"component_id": component.ID, "name": component.Name, "added": req.Quantity, "stock": component.StockQuantity})
	return component, nil
}
