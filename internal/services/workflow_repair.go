package services

import (
	"context"
	"fmt"
	"strings"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
	"car_repair_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

func (s *workflowService) StartRepair(ctx context.Context, actor models.Actor, intakeID int64) (*models.RepairSlip, error) {
	if err := requireRole(actor, "start repair", models.RoleTechnician); err != nil {
		return nil, err
	}

	var repair *models.RepairSlip
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		slip, err := s.stores.Receptions.GetByID(ctx, exec, intakeID)
		if err != nil {
			return notFound(err, "intake %d", intakeID)
		}
		if slip.RepairSlipID != nil {
			return fmt.Errorf("%w: intake %d already has repair %d", ErrRepairAlreadyStarted, intakeID, *slip.RepairSlipID)
		}
		if !slip.Status.CanTransitionTo(models.StatusRepairing) {
			return fmt.Errorf("%w: intake %d is %s", ErrInvalidTransition, intakeID, slip.Status)
		}

		repair = &models.RepairSlip{
			ReceptionSlipID: intakeID,
			TechnicianID:    actor.UserID,
			StartDate:       s.now(),
		}
		if _, err := s.stores.Repairs.Create(ctx, exec, repair); err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: intake %d", ErrRepairAlreadyStarted, intakeID)
			}
			return err
		}
		if err := s.stores.Receptions.UpdateStatus(ctx, exec, intakeID, models.StatusRepairing); err != nil {
			return err
		}
		slip.Status = models.StatusRepairing
		slip.RepairSlipID = &repair.ID
		repair.Reception = slip
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("starting repair: %w", err)
	}
	utils.LogInfo("Repair started", map[string]interface{}{"repair_id": repair.ID, "reception_id": intakeID, "technician_id": actor.UserID})
	return repair, nil
}

func (s *workflowService) GetRepair(ctx context.Context, actor models.Actor, repairID int64) (*models.RepairSlip, error) {
	if err := requireRole(actor, "view repair", models.RoleTechnician, models.RoleCashier); err != nil {
		return nil, err
	}
	return s.loadRepair(ctx, s.db, repairID)
}

// checkItemsUnlocked applies the line item lock policy.
func (s *workflowService) checkItemsUnlocked(repair *models.RepairSlip) error {
	if !s.policy.LockItemsAfterCompletion || repair.Reception == nil {
		return nil
	}
	if repair.Reception.Status.IsClosed() {
		return fmt.Errorf("%w: repair %d is %s", ErrLineItemsLocked, repair.ID, repair.Reception.Status)
	}
	return nil
}

func (s *workflowService) AddLineItem(ctx context.Context, actor models.Actor, repairID int64, req LineItemRequest) (*models.RepairDetail, error) {
	if err := requireRole(actor, "add line item", models.RoleTechnician); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.LaborFee.IsNegative() {
		return nil, fmt.Errorf("%w: labor_fee cannot be negative", ErrValidation)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit_price cannot be negative", ErrValidation)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item := &models.RepairDetail{
		RepairSlipID: repairID,
		ComponentID:  req.ComponentID,
		Quantity:     quantity,
		PriceAtTime:  decimal.Zero,
		Category:     utils.NewNullString(req.Category),
		LaborFee:     req.LaborFee,
	}
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		repair, err := s.stores.Repairs.GetByID(ctx, exec, repairID)
		if err != nil {
			return notFound(err, "repair %d", repairID)
		}
		if err := s.checkItemsUnlocked(repair); err != nil {
			return err
		}
		if req.ComponentID != nil {
			component, err := s.stores.Components.GetByID(ctx, exec, *req.ComponentID)
			if err != nil {
				return notFound(err, "component %d", *req.ComponentID)
			}
			if component.Lifecycle() != models.ComponentActive {
				return fmt.Errorf("%w: component %d is no longer available", ErrValidation, component.ID)
			}
			item.PriceAtTime = component.CurrentPrice
			name := component.Name
			item.ComponentName = &name
		}
		if req.UnitPrice != nil {
			item.PriceAtTime = *req.UnitPrice
		}
		_, err = s.stores.LineItems.Create(ctx, exec, item)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adding line item: %w", err)
	}
	utils.LogInfo("Line item added", map[string]interface{}{"repair_id": repairID, "item_id": item.ID, "price_at_time": item.PriceAtTime.String()})
	return item, nil
}

func (s *workflowService) UpdateLineItem(ctx context.Context, actor models.Actor, itemID int64, req UpdateLineItemRequest) (*models.RepairDetail, error) {
	if err := requireRole(actor, "update line item", models.RoleTechnician); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.LaborFee != nil && req.LaborFee.IsNegative() {
		return nil, fmt.Errorf("%w: labor_fee cannot be negative", ErrValidation)
	}

	var item *models.RepairDetail
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		item, err = s.stores.LineItems.GetByID(ctx, exec, itemID)
		if err != nil {
			return notFound(err, "line item %d", itemID)
		}
		repair, err := s.stores.Repairs.GetByID(ctx, exec, item.RepairSlipID)
		if err != nil {
			return notFound(err, "repair %d", item.RepairSlipID)
		}
		if err := s.checkItemsUnlocked(repair); err != nil {
			return err
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.Category != nil {
			item.Category = utils.NewNullString(strings.TrimSpace(*req.Category))
		}
		if req.LaborFee != nil {
			item.LaborFee = *req.LaborFee
		}
		if err := s.stores.LineItems.UpdateMutable(ctx, exec, item); err != nil {
			return notFound(err, "updating line item %d", itemID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating line item: %w", err)
	}
	return item, nil
}

func (s *workflowService) DeleteLineItem(ctx context.Context, actor models.Actor, itemID int64) (int64, error) {
	if err := requireRole(actor, "delete line item", models.RoleTechnician); err != nil {
		return 0, err
	}

	var repairID int64
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		item, err := s.stores.LineItems.GetByID(ctx, exec, itemID)
		if err != nil {
			return notFound(err, "line item %d", itemID)
		}
		repair, err := s.stores.Repairs.GetByID(ctx, exec, item.RepairSlipID)
		if err != nil {
			return notFound(err, "repair %d", item.RepairSlipID)
		}
		if err := s.checkItemsUnlocked(repair); err != nil {
			return err
		}
		if err := s.stores.LineItems.Delete(ctx, exec, itemID); err != nil {
			return notFound(err, "deleting line item %d", itemID)
		}
		repairID = item.RepairSlipID
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting line item: %w", err)
	}
	utils.LogInfo("Line item deleted", map[string]interface{}{"repair_id": repairID, "item_id": itemID})
	return repairID, nil
}

func (s *workflowService) FinishRepair(ctx context.Context, actor models.Actor, repairID int64) (*models.RepairSlip, error) {
	if err := requireRole(actor, "finish repair", models.RoleTechnician); err != nil {
		return nil, err
	}

	var repair *models.RepairSlip
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		repair, err = s.stores.Repairs.GetByID(ctx, exec, repairID)
		if err != nil {
			return notFound(err, "repair %d", repairID)
		}
		if !repair.IsOpen() {
			return fmt.Errorf("%w: repair %d has no open work", ErrNotFound, repairID)
		}
		if !repair.Reception.Status.CanTransitionTo(models.StatusCompleted) {
			return fmt.Errorf("%w: intake %d is %s", ErrInvalidTransition, repair.ReceptionSlipID, repair.Reception.Status)
		}
		end := s.now()
		if err := s.stores.Repairs.Finish(ctx, exec, repairID, end); err != nil {
			return notFound(err, "repair %d has no open work", repairID)
		}
		if err := s.stores.Receptions.UpdateStatus(ctx, exec, repair.ReceptionSlipID, models.StatusCompleted); err != nil {
			return err
		}
		repair.EndDate = &end
		repair.Reception.Status = models.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finishing repair: %w", err)
	}
	utils.LogInfo("Repair finished", map[string]interface{}{"repair_id": repairID, "technician_id": actor.UserID})
	return repair, nil
}

// technicianBoardStatuses are the statuses a technician may filter own repairs by.
var technicianBoardStatuses = []models.IntakeStatus{models.StatusRepairing, models.StatusCompleted}

func (s *workflowService) TechnicianBoard(ctx context.Context, actor models.Actor, status string) (*models.TechnicianBoard, error) {
	if err := requireRole(actor, "view technician board", models.RoleTechnician); err != nil {
		return nil, err
	}
	statuses := technicianBoardStatuses
	if status != "" && status != "all" {
		st, err := models.ParseIntakeStatus(status)
		if err != nil || (st != models.StatusRepairing && st != models.StatusCompleted) {
			return nil, fmt.Errorf("%w: status filter must be repairing or completed, got %q", ErrValidation, status)
		}
		statuses = []models.IntakeStatus{st}
	}

	queue, err := s.stores.Receptions.List(ctx, s.db, models.ReceptionFilters{
		Statuses:    []models.IntakeStatus{models.StatusPending, models.StatusWaiting},
		OldestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading repair queue: %w", err)
	}

	filters := repositories.RepairFilters{Statuses: statuses}
	if actor.Role != models.RoleAdmin {
		techID := actor.UserID
		filters.TechnicianID = &techID
	}
	repairs, err := s.stores.Repairs.List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("loading technician repairs: %w", err)
	}
	return &models.TechnicianBoard{Queue: queue, MyRepairs: repairs}, nil
}
