package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car_repair_backend/internal/config"
	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
	"car_repair_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// IntakeRequest carries the reception form: the car, its owner and the
// customer's complaint. It is used both to create and to edit an intake.
type IntakeRequest struct {
	LicensePlate string `json:"license_plate" binding:"required,max=20"`
	OwnerName    string `json:"owner_name" binding:"required,max=150"`
	PhoneNumber  string `json:"phone_number" binding:"omitempty,max=32"`
	Address      string `json:"address" binding:"omitempty,max=255"`
	Email        string `json:"email" binding:"omitempty,email,max=120"`
	VehicleType  string `json:"vehicle_type" binding:"omitempty,max=50"`
	Color        string `json:"color" binding:"omitempty,max=30"`
	Description  string `json:"description"`
	Status       string `json:"status"`
}

// LineItemRequest adds a part and/or labor to a repair. When UnitPrice is
// nil the component's current price is snapshotted.
type LineItemRequest struct {
	ComponentID *int64           `json:"component_id" binding:"omitempty,gt=0"`
	Quantity    *int             `json:"quantity" binding:"omitempty,gte=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Category    string           `json:"category" binding:"omitempty,max=50"`
	LaborFee    decimal.Decimal  `json:"labor_fee"`
}

// UpdateLineItemRequest edits the mutable fields of a line item. The price
// snapshot and the component cannot be changed.
type UpdateLineItemRequest struct {
	Quantity *int             `json:"quantity" binding:"omitempty,gte=1"`
	Category *string          `json:"category" binding:"omitempty,max=50"`
	LaborFee *decimal.Decimal `json:"labor_fee"`
}

// PaymentRequest settles a finished repair. TotalAmount, when given, must
// equal the computed invoice total.
type PaymentRequest struct {
	TotalAmount   *decimal.Decimal `json:"total_amount"`
	PaymentMethod string           `json:"payment_method"`
}

// RestockRequest adds stock to the active component with the given name,
// creating it when it does not exist.
type RestockRequest struct {
	Name     string           `json:"name" binding:"required,max=120"`
	Quantity int              `json:"quantity" binding:"required,gt=0"`
	Price    *decimal.Decimal `json:"price"`
}

// ReceptionDashboard is the reception landing view.
type ReceptionDashboard struct {
	Intakes    []models.ReceptionSlip `json:"intakes"`
	TodayCount int                    `json:"today_count"`
	DailyCap   int                    `json:"daily_cap"`
}

// IntakeDetail is an intake with its repair, if one was started.
type IntakeDetail struct {
	Reception *models.ReceptionSlip `json:"reception"`
	Repair    *models.RepairSlip    `json:"repair,omitempty"`
}

// WorkflowStores groups the repositories the workflow engine writes through.
type WorkflowStores struct {
	Cars       repositories.CarRepository
	Receptions repositories.ReceptionRepository
	Repairs    repositories.RepairRepository
	LineItems  repositories.LineItemRepository
	Components repositories.ComponentRepository
	Invoices   repositories.InvoiceRepository
}

// WorkflowService drives a car from intake to payment. Every mutation runs in
// one transaction and every call names its actor explicitly.
type WorkflowService interface {
	CreateIntake(ctx context.Context, actor models.Actor, req IntakeRequest) (*models.ReceptionSlip, error)
	UpdateIntake(ctx context.Context, actor models.Actor, id int64, req IntakeRequest) (*models.ReceptionSlip, error)
	GetIntake(ctx context.Context, actor models.Actor, id int64) (*IntakeDetail, error)
	ListIntakes(ctx context.Context, actor models.Actor) (*ReceptionDashboard, error)

	StartRepair(ctx context.Context, actor models.Actor, intakeID int64) (*models.RepairSlip, error)
	GetRepair(ctx context.Context, actor models.Actor, repairID int64) (*models.RepairSlip, error)
	AddLineItem(ctx context.Context, actor models.Actor, repairID int64, req LineItemRequest) (*models.RepairDetail, error)
	UpdateLineItem(ctx context.Context, actor models.Actor, itemID int64, req UpdateLineItemRequest) (*models.RepairDetail, error)
	// DeleteLineItem returns the id of the repair the item belonged to.
	DeleteLineItem(ctx context.Context, actor models.Actor, itemID int64) (int64, error)
	FinishRepair(ctx context.Context, actor models.Actor, repairID int64) (*models.RepairSlip, error)
	TechnicianBoard(ctx context.Context, actor models.Actor, status string) (*models.TechnicianBoard, error)

	ProcessPayment(ctx context.Context, actor models.Actor, repairID int64, req PaymentRequest) (*models.Invoice, error)
	CashierQueue(ctx context.Context, actor models.Actor, status string) ([]models.CashierQueueItem, error)

	RestockComponent(ctx context.Context, actor models.Actor, req RestockRequest) (*models.Component, error)
}

type workflowService struct {
	stores      WorkflowStores
	settings    SettingsService
	db          repositories.SQLExecutor
	txRunner    repositories.TxRunner
	policy      config.WorkflowPolicy
	phoneRegion string
	now         func() time.Time
}

// NewWorkflowService creates a new instance of WorkflowService.
func NewWorkflowService(
	stores WorkflowStores,
	settings SettingsService,
	db repositories.SQLExecutor,
	txRunner repositories.TxRunner,
	policy config.WorkflowPolicy,
	phoneRegion string,
) WorkflowService {
	return &workflowService{
		stores:      stores,
		settings:    settings,
		db:          db,
		txRunner:    txRunner,
		policy:      policy,
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
}

// carFromRequest normalizes plate and phone so the same car is always found
// under the same plate.
func (s *workflowService) carFromRequest(req IntakeRequest) (*models.Car, error) {
	plate := utils.NormalizePlate(req.LicensePlate)
	if plate == "" {
		return nil, fmt.Errorf("%w: license_plate cannot be empty", ErrValidation)
	}
	owner := strings.TrimSpace(req.OwnerName)
	if owner == "" {
		return nil, fmt.Errorf("%w: owner_name cannot be empty", ErrValidation)
	}
	phone, err := utils.NormalizePhone(req.PhoneNumber, s.phoneRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &models.Car{
		LicensePlate: plate,
		OwnerName:    owner,
		PhoneNumber:  utils.NewNullString(phone),
		Address:      utils.NewNullString(req.Address),
		Email:        utils.NewNullString(strings.ToLower(req.Email)),
		VehicleType:  utils.NewNullString(req.VehicleType),
		Color:        utils.NewNullString(req.Color),
	}, nil
}

func (s *workflowService) today() (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *workflowService) CreateIntake(ctx context.Context, actor models.Actor, req IntakeRequest) (*models.ReceptionSlip, error) {
	if err := requireRole(actor, "create intake", models.RoleReception); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	car, err := s.carFromRequest(req)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	if req.Status != "" {
		status, err = models.ParseIntakeStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if !status.IsQueued() {
			return nil, fmt.Errorf("%w: a new intake must start as pending or waiting, got %s", ErrValidation, status)
		}
	}

	limit, err := s.settings.DailyCap(ctx)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := s.today()

	slip := &models.ReceptionSlip{
		ReceptionDate: s.now(),
		Description:   utils.NewNullString(req.Description),
		Status:        status,
	}
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.stores.Receptions.CountReceivedBetween(ctx, exec, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if count >= limit {
			return fmt.Errorf("%w: %d of %d cars already received today", ErrCapacityExceeded, count, limit)
		}
		carID, err := s.stores.Cars.UpsertByPlate(ctx, exec, car)
		if err != nil {
			return err
		}
		slip.CarID = carID
		_, err = s.stores.Receptions.Create(ctx, exec, slip)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating intake: %w", err)
	}

	slip.Car = car
	utils.LogInfo("Intake created", map[string]interface{}{"reception_id": slip.ID, "plate": car.LicensePlate, "status": slip.Status, "by_user": actor.UserID})
	return slip, nil
}

func (s *workflowService) UpdateIntake(ctx context.Context, actor models.Actor, id int64, req IntakeRequest) (*models.ReceptionSlip, error) {
	if err := requireRole(actor, "edit intake", models.RoleReception); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	car, err := s.carFromRequest(req)
	if err != nil {
		return nil, err
	}
	var target models.IntakeStatus
	if req.Status != "" {
		target, err = models.ParseIntakeStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	var slip *models.ReceptionSlip
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.stores.Receptions.GetByID(ctx, exec, id)
		if err != nil {
			return notFound(err, "intake %d", id)
		}
		if target != "" && target != current.Status {
			if s.policy.EnforceManualTransitions && !(current.Status.IsQueued() && target.IsQueued()) {
				return fmt.Errorf("%w: manual edit cannot move intake %d from %s to %s", ErrInvalidTransition, id, current.Status, target)
			}
			current.Status = target
		}
		carID, err := s.stores.Cars.UpsertByPlate(ctx, exec, car)
		if err != nil {
			return err
		}
		current.CarID = carID
		current.Description = utils.NewNullString(req.Description)
		if err := s.stores.Receptions.Update(ctx, exec, current); err != nil {
			return notFound(err, "updating intake %d", id)
		}
		current.Car = car
		slip = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("editing intake: %w", err)
	}
	utils.LogInfo("Intake updated", map[string]interface{}{"reception_id": id, "status": slip.Status, "by_user": actor.UserID})
	return slip, nil
}

func (s *workflowService) GetIntake(ctx context.Context, actor models.Actor, id int64) (*IntakeDetail, error) {
	if err := requireRole(actor, "view intake", models.RoleReception, models.RoleTechnician, models.RoleCashier); err != nil {
		return nil, err
	}
	slip, err := s.stores.Receptions.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, notFound(err, "intake %d", id)
	}
	detail := &IntakeDetail{Reception: slip}
	if slip.RepairSlipID != nil {
		repair, err := s.loadRepair(ctx, s.db, *slip.RepairSlipID)
		if err != nil {
			return nil, err
		}
		detail.Repair = repair
	}
	return detail, nil
}

func (s *workflowService) ListIntakes(ctx context.Context, actor models.Actor) (*ReceptionDashboard, error) {
	if err := requireRole(actor, "list intakes", models.RoleReception); err != nil {
		return nil, err
	}
	intakes, err := s.stores.Receptions.List(ctx, s.db, models.ReceptionFilters{})
	if err != nil {
		return nil, fmt.Errorf("listing intakes: %w", err)
	}
	dayStart, dayEnd := s.today()
	count, err := s.stores.Receptions.CountReceivedBetween(ctx, s.db, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("counting today's intakes: %w", err)
	}
	limit, err := s.settings.DailyCap(ctx)
	if err != nil {
		return nil, err
	}
	return &ReceptionDashboard{Intakes: intakes, TodayCount: count, DailyCap: limit}, nil
}

// loadRepair fetches a repair with its line items.
func (s *workflowService) loadRepair(ctx context.Context, exec repositories.SQLExecutor, repairID int64) (*models.RepairSlip, error) {
	repair, err := s.stores.Repairs.GetByID(ctx, exec, repairID)
	if err != nil {
		return nil, notFound(err, "repair %d", repairID)
	}
	details, err := s.stores.LineItems.ListByRepairIDs(ctx, exec, []int64{repairID})
	if err != nil {
		return nil, fmt.Errorf("loading line items for repair %d: %w", repairID, err)
	}
	repair.Details = details
	return repair, nil
}

// isDuplicate reports a unique constraint violation from the store.
func isDuplicate(err error) bool {
	return errors.Is(err, repositories.ErrDuplicateKey)
}
