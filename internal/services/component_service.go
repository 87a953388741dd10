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

// CreateComponentRequest adds a part to the catalog.
type CreateComponentRequest struct {
	Name          string          `json:"name" binding:"required,max=120"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StockQuantity int             `json:"stock_quantity" binding:"gte=0"`
}

// UpdateComponentRequest edits a part. Nil fields are left alone.
type UpdateComponentRequest struct {
	Name          *string          `json:"name" binding:"omitempty,max=120"`
	CurrentPrice  *decimal.Decimal `json:"current_price"`
	StockQuantity *int             `json:"stock_quantity" binding:"omitempty,gte=0"`
}

// BatchPriceUpdateRequest maps component id to its new price.
type BatchPriceUpdateRequest struct {
	Prices map[int64]decimal.Decimal `json:"prices" binding:"required,min=1"`
}

// ComponentService manages the spare-part catalog.
type ComponentService interface {
	List(ctx context.Context) ([]models.Component, error)
	Get(ctx context.Context, id int64) (*models.Component, error)
	Create(ctx context.Context, actor models.Actor, req CreateComponentRequest) (*models.Component, error)
	Update(ctx context.Context, actor models.Actor, id int64, req UpdateComponentRequest) (*models.Component, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	// BatchUpdatePrices skips non-positive prices and unknown ids and returns
	// how many components were repriced.
	BatchUpdatePrices(ctx context.Context, actor models.Actor, req BatchPriceUpdateRequest) (int, error)
}

type componentService struct {
	componentRepo repositories.ComponentRepository
	db            repositories.SQLExecutor
	txRunner      repositories.TxRunner
}

// NewComponentService creates a new instance of ComponentService.
func NewComponentService(componentRepo repositories.ComponentRepository, db repositories.SQLExecutor, txRunner repositories.TxRunner) ComponentService {
	return &componentService{componentRepo: componentRepo, db: db, txRunner: txRunner}
}

func (s *componentService) List(ctx context.Context) ([]models.Component, error) {
	components, err := s.componentRepo.ListActive(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("listing components: %w", err)
	}
	return components, nil
}

func (s *componentService) Get(ctx context.Context, id int64) (*models.Component, error) {
	c, err := s.componentRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, notFound(err, "component %d", id)
	}
	if c.IsDeleted {
		return nil, fmt.Errorf("%w: component %d is deleted", ErrNotFound, id)
	}
	return c, nil
}

func (s *componentService) Create(ctx context.Context, actor models.Actor, req CreateComponentRequest) (*models.Component, error) {
	if err := requireRole(actor, "create component", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: component name cannot be empty", ErrValidation)
	}
	if req.CurrentPrice.IsNegative() {
		return nil, fmt.Errorf("%w: current_price cannot be negative", ErrValidation)
	}

	component := &models.Component{Name: name, CurrentPrice: req.CurrentPrice, StockQuantity: req.StockQuantity}
	if _, err := s.componentRepo.Create(ctx, s.db, component); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: component %q already exists", ErrConflict, name)
		}
		return nil, fmt.Errorf("creating component: %w", err)
	}
	utils.LogInfo("Component created", map[string]interface{}{"component_id": component.ID, "name": name})
	return component, nil
}

func (s *componentService) Update(ctx context.Context, actor models.Actor, id int64, req UpdateComponentRequest) (*models.Component, error) {
	if err := requireRole(actor, "update component", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	component, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: component name cannot be empty if provided", ErrValidation)
		}
		component.Name = name
	}
	if req.CurrentPrice != nil {
		if req.CurrentPrice.IsNegative() {
			return nil, fmt.Errorf("%w: current_price cannot be negative", ErrValidation)
		}
		component.CurrentPrice = *req.CurrentPrice
	}
	if req.StockQuantity != nil {
		component.StockQuantity = *req.StockQuantity
	}

	if err := s.componentRepo.Update(ctx, s.db, component); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: component %q already exists", ErrConflict, component.Name)
		}
		return nil, notFound(err, "updating component %d", id)
	}
	return component, nil
}

func (s *componentService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireRole(actor, "delete component", models.RoleAdmin); err != nil {
		return err
	}
	if err := s.componentRepo.SoftDelete(ctx, s.db, id); err != nil {
		return notFound(err, "deleting component %d", id)
	}
	utils.LogInfo("Component deleted", map[string]interface{}{"component_id": id, "by_user": actor.UserID})
	return nil
}

func (s *componentService) BatchUpdatePrices(ctx context.Context, actor models.Actor, req BatchPriceUpdateRequest) (int, error) {
	if err := requireRole(actor, "update component prices", models.RoleAdmin); err != nil {
		return 0, err
	}
	if len(req.Prices) == 0 {
		return 0, fmt.Errorf("%w: no prices provided", ErrValidation)
	}

	updated := 0
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for id, price := range req.Prices {
			if !price.IsPositive() {
				continue
			}
			if err := s.componentRepo.UpdatePrice(ctx, exec, id, price); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					continue
				}
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("updating component prices: %w", err)
	}
	utils.LogInfo("Component prices updated", map[string]interface{}{"count": updated, "by_user": actor.UserID})
	return updated, nil
}
