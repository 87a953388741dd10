package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
	"car_repair_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// Accepted ranges for the editable settings.
var (
	minVATRate        = decimal.Zero
	maxVATRate        = decimal.NewFromInt(100)
	minDailyCap       = 1
	maxDailyCap       = 1000
	minStockThreshold = 0
	maxStockThreshold = 100
)

// UpdateSettingsRequest changes any subset of the settings. Nil fields are left alone.
type UpdateSettingsRequest struct {
	VATRate           *decimal.Decimal `json:"vat_rate"`
	MaxCarsPerDay     *int             `json:"max_cars_per_day"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
}

// SettingsService reads typed settings with defaults and validates writes.
type SettingsService interface {
	VATRate(ctx context.Context) (decimal.Decimal, error)
	DailyCap(ctx context.Context) (int, error)
	LowStockThreshold(ctx context.Context) (int, error)
	All(ctx context.Context) (*models.SystemSettings, error)
	SetVATRate(ctx context.Context, actor models.Actor, rate decimal.Decimal) error
	SetDailyCap(ctx context.Context, actor models.Actor, limit int) error
	SetLowStockThreshold(ctx context.Context, actor models.Actor, threshold int) error
	// Update validates every provided field before writing any of them.
	Update(ctx context.Context, actor models.Actor, req UpdateSettingsRequest) (*models.SystemSettings, error)
}

type settingsService struct {
	settingRepo repositories.SettingRepository
	db          repositories.SQLExecutor
	txRunner    repositories.TxRunner
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(settingRepo repositories.SettingRepository, db repositories.SQLExecutor, txRunner repositories.TxRunner) SettingsService {
	return &settingsService{settingRepo: settingRepo, db: db, txRunner: txRunner}
}

// raw returns the stored value, or "" when the key is absent.
func (s *settingsService) raw(ctx context.Context, key string) (string, error) {
	value, err := s.settingRepo.Get(ctx, s.db, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return strings.TrimSpace(value), nil
}

func (s *settingsService) VATRate(ctx context.Context) (decimal.Decimal, error) {
	fallback := decimal.NewFromInt(models.DefaultVATRate)
	value, err := s.raw(ctx, models.SettingVATRate)
	if err != nil || value == "" {
		return fallback, err
	}
	rate, parseErr := decimal.NewFromString(value)
	if parseErr != nil || rate.LessThan(minVATRate) || rate.GreaterThan(maxVATRate) {
		utils.LogWarn("Stored VAT rate is invalid, using default", map[string]interface{}{"value": value, "default": fallback.String()})
		return fallback, nil
	}
	return rate, nil
}

func (s *settingsService) intSetting(ctx context.Context, key string, fallback, lo, hi int) (int, error) {
	value, err := s.raw(ctx, key)
	if err != nil || value == "" {
		return fallback, err
	}
	n, parseErr := strconv.Atoi(value)
	if parseErr != nil || n < lo || n > hi {
		utils.LogWarn("Stored setting is invalid, using default", map[string]interface{}{"key": key, "value": value, "default": fallback})
		return fallback, nil
	}
	return n, nil
}

func (s *settingsService) DailyCap(ctx context.Context) (int, error) {
	return s.intSetting(ctx, models.SettingMaxCarsPerDay, models.DefaultMaxCarsPerDay, minDailyCap, maxDailyCap)
}

func (s *settingsService) LowStockThreshold(ctx context.Context) (int, error) {
	return s.intSetting(ctx, models.SettingLowStockThreshold, models.DefaultLowStockThreshold, minStockThreshold, maxStockThreshold)
}

func (s *settingsService) All(ctx context.Context) (*models.SystemSettings, error) {
	vat, err := s.VATRate(ctx)
	if err != nil {
		return nil, err
	}
	limit, err := s.DailyCap(ctx)
	if err != nil {
		return nil, err
	}
	threshold, err := s.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	return &models.SystemSettings{VATRate: vat, MaxCarsPerDay: limit, LowStockThreshold: threshold}, nil
}

func validateVATRate(rate decimal.Decimal) error {
	if rate.LessThan(minVATRate) || rate.GreaterThan(maxVATRate) {
		return fmt.Errorf("%w: vat_rate must be between %s and %s, got %s", ErrValidation, minVATRate, maxVATRate, rate)
	}
	return nil
}

func validateRange(key string, n, lo, hi int) error {
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrValidation, key, lo, hi, n)
	}
	return nil
}

func (s *settingsService) SetVATRate(ctx context.Context, actor models.Actor, rate decimal.Decimal) error {
	_, err := s.Update(ctx, actor, UpdateSettingsRequest{VATRate: &rate})
	return err
}

func (s *settingsService) SetDailyCap(ctx context.Context, actor models.Actor, limit int) error {
	_, err := s.Update(ctx, actor, UpdateSettingsRequest{MaxCarsPerDay: &limit})
	return err
}

func (s *settingsService) SetLowStockThreshold(ctx context.Context, actor models.Actor, threshold int) error {
	_, err := s.Update(ctx, actor, UpdateSettingsRequest{LowStockThreshold: &threshold})
	return err
}

func (s *settingsService) Update(ctx context.Context, actor models.Actor, req UpdateSettingsRequest) (*models.SystemSettings, error) {
	if err := requireRole(actor, "update settings", models.RoleAdmin); err != nil {
		return nil, err
	}

	writes := map[string]string{}
	if req.VATRate != nil {
		if err := validateVATRate(*req.VATRate); err != nil {
			return nil, err
		}
		writes[models.SettingVATRate] = req.VATRate.String()
	}
	if req.MaxCarsPerDay != nil {
		if err := validateRange(models.SettingMaxCarsPerDay, *req.MaxCarsPerDay, minDailyCap, maxDailyCap); err != nil {
			return nil, err
		}
		writes[models.SettingMaxCarsPerDay] = strconv.Itoa(*req.MaxCarsPerDay)
	}
	if req.LowStockThreshold != nil {
		if err := validateRange(models.SettingLowStockThreshold, *req.LowStockThreshold, minStockThreshold, maxStockThreshold); err != nil {
			return nil, err
		}
		writes[models.SettingLowStockThreshold] = strconv.Itoa(*req.LowStockThreshold)
	}
	if len(writes) == 0 {
		return nil, fmt.Errorf("%w: no settings provided", ErrValidation)
	}

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for key, value := range writes {
			if err := s.settingRepo.Upsert(ctx, exec, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	utils.LogInfo("Settings updated", map[string]interface{}{"by_user": actor.UserID, "values": writes})
	return s.All(ctx)
}
