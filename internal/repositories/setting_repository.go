package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car_repair_backend/internal/models"
)

// SettingRepository stores key/value settings.
type SettingRepository interface {
	Get(ctx context.Context, exec SQLExecutor, key string) (string, error)
	List(ctx context.Context, exec SQLExecutor) ([]models.Setting, error)
	Upsert(ctx context.Context, exec SQLExecutor, key, value string) error
}

type settingRepository struct{}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository() SettingRepository {
	return &settingRepository{}
}

func (r *settingRepository) Get(ctx context.Context, exec SQLExecutor, key string) (string, error) {
	var value string
	err := exec.QueryRowContext(ctx, `SELECT setting_value FROM system_settings WHERE setting_key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: getting setting %s: %v", ErrDatabaseError, key, err)
	}
	return value, nil
}

func (r *settingRepository) List(ctx context.Context, exec SQLExecutor) ([]models.Setting, error) {
	rows, err := exec.QueryContext(ctx, `SELECT setting_key, setting_value, updated_at FROM system_settings ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := []models.Setting{}
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating setting rows: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingRepository) Upsert(ctx context.Context, exec SQLExecutor, key, value string) error {
	query := `INSERT INTO system_settings (setting_key, setting_value, updated_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (setting_key) DO UPDATE SET
	              setting_value = EXCLUDED.setting_value,
	              updated_at = EXCLUDED.updated_at`
	if _, err := exec.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("%w: upserting setting %s: %v", ErrDatabaseError, key, err)
	}
	return nil
}
