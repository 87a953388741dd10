package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car_repair_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, exec SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, exec SQLExecutor, username string) (*models.User, error)
	FindUserByID(ctx context.Context, exec SQLExecutor, userID int64) (*models.User, error)
	ListUsers(ctx context.Context, exec SQLExecutor) ([]models.User, error)
}

type authRepository struct{}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository() AuthRepository {
	return &authRepository{}
}

const userColumns = `id, username, password_hash, full_name, role, is_active, created_at`

// CreateUser inserts a new active user. A taken username yields ErrDuplicateKey.
func (r *authRepository) CreateUser(ctx context.Context, exec SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at)
	          VALUES ($1, $2, $3, $4, TRUE, $5)
	          RETURNING id`
	user.CreatedAt = time.Now()
	user.IsActive = true
	err := exec.QueryRowContext(ctx, query, user.Username, hashedPassword, user.FullName, user.Role, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating user "+user.Username)
	}
	return user.ID, nil
}

// FindUserByUsername returns the user including the password hash.
func (r *authRepository) FindUserByUsername(ctx context.Context, exec SQLExecutor, username string) (*models.User, error) {
	user, err := scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, nil
}

// FindUserByID returns the user without the password hash.
func (r *authRepository) FindUserByID(ctx context.Context, exec SQLExecutor, userID int64) (*models.User, error) {
	user, err := scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (r *authRepository) ListUsers(ctx context.Context, exec SQLExecutor) ([]models.User, error) {
	rows, err := exec.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		u.PasswordHash = ""
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
