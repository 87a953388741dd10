package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/repositories"
	"car_repair_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"omitempty,max=150"`
	Role     string `json:"role" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, actor models.Actor, req RegisterUserRequest) (*models.User, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error)
	// EnsureDefaultUsers creates one account per role, named after the role,
	// for every role that has no such account yet. It returns how many were created.
	EnsureDefaultUsers(ctx context.Context, password string) (int, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       repositories.SQLExecutor
	hashCost int
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db repositories.SQLExecutor) AuthService {
	return &authService{authRepo: authRepo, db: db, hashCost: bcrypt.DefaultCost}
}

func (s *authService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a staff account. Only admins may call it.
func (s *authService) Register(ctx context.Context, actor models.Actor, req RegisterUserRequest) (*models.User, error) {
	if err := requireRole(actor, "register user", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username: strings.TrimSpace(req.Username),
		FullName: utils.NewNullString(req.FullName),
		Role:     role,
	}
	if _, err := s.authRepo.CreateUser(ctx, s.db, &user, hashedPassword); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %s", ErrUsernameExists, user.Username)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role, "by_user": actor.UserID})
	return &user, nil
}

// Login handles user login and token generation.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.authRepo.FindUserByUsername(ctx, s.db, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := utils.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

// Profile retrieves a user's profile by their ID.
func (s *authService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := requireRole(actor, "list users", models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.authRepo.ListUsers(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *authService) EnsureDefaultUsers(ctx context.Context, password string) (int, error) {
	if len(password) < 8 {
		return 0, fmt.Errorf("%w: seed password must be at least 8 characters", ErrValidation)
	}
	created := 0
	for _, role := range models.AllRoles {
		username := string(role)
		_, err := s.authRepo.FindUserByUsername(ctx, s.db, username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return created, fmt.Errorf("checking default user %s: %w", username, err)
		}
		hashedPassword, err := s.hashPassword(password)
		if err != nil {
			return created, err
		}
		user := models.User{Username: username, Role: role}
		if _, err := s.authRepo.CreateUser(ctx, s.db, &user, hashedPassword); err != nil {
			if isDuplicate(err) {
				continue
			}
			return created, fmt.Errorf("creating default user %s: %w", username, err)
		}
		created++
		utils.LogInfo("Default user created", map[string]interface{}{"user_id": user.ID, "role": role})
	}
	return created, nil
}
