package config

import (
	"fmt"
	"strings"
	"time"

	"car_repair_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the server.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DB DatabaseConfig

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string
	DefaultPhoneRegion string
	SeedDefaults       bool
	// SeedPassword is given to the default accounts created when SeedDefaults is set.
	SeedPassword       string

	Workflow WorkflowPolicy
}

// DatabaseConfig describes the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

// DSN renders a lib/pq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// WorkflowPolicy toggles the guards that the shop floor may want relaxed.
type WorkflowPolicy struct {
	// LockItemsAfterCompletion rejects line item changes once the car is completed or paid.
	LockItemsAfterCompletion bool
	// EnforceManualTransitions limits status writes on the intake edit path to queue swaps.
	EnforceManualTransitions bool
}

// DefaultWorkflowPolicy is the hardened policy.
func DefaultWorkflowPolicy() WorkflowPolicy {
	return WorkflowPolicy{LockItemsAfterCompletion: true, EnforceManualTransitions: true}
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	defaults := DefaultWorkflowPolicy()
	return Config{
		AppEnv:   utils.Getenv("APP_ENV", "development"),
		Port:     utils.Getenv("PORT", "8080"),
		LogLevel: utils.Getenv("LOG_LEVEL", "info"),
		DB: DatabaseConfig{
			Host:     utils.Getenv("DB_HOST", "localhost"),
			Port:     utils.Getenv("DB_PORT", "5432"),
			User:     utils.Getenv("DB_USER", "garage_user"),
			Password: utils.Getenv("DB_PASSWORD", "garage_password"),
			Name:     utils.Getenv("DB_NAME", "garage_db"),
			SSLMode:  utils.Getenv("DB_SSLMODE", "disable"),
			Migrate:  utils.GetenvBool("DB_MIGRATE", true),
		},
		JWTSecret:          utils.Getenv("JWT_SECRET", "dev-only-car-repair-secret-change-me"),
		JWTTTL:             utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		CORSAllowedOrigins: splitList(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		DefaultPhoneRegion: strings.ToUpper(utils.Getenv("DEFAULT_PHONE_REGION", "VN")),
		SeedDefaults:       utils.GetenvBool("SEED_DEFAULTS", false),
		SeedPassword:       utils.Getenv("SEED_PASSWORD", "garage-admin-123"),
		Workflow: WorkflowPolicy{
			LockItemsAfterCompletion: utils.GetenvBool("LOCK_ITEMS_AFTER_COMPLETION", defaults.LockItemsAfterCompletion),
			EnforceManualTransitions: utils.GetenvBool("ENFORCE_MANUAL_TRANSITIONS", defaults.EnforceManualTransitions),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
