package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	Storage       string
	JWTSecret     string
	JWTTTL        time.Duration
	SweepSchedule string
	BcryptCost    int

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	NotifyEmail  string

	AdminUsername string
	AdminPassword string
}

// NewConfig loads configuration from environment variables. A .env file in the
// working directory, if present, fills in variables that are not already set.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		Storage:       strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTL:        ttl,
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@daily"),
		BcryptCost:    cost,
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "noreply@bank.local"),
		NotifyEmail:   getEnv("NOTIFY_EMAIL", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q", StoragePostgres, StorageMemory)
	}
	if cfg.AdminUsername != "" && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}

	return cfg, nil
}

// EmailEnabled reports whether operator notifications can be sent
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.NotifyEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
