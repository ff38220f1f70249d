// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageAzure = "azure"
)

// Push drivers.
const (
	PushExpo = "expo"
	PushLog  = "log"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Public URL of this API, used to build image URLs for the local storage backend.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	MigrateOnStart   bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Sessions
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"beanbook"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Image storage
	StorageBackend        string `env:"STORAGE_BACKEND" envDefault:"local"`
	StorageLocalDir       string `env:"STORAGE_LOCAL_DIR" envDefault:"./data/objects"`
	AzureStorageAccount   string `env:"AZURE_STORAGE_ACCOUNT_URL"`
	AzureStorageContainer string `env:"AZURE_STORAGE_CONTAINER" envDefault:"beanbook"`
	MaxImageSize          int64  `env:"MAX_IMAGE_SIZE" envDefault:"5242880"`

	// Push delivery
	PushDriver      string  `env:"PUSH_DRIVER" envDefault:"expo"`
	ExpoPushURL     string  `env:"EXPO_PUSH_URL" envDefault:"https://exp.host/--/api/v2/push/send"`
	ExpoAccessToken string  `env:"EXPO_ACCESS_TOKEN"`
	PushRPS         float64 `env:"PUSH_RPS" envDefault:"10"`

	// Daily reminder
	ReminderEnabled  bool   `env:"REMINDER_ENABLED" envDefault:"true"`
	ReminderSchedule string `env:"REMINDER_SCHEDULE" envDefault:"0 8 * * *"`
	ReminderTimezone string `env:"REMINDER_TIMEZONE" envDefault:"UTC"`

	// Change feed worker
	EventWorkerEnabled bool `env:"EVENT_WORKER_ENABLED" envDefault:"true"`

	// Rate limiting
	RateLimitEnabled       bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitUserPerMinute int  `env:"RATE_LIMIT_USER_PER_MINUTE" envDefault:"300"`
	RateLimitUserBurst     int  `env:"RATE_LIMIT_USER_BURST" envDefault:"60"`
	RateLimitIPPerMinute   int  `env:"RATE_LIMIT_IP_PER_MINUTE" envDefault:"60"`
	RateLimitIPBurst       int  `env:"RATE_LIMIT_IP_BURST" envDefault:"20"`

	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes for JSON endpoints (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ReminderLocation resolves ReminderTimezone.
func (c *Config) ReminderLocation() (*time.Location, error) {
	return time.LoadLocation(c.ReminderTimezone)
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case StorageLocal:
		if c.StorageLocalDir == "" {
			errs = append(errs, errors.New("STORAGE_LOCAL_DIR is required for the local storage backend"))
		}
	case StorageAzure:
		if c.AzureStorageAccount == "" {
			errs = append(errs, errors.New("AZURE_STORAGE_ACCOUNT_URL is required for the azure storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	if c.PushDriver != PushExpo && c.PushDriver != PushLog {
		errs = append(errs, fmt.Errorf("unknown PUSH_DRIVER %q", c.PushDriver))
	}
	if c.PushRPS <= 0 {
		errs = append(errs, errors.New("PUSH_RPS must be positive"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.MaxImageSize <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_SIZE must be positive"))
	}
	if _, err := c.ReminderLocation(); err != nil {
		errs = append(errs, fmt.Errorf("REMINDER_TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Outside production a .env file in the working directory is read first;
// variables already set in the environment win.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
