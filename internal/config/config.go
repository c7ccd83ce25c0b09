package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Backend API Configuration
	API APIConfig

	// Web client Configuration
	Web WebConfig

	// Local state Configuration
	Storage StorageConfig

	// Drafts Configuration
	Drafts DraftsConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gte=0"` // 0 keeps the HTTP client's default (no timeout)
}

// WebConfig holds the local web client settings
type WebConfig struct {
	ListenAddr  string `validate:"required"`
	CORSOrigins []string
}

// StorageConfig holds where the client keeps its local state
type StorageConfig struct {
	DataDir    string `validate:"required"`
	TokenStore string `validate:"oneof=file keyring memory"`
}

// DraftsConfig holds the local drafts database settings
type DraftsConfig struct {
	DatabasePath  string        `validate:"required"`
	Retention     time.Duration `validate:"gt=0"`
	PruneSchedule string        `validate:"required"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dataDir := os.Getenv("BLOGDECK_DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".config", "blogdeck")
	}

	timeout, err := durationEnv("BLOGDECK_HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	retention, err := durationEnv("BLOGDECK_DRAFTS_RETENTION", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	draftsDB := os.Getenv("BLOGDECK_DRAFTS_DB")
	if draftsDB == "" {
		draftsDB = filepath.Join(dataDir, "drafts.sqlite")
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(stringEnv("BLOGDECK_API_URL", "http://127.0.0.1:8000"), "/"),
			Timeout: timeout,
		},
		Web: WebConfig{
			ListenAddr:  stringEnv("BLOGDECK_LISTEN_ADDR", "127.0.0.1:8080"),
			CORSOrigins: splitList(stringEnv("BLOGDECK_CORS_ORIGINS", "http://localhost:5173")),
		},
		Storage: StorageConfig{
			DataDir:    dataDir,
			TokenStore: stringEnv("BLOGDECK_TOKEN_STORE", "file"),
		},
		Drafts: DraftsConfig{
			DatabasePath:  draftsDB,
			Retention:     retention,
			PruneSchedule: stringEnv("BLOGDECK_DRAFTS_PRUNE_SCHEDULE", "@daily"),
		},
		Logging: LoggingConfig{
			// Logging configuration - defaults suitable for production
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func stringEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
