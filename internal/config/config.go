package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"bhss/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Notify    NotifyConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite3"
	URL    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AuthConfig holds token and bootstrap admin settings
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

// StorageConfig selects where uploaded delivery images live
type StorageConfig struct {
	UploadDir string
	S3Bucket  string
	S3Region  string
}

// NotifyConfig holds websocket notification settings
type NotifyConfig struct {
	ReplaySize int
	// AllowedOrigins lists browser origins accepted besides the server's own
	// host; "*" accepts any
	AllowedOrigins []string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load auth configuration")
	}
	config.Auth = *authConfig

	config.Server = *loadServerConfig()
	config.Storage = *loadStorageConfig()
	config.Notify = *loadNotifyConfig()
	config.Profiling = *loadProfilingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    url,
	}, nil
}

func loadAuthConfig() (*AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.ConfigInvalid("JWT_SECRET is required")
	}

	return &AuthConfig{
		JWTSecret:     secret,
		TokenTTL:      getEnvDurationOrDefault("TOKEN_TTL", 24*time.Hour),
		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", ""),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		UploadDir: getEnvOrDefault("UPLOAD_DIR", "./uploads"),
		S3Bucket:  getEnvOrDefault("S3_BUCKET", ""),
		S3Region:  getEnvOrDefault("S3_REGION", "ap-southeast-1"),
	}
}

func loadNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		ReplaySize:     getEnvIntOrDefault("NOTIFY_REPLAY", 50),
		AllowedOrigins: getEnvListOrDefault("NOTIFY_ALLOWED_ORIGINS", nil),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite3")
	}
	if config.Auth.TokenTTL <= 0 {
		return errors.ConfigInvalid("TOKEN_TTL must be positive")
	}
	if (config.Auth.AdminEmail == "") != (config.Auth.AdminPassword == "") {
		return errors.ConfigInvalid("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if config.Notify.ReplaySize < 0 {
		return errors.ConfigInvalid("NOTIFY_REPLAY cannot be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
