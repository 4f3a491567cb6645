// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database        DatabaseConfig
	Server          ServerConfig
	Logging         LoggingConfig
	CORS            CORSConfig
	JWT             JWTConfig
	Storage         StorageConfig
	PromotionPolicy string
}

// DatabaseConfig holds database connection settings.
// Driver selects which of the other fields are relevant.
type DatabaseConfig struct {
	Driver   string // "mysql" (default) or "sqlite"
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Path     string // sqlite only, file path or ":memory:"
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	MaxUploadSize      int64
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// StorageConfig holds file storage settings.
// Type selects which of the other fields are relevant.
type StorageConfig struct {
	Type string // "local" (default) or "s3"

	// local
	BasePath string
	BaseURL  string

	// s3
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string
	// Static credentials, optional. The default AWS chain is used when empty.
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 5000)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	maxUploadMB, err := intEnv("MAX_UPLOAD_SIZE_MB", 100)
	if err != nil {
		return nil, err
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: must be positive")
	}
	cfg.Server.MaxUploadSize = int64(maxUploadMB) << 20

	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	cfg.Server.RateLimitPerMinute = rateLimit

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Access token expiry (default: 1 day)
	accessExpiryStr := os.Getenv("JWT_ACCESS_TOKEN_EXPIRY")
	if accessExpiryStr == "" {
		accessExpiryStr = "24h"
	}
	accessExpiry, err := time.ParseDuration(accessExpiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}
	cfg.JWT.AccessTokenExpiry = accessExpiry

	// Who may promote users, validated by the roles package
	cfg.PromotionPolicy = os.Getenv("PROMOTION_POLICY")

	if err := loadStorage(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDatabase reads the DB_* variables
func loadDatabase(cfg *Config) error {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	cfg.Database.Driver = driver

	switch driver {
	case "sqlite":
		dbPath := os.Getenv("DB_PATH")
		if dbPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
		cfg.Database.Path = dbPath
		return nil
	case "mysql":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q, must be mysql or sqlite", driver)
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

// loadStorage reads the STORAGE_TYPE, MEDIA_* and S3_* variables
func loadStorage(cfg *Config) error {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local"
	}
	cfg.Storage.Type = storageType

	switch storageType {
	case "local":
		basePath := os.Getenv("MEDIA_BASE_PATH")
		if basePath == "" {
			basePath = "public" // default
		}
		cfg.Storage.BasePath = basePath
		cfg.Storage.BaseURL = strings.TrimRight(os.Getenv("MEDIA_BASE_URL"), "/")
	case "s3":
		cfg.Storage.S3Bucket = os.Getenv("S3_BUCKET")
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
		cfg.Storage.S3Prefix = strings.Trim(os.Getenv("S3_PREFIX"), "/")
		cfg.Storage.S3Region = os.Getenv("S3_REGION")
		cfg.Storage.S3Endpoint = os.Getenv("S3_ENDPOINT")
		cfg.Storage.S3PublicURL = strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/")
		cfg.Storage.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
		cfg.Storage.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
		if (cfg.Storage.S3AccessKeyID == "") != (cfg.Storage.S3SecretAccessKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q, must be local or s3", storageType)
	}
	return nil
}

// intEnv reads an integer variable, returning def when it is unset
func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseOrigins splits a comma-separated origin list, defaulting to all origins
func parseOrigins(s string) []string {
	if s == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, origin := range parts {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	// If no valid origins found, default to allow all
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// DSN returns the database connection string for the configured driver
func (c *Config) DSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
