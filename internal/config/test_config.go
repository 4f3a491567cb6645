package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from TEST_* variables.
// Integration tests run against sqlite, so only the database path and JWT settings are read.
// When TEST_DB_PATH is not set an in-memory database is used.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	// Try loading from project root
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = os.Getenv("TEST_DB_PATH")
	if cfg.Database.Path == "" {
		cfg.Database.Path = ":memory:"
	}

	cfg.JWT.Secret = os.Getenv("TEST_JWT_SECRET")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "integration-test-secret"
	}
	cfg.JWT.AccessTokenExpiry = time.Hour

	cfg.PromotionPolicy = os.Getenv("TEST_PROMOTION_POLICY")
	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = os.Getenv("TEST_MEDIA_BASE_PATH")
	cfg.Server.MaxUploadSize = 10 << 20

	return cfg, nil
}
