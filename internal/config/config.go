package config

import (
	"os"
	"strconv"

	"tabguard/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Paths    PathConfig
	Crypto   CryptoConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths
type PathConfig struct {
	// PublicKeyFile, when set, is published by the API server so data
	// holders can fetch the encryption key over HTTP.
	PublicKeyFile string
}

// CryptoConfig holds passphrase policy settings
type CryptoConfig struct {
	MinPassphraseLength int
	RequireUpper        bool
	RequireLower        bool
	RequireDigit        bool
	RequirePunct        bool
}

// DatabaseConfig holds optional Postgres settings for lookup-table
// persistence. Empty URL disables the database-backed repository.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Paths: PathConfig{
			PublicKeyFile: getEnvOrDefault("PUBLIC_KEY_FILE", ""),
		},
		Crypto: CryptoConfig{
			MinPassphraseLength: getEnvIntOrDefault("PASSPHRASE_MIN_LENGTH", 10),
			RequireUpper:        getEnvBoolOrDefault("PASSPHRASE_REQUIRE_UPPER", true),
			RequireLower:        getEnvBoolOrDefault("PASSPHRASE_REQUIRE_LOWER", true),
			RequireDigit:        getEnvBoolOrDefault("PASSPHRASE_REQUIRE_DIGIT", true),
			RequirePunct:        getEnvBoolOrDefault("PASSPHRASE_REQUIRE_PUNCT", false),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Crypto.MinPassphraseLength < 1 {
		return errors.ConfigInvalid("passphrase minimum length must be positive")
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
