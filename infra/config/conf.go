package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
)

// AppConfig represents the application configuration
type AppConfig struct {
	Port        string
	BaseURL     string
	Environment string
	DBPath      string
	Validator   *validator.Validate
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

// App returns the process-wide application configuration, built from the
// environment on first use.
func App() *AppConfig {
	appOnce.Do(func() {
		appConfig = &AppConfig{
			Port:        GetEnv("APP_PORT", "9999"),
			BaseURL:     GetEnv("APP_URL", "http://localhost:9999"),
			Environment: GetEnv("APP_ENV", "sandbox"),
			DBPath:      GetEnv("DB_PATH", "data/ortakpos.db"),
			Validator:   validator.New(),
		}
	})
	return appConfig
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
