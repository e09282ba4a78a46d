package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backend selectors.
const (
	StoreBackendMemory = "memory"
	StoreBackendPgsql  = "pgsql"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	StoreBackend  string
	RunMigrations bool
	MigrationsDir string
}

// LoadConfig loads configuration from environment variables and .env file if
// present. Environment variables override .env values, which override the
// defaults.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORE_BACKEND", StoreBackendMemory)
	viper.SetDefault("RUN_MIGRATIONS", true)
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:   viper.GetString("PGSQL_URL"),
		Port:          viper.GetString("PORT"),
		IsProduction:  viper.GetBool("IS_PRODUCTION"),
		StoreBackend:  viper.GetString("STORE_BACKEND"),
		RunMigrations: viper.GetBool("RUN_MIGRATIONS"),
		MigrationsDir: viper.GetString("MIGRATIONS_DIR"),
	}

	switch cfg.StoreBackend {
	case StoreBackendMemory, StoreBackendPgsql:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be %q or %q", cfg.StoreBackend, StoreBackendMemory, StoreBackendPgsql)
	}
	if cfg.StoreBackend == StoreBackendPgsql && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL must be set when STORE_BACKEND is %q", StoreBackendPgsql)
	}
	if cfg.StoreBackend == StoreBackendMemory && cfg.DatabaseURL == "" {
		log.Println("Running with the in-memory store; state is lost on shutdown.")
	}

	return cfg, nil
}
