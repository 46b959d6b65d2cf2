package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// FleetMode selects how arks are constructed ("sim" builds in-process
	// static-rate pools; anything else halts at startup).
	FleetMode string

	// FleetConfigPath is the path to the YAML fleet definition.
	FleetConfigPath string

	// WebPort is the dashboard listen port.
	WebPort string

	// TipAccrualCron is the cron expression for the tip accrual cadence.
	TipAccrualCron string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All environment variables are required unless a
// default is noted.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	FleetMode, err = getEnv("FLEET_MODE")
	if err != nil {
		return err
	}

	FleetConfigPath, err = getEnv("FLEET_CONFIG")
	if err != nil {
		return err
	}

	WebPort = getEnvOr("WEB_PORT", "8080")
	TipAccrualCron = getEnvOr("TIP_ACCRUAL_CRON", "0 0 * * * *") // hourly

	log.Debug().
		Str("FleetMode", FleetMode).
		Str("FleetConfig", FleetConfigPath).
		Str("WebPort", WebPort).
		Str("TipAccrualCron", TipAccrualCron).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOr retrieves a string environment variable with a fallback.
func getEnvOr(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt retrieves an environment variable as an int with a fallback.
func GetEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Msg("Invalid integer environment variable, using fallback")
		return fallback
	}
	return value
}
