// Package config provides Viper-backed configuration helpers.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment variables read by the CLI.
const EnvPrefix = "VENDORLENS"

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	// Check OS env directly first
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// DatabaseURL resolves the Postgres connection string: the explicit flag
// value wins, then VENDORLENS_DATABASE_URL, then the conventional
// DATABASE_URL and POSTGRES_URI variables.
func DatabaseURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	for _, key := range []string{EnvPrefix + "_DATABASE_URL", "DATABASE_URL", "POSTGRES_URI"} {
		if v := GetString(key); v != "" {
			return v
		}
	}
	return ""
}
