package app

import (
	"os"
	"time"
)

type Config struct {
	APIBaseURL   string        // Required: hospital backend base URL
	DatabaseFile string        // Optional: path to SQLite state file (default: ./hospital.db)
	Env          string        // Environment (dev, staging, prod) (default: dev)
	LogLevel     string        // Log level (debug, info, warn, error) (default: info)
	LogFormat    string        // Log format (json, text) (default: json)
	Version      string        // Build version string (default: dev)
	ReconcileInt time.Duration // Permission reconciliation interval (default: 30s)

	SessionTimeout time.Duration // Inactivity timeout (default: 30m)
	WarningLead    time.Duration // Warning lead before expiry (default: 5m)
}

func LoadConfig() Config {
	return Config{
		APIBaseURL:     getEnvOrDefault("HOSPITAL_API_URL", "http://localhost:3000"),
		DatabaseFile:   getEnvOrDefault("HOSPITAL_STATE_FILE", "hospital.db"),
		Env:            getEnvOrDefault("ENV", "dev"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "json"),
		Version:        getEnvOrDefault("VERSION", "dev"),
		ReconcileInt:   getEnvDurationOrDefault("PERMISSION_RECONCILE_INTERVAL", 30*time.Second),
		SessionTimeout: getEnvDurationOrDefault("SESSION_TIMEOUT", 30*time.Minute),
		WarningLead:    getEnvDurationOrDefault("SESSION_WARNING_LEAD", 5*time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
