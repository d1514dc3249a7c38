package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBPath      string
	JWTSecret   string
	TokenTTL    time.Duration
	SessionPath string
	ExportDir   string
	LogPath     string
}

func Load() Config {
	return Config{
		DBPath:      getEnv("DB_PATH", "./data/timetracker.db"),
		JWTSecret:   getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:    time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		SessionPath: getEnv("SESSION_PATH", "./data/session"),
		ExportDir:   getEnv("EXPORT_DIR", "./exports"),
		LogPath:     getEnv("LOG_PATH", "./data/timetracker.log"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
