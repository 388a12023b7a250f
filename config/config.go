package config

import (
	"os"
	"strings"

	"aidocs/pkg/logger"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the process together.
type Config struct {
	Port         string
	DBUser       string
	DBPass       string
	DBHost       string
	DBPort       string
	DBName       string
	JWTSecret    string
	RedisURL     string
	OpenAIAPIKey string
}

// Load reads a .env file if present, then falls back to OS environment variables.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := Config{
		Port:         env("PORT", "8080"),
		DBUser:       env("user", ""),
		DBPass:       env("password", ""),
		DBHost:       env("host", ""),
		DBPort:       env("port", "5432"),
		DBName:       env("dbname", ""),
		JWTSecret:    env("JWT_SECRET", ""),
		RedisURL:     env("REDIS_URL", "redis://127.0.0.1:6379"),
		OpenAIAPIKey: env("OPENAI_API_KEY", ""),
	}

	if cfg.JWTSecret == "" {
		logger.Sugar.Warn("JWT_SECRET is not set; all authenticated requests will be rejected")
	}
	return cfg
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
