// Package config loads application configuration from the environment.
// A .env file in the working directory is honoured for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, assembled once in main and
// passed down explicitly; no package reads the environment after startup.
type Config struct {
	Port         int
	DBPath       string
	JWTSecret    string
	UploadDir    string
	PublicOrigin string // optional; overrides request-derived origin in image URLs
	CORSOrigins  []string
	Production   bool
}

// Load reads configuration from the environment, applying defaults that
// match local development. JWT_SECRET is the only required value.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         5000,
		DBPath:       getEnv("DB_PATH", "data/careblog.db"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		PublicOrigin: strings.TrimRight(os.Getenv("PUBLIC_ORIGIN"), "/"),
		CORSOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Production:   strings.EqualFold(os.Getenv("APP_ENV"), "production"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
