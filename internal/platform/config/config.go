package config

import (
	"os"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	RedecoAPIBase string
	ReuneAPIBase  string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	SessionTTL    time.Duration
	Environment   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("REDECO_PORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	redecoBase := os.Getenv("REDECO_API_BASE")
	if redecoBase == "" {
		redecoBase = "https://api.condusef.gob.mx"
	}

	reuneBase := os.Getenv("REUNE_API_BASE")
	if reuneBase == "" {
		reuneBase = "https://api-reune.condusef.gob.mx"
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		// Use a default for development - should be overridden in production
		sessionSecret = "dev-secret-key-change-in-production"
	}

	sessionTTL := 12 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sessionTTL = d
		}
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	return Config{
		Addr:          addr,
		RedecoAPIBase: redecoBase,
		ReuneAPIBase:  reuneBase,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		SessionSecret: sessionSecret,
		SessionTTL:    sessionTTL,
		Environment:   environment,
	}
}
