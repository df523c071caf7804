package config

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() Config {
	getEnv := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME", "league.db"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		Port:          getEnv("PORT", "8080"),
		Slack: SlackConfig{
			Token:         getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID:     getEnv("SLACK_CHANNEL_ID", ""),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: getEnv("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnv("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID:      getEnv("GCP_PROJECT", ""),
		MatchRateLimit: defaultMatchRateLimit,
	}

	if raw := getEnv("MATCH_RATE_LIMIT", ""); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil || limit <= 0 {
			log.Warn("Ignoring invalid MATCH_RATE_LIMIT", "value", raw, "default", defaultMatchRateLimit)
		} else {
			cfg.MatchRateLimit = limit
		}
	}
	return cfg
}
