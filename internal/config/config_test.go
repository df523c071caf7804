package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"DB_NAME", "MIGRATIONS_DIR", "PORT", "SLACK_BOT_TOKEN", "SLACK_CHANNEL_ID", "GCP_PROJECT", "MATCH_RATE_LIMIT", "TURSO_PRIMARY_URL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "league.db", cfg.DBName)
	assert.Equal(t, "./migrations", cfg.MigrationsDir)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5.0, cfg.MatchRateLimit)
	assert.Empty(t, cfg.ProjectID)
	assert.Empty(t, cfg.Turso.PrimaryURL)
	assert.False(t, cfg.Slack.Enabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_NAME", "other.db")
	t.Setenv("PORT", "9090")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL_ID", "C123")
	t.Setenv("GCP_PROJECT", "league-prod")
	t.Setenv("MATCH_RATE_LIMIT", "0.5")

	cfg := FromEnv()
	assert.Equal(t, "other.db", cfg.DBName)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "league-prod", cfg.ProjectID)
	assert.Equal(t, 0.5, cfg.MatchRateLimit)
	assert.True(t, cfg.Slack.Enabled())
}

func TestFromEnv_InvalidRateLimitFallsBack(t *testing.T) {
	t.Setenv("MATCH_RATE_LIMIT", "fast")
	assert.Equal(t, 5.0, FromEnv().MatchRateLimit)

	t.Setenv("MATCH_RATE_LIMIT", "-1")
	assert.Equal(t, 5.0, FromEnv().MatchRateLimit)
}
