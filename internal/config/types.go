package config

const defaultMatchRateLimit = 5

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	ProjectID     string
	// MatchRateLimit is the number of match submissions accepted per second.
	MatchRateLimit float64
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

// Enabled reports whether messages can actually be posted.
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.ChannelID != ""
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
