package notifier

import (
	"context"

	"github.com/mauv0809/smash-ladder/internal/league"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For recorded matches
	SendMatchResult(ctx context.Context, match *league.Match, dryRun bool) error
	// For slash commands
	SendLeaderboard(ctx context.Context, players []league.Player, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(players []league.Player, level string) (any, error)
	FormatPlayerStatsResponse(player *league.Player, query string) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
}
