package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/metrics"
	"github.com/mauv0809/smash-ladder/internal/notifier"
	"github.com/mauv0809/smash-ladder/internal/rating"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	location  *time.Location
}

// NewNotifier creates a new Notifier. Without a token every message is
// logged as a dry run instead of posted.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	var api slackClient
	if token != "" {
		api = slack.New(token)
	} else {
		log.Warn("No Slack token configured, notifications will only be logged")
	}
	return NewNotifierWithAPI(api, channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		location:  loc,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun || s.api == nil {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendMatchResult(ctx context.Context, match *league.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchResult(match), dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(ctx context.Context, players []league.Player, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatLeaderboard(players, ""), dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(players []league.Player, level string) (any, error) {
	return s.formatLeaderboard(players, level), nil
}

// FormatPlayerStatsResponse formats a player stats message for a slash command response.
func (s *Notifier) FormatPlayerStatsResponse(player *league.Player, query string) (any, error) {
	return s.formatPlayerStats(player, query), nil
}

// FormatPlayerNotFoundResponse formats a player not found message for a slash command response.
func (s *Notifier) FormatPlayerNotFoundResponse(query string) (any, error) {
	return s.formatPlayerNotFound(query), nil
}

func teamName(m *league.Match, t league.Team) string {
	return m.PlayerName(t[0]) + " & " + m.PlayerName(t[1])
}

// signed renders a rating delta with an explicit sign, rounded for display.
func signed(d float64) string {
	return fmt.Sprintf("%+.2f", d)
}

// formatMatchResult creates the Slack message for a recorded match using Block Kit.
func (s *Notifier) formatMatchResult(match *league.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎾 Match recorded! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	teamA := teamName(match, match.TeamA)
	teamB := "Unknown opponents"
	if match.TeamB != nil {
		teamB = teamName(match, *match.TeamB)
	}
	winner := teamA
	if match.Winner() == rating.TeamB {
		winner = teamB
	}
	scoreText := fmt.Sprintf("%s %d – %d %s\nResult: %s won! 🏆", teamA, match.TeamAScore, match.TeamBScore, teamB, winner)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", scoreText, true, false), nil, nil))

	var fields []*slack.TextBlockObject
	for _, c := range match.Changes {
		name := c.PlayerName
		if name == "" {
			name = match.PlayerName(c.PlayerID)
		}
		after := c.RatingAfter()
		text := fmt.Sprintf("*%s*\n%.0f → %.0f (%s) · %s", name, c.RatingBefore, after, signed(c.Delta), rating.Classify(after).Name)
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", text, false, false))
	}
	if len(fields) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", "*Rating changes*", false, false), fields, nil))
	}

	playedAt := match.PlayedAt.In(s.location).Format("Monday 02 Jan, 15:04")
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Played "+playedAt, true, false)))

	return slack.NewBlockMessage(blocks...)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

// formatLeaderboard creates a Slack message to display the rating leaderboard.
func (s *Notifier) formatLeaderboard(players []league.Player, level string) slack.Message {
	blocks := make([]slack.Block, 0)

	title := "🏆 Player Leaderboard 🏆"
	if l, ok := rating.LevelByCode(level); ok {
		title = fmt.Sprintf("🏆 Leaderboard: %s (%s) 🏆", l.Name, l.Range())
	}
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", title, true, false)))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No players found. Go play some matches!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, p := range players {
		rank := i + 1
		l := p.Level()
		playerText := fmt.Sprintf("%d. %s %s\n> *Rating*: %.0f | *Level*: %s %s | *Won*: %d/%d",
			rank,
			medal(rank),
			p.Name(),
			p.Rating,
			l.Code,
			l.Name,
			p.MatchesWon,
			p.MatchesPlayed,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerStats creates a Slack message to display a single player's stats.
func (s *Notifier) formatPlayerStats(p *league.Player, query string) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("🏆 Stats for %s 🏆", p.Name())
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	l := p.Level()
	lines := []string{
		fmt.Sprintf("> *Rating*: %.1f", p.Rating),
		fmt.Sprintf("> *Level*: %s %s (%s)", l.Code, l.Name, l.Range()),
		fmt.Sprintf("> *Match Win %%*: %.2f%% (%d/%d)", p.WinPercentage(), p.MatchesWon, p.MatchesPlayed),
		fmt.Sprintf("> *Points Won*: %d", p.PointsWon),
		fmt.Sprintf("> *Affiliation*: %s", p.Affiliation),
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", strings.Join(lines, "\n"), false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerNotFound creates a Slack message for when a player is not found.
func (s *Notifier) formatPlayerNotFound(query string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a player matching *%s*. Try a different name.", query)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}
