package slack

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/metrics"
	"github.com/mauv0809/smash-ladder/internal/rating"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

// render joins the text of every block in msg, one block per line.
// Text is read from the block structs instead of the JSON payload, since
// slack-go escapes '&' and '>' when marshalling blocks.
func render(t *testing.T, msg slackapi.Message) string {
	t.Helper()
	var lines []string
	add := func(obj *slackapi.TextBlockObject) {
		if obj != nil {
			lines = append(lines, obj.Text)
		}
	}
	for _, b := range msg.Blocks.BlockSet {
		switch block := b.(type) {
		case *slackapi.HeaderBlock:
			add(block.Text)
		case *slackapi.SectionBlock:
			add(block.Text)
			for _, f := range block.Fields {
				add(f)
			}
		case *slackapi.ContextBlock:
			for _, e := range block.ContextElements.Elements {
				if obj, ok := e.(*slackapi.TextBlockObject); ok {
					add(obj)
				}
			}
		default:
			t.Fatalf("unexpected block type %T", b)
		}
	}
	return strings.Join(lines, "\n")
}

func testMatch() *league.Match {
	teamB := league.Team{"b1", "b2"}
	return &league.Match{
		ID:         "m1",
		TeamA:      league.Team{"a1", "a2"},
		TeamB:      &teamB,
		TeamAScore: 21,
		TeamBScore: 15,
		TeamADelta: 2.6667,
		TeamBDelta: -2.6667,
		PlayedAt:   time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC),
		PlayerNames: map[string]string{
			"a1": "Ada Lovelace", "a2": "Alan Turing",
			"b1": "Grace Hopper", "b2": "Linus Torvalds",
		},
		Changes: []league.RatingChange{
			{PlayerID: "a1", PlayerName: "Ada Lovelace", Team: rating.TeamA, RatingBefore: 1000, Delta: 1.3333},
			{PlayerID: "b1", Team: rating.TeamB, RatingBefore: 1000, Delta: -1.3333},
		},
	}
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	_, _, err := notifier.sendMessage(context.Background(), slackapi.NewBlockMessage(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestNewNotifier_WithoutTokenOnlyLogs(t *testing.T) {
	metrics := metrics.NewMock()
	notifier := NewNotifier("", "C123", metrics)

	err := notifier.SendMatchResult(context.Background(), testMatch(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendMatchResult(context.Background(), testMatch(), false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendLeaderboard(context.Background(), nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestFormatMatchResult(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	out := render(t, notifier.formatMatchResult(testMatch()))
	assert.Contains(t, out, "Ada Lovelace & Alan Turing 21 – 15 Grace Hopper & Linus Torvalds")
	assert.Contains(t, out, "Result: Ada Lovelace & Alan Turing won!")
	assert.Contains(t, out, "1000 → 1001 (+1.33)")
	assert.Contains(t, out, "*Grace Hopper*")
	assert.Contains(t, out, "(-1.33)")
}

func TestFormatMatchResult_OpponentUnknown(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())
	m := testMatch()
	m.TeamB = nil
	m.OpponentUnknown = true
	m.TeamAScore, m.TeamBScore = 3, 21

	out := render(t, notifier.formatMatchResult(m))
	assert.Contains(t, out, "Unknown opponents")
	assert.Contains(t, out, "Result: Unknown opponents won!")
}

func TestFormatLeaderboard(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	t.Run("empty", func(t *testing.T) {
		out := render(t, notifier.formatLeaderboard(nil, ""))
		assert.Contains(t, out, "No players found")
	})

	t.Run("ranked with medals and levels", func(t *testing.T) {
		players := []league.Player{
			{FirstName: "Ada", LastName: "Lovelace", Rating: 1512.4, MatchesPlayed: 10, MatchesWon: 9},
			{FirstName: "Alan", LastName: "Turing", Rating: 1049.6, MatchesPlayed: 4, MatchesWon: 2},
		}
		out := render(t, notifier.formatLeaderboard(players, ""))
		assert.Contains(t, out, "1. 🥇 Ada Lovelace")
		assert.Contains(t, out, "*Rating*: 1512")
		assert.Contains(t, out, "L8 Semi-Pro Tier")
		assert.Contains(t, out, "2. 🥈 Alan Turing")
		assert.Contains(t, out, "*Won*: 2/4")
	})

	t.Run("level title", func(t *testing.T) {
		out := render(t, notifier.formatLeaderboard(nil, "L2"))
		assert.Contains(t, out, "Leaderboard: Club Starter (900-999)")
	})
}

func TestFormatPlayerStats(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())
	p := &league.Player{FirstName: "Ada", LastName: "Lovelace", Affiliation: league.AffiliationEricsson, Rating: 899.9, MatchesPlayed: 4, MatchesWon: 1, PointsWon: 60}

	resp, err := notifier.FormatPlayerStatsResponse(p, "ada")
	require.NoError(t, err)
	out := render(t, resp.(slackapi.Message))
	assert.Contains(t, out, "Stats for Ada Lovelace")
	assert.Contains(t, out, "L1 Rookie (0-899)")
	assert.Contains(t, out, "25.00% (1/4)")
	assert.Contains(t, out, "*Points Won*: 60")
}

func TestFormatPlayerNotFound(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	resp, err := notifier.FormatPlayerNotFoundResponse("nobody")
	require.NoError(t, err)
	assert.Contains(t, render(t, resp.(slackapi.Message)), "couldn't find a player matching *nobody*")
}

func TestFormatMatchResult_KeepsAmpersandInTeamNames(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	msg := notifier.formatMatchResult(testMatch())
	require.GreaterOrEqual(t, len(msg.Blocks.BlockSet), 2)
	section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(section.Text.Text, "Ada Lovelace & Alan Turing 21 – 15"), section.Text.Text)
}
