package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/smash-ladder/internal/league"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendMatchResultFunc              func(match *league.Match, dryRun bool) error
	FormatLeaderboardResponseFunc    func(players []league.Player, level string) (any, error)
	FormatPlayerStatsResponseFunc    func(player *league.Player, query string) (any, error)
	FormatPlayerNotFoundResponseFunc func(query string) (any, error)

	// Call records
	SendMatchResultCalls []struct {
		Match  *league.Match
		DryRun bool
	}
	SendLeaderboardCalls           [][]league.Player
	FormatLeaderboardResponseCalls []struct {
		Players []league.Player
		Level   string
	}
	FormatPlayerStatsResponseCalls []struct {
		Player *league.Player
		Query  string
	}
	FormatPlayerNotFoundResponseCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = nil
	m.SendLeaderboardCalls = nil
	m.FormatLeaderboardResponseCalls = nil
	m.FormatPlayerStatsResponseCalls = nil
	m.FormatPlayerNotFoundResponseCalls = nil
}

func (m *Mock) SendMatchResult(_ context.Context, match *league.Match, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, struct {
		Match  *league.Match
		DryRun bool
	}{match, dryRun})
	m.mu.Unlock()
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(match, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(_ context.Context, players []league.Player, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	return nil
}

func (m *Mock) FormatLeaderboardResponse(players []league.Player, level string) (any, error) {
	m.mu.Lock()
	m.FormatLeaderboardResponseCalls = append(m.FormatLeaderboardResponseCalls, struct {
		Players []league.Player
		Level   string
	}{players, level})
	m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		return m.FormatLeaderboardResponseFunc(players, level)
	}
	return map[string]string{"text": "leaderboard"}, nil
}

func (m *Mock) FormatPlayerStatsResponse(player *league.Player, query string) (any, error) {
	m.mu.Lock()
	m.FormatPlayerStatsResponseCalls = append(m.FormatPlayerStatsResponseCalls, struct {
		Player *league.Player
		Query  string
	}{player, query})
	m.mu.Unlock()
	if m.FormatPlayerStatsResponseFunc != nil {
		return m.FormatPlayerStatsResponseFunc(player, query)
	}
	return map[string]string{"text": "stats"}, nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	m.mu.Lock()
	m.FormatPlayerNotFoundResponseCalls = append(m.FormatPlayerNotFoundResponseCalls, query)
	m.mu.Unlock()
	if m.FormatPlayerNotFoundResponseFunc != nil {
		return m.FormatPlayerNotFoundResponseFunc(query)
	}
	return map[string]string{"text": "not found"}, nil
}
