package league

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	AddPlayerFunc        func(ctx context.Context, reg Registration) (*Player, error)
	GetPlayerFunc        func(ctx context.Context, playerID string) (*Player, error)
	GetAllPlayersFunc    func(ctx context.Context, filter PlayerFilter) ([]Player, error)
	FindByIDsFunc        func(ctx context.Context, playerIDs []string) ([]Player, error)
	FindPlayerByNameFunc func(ctx context.Context, name string) (*Player, error)
	GetAllMatchesFunc    func(ctx context.Context) ([]Match, error)
	GetRatingHistoryFunc func(ctx context.Context, playerID string) ([]RatingChange, error)
	// AtomicallyFunc replaces the default, which runs fn against Tx.
	AtomicallyFunc func(ctx context.Context, fn func(Tx) error) error

	// Tx is handed to fn by the default Atomically.
	Tx *MockTx

	AddPlayerCalls        []Registration
	GetPlayerCalls        []string
	GetAllPlayersCalls    []PlayerFilter
	FindByIDsCalls        [][]string
	FindPlayerByNameCalls []string
	GetRatingHistoryCalls []string
	AtomicallyCalls       int
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{Tx: &MockTx{}}
}

// Calls is the total number of recorded calls across all methods.
func (m *MockStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AddPlayerCalls) + len(m.GetPlayerCalls) + len(m.GetAllPlayersCalls) +
		len(m.FindByIDsCalls) + len(m.FindPlayerByNameCalls) + len(m.GetRatingHistoryCalls) +
		m.AtomicallyCalls
}

func (m *MockStore) AddPlayer(ctx context.Context, reg Registration) (*Player, error) {
	m.mu.Lock()
	m.AddPlayerCalls = append(m.AddPlayerCalls, reg)
	m.mu.Unlock()
	if m.AddPlayerFunc != nil {
		return m.AddPlayerFunc(ctx, reg)
	}
	return &Player{FirstName: reg.FirstName, LastName: reg.LastName, Affiliation: Affiliation(reg.Affiliation)}, nil
}

func (m *MockStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	m.mu.Lock()
	m.GetPlayerCalls = append(m.GetPlayerCalls, playerID)
	m.mu.Unlock()
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, playerID)
	}
	return nil, ErrPlayerNotFound
}

func (m *MockStore) GetAllPlayers(ctx context.Context, filter PlayerFilter) ([]Player, error) {
	m.mu.Lock()
	m.GetAllPlayersCalls = append(m.GetAllPlayersCalls, filter)
	m.mu.Unlock()
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockStore) FindByIDs(ctx context.Context, playerIDs []string) ([]Player, error) {
	m.mu.Lock()
	m.FindByIDsCalls = append(m.FindByIDsCalls, playerIDs)
	m.mu.Unlock()
	if m.FindByIDsFunc != nil {
		return m.FindByIDsFunc(ctx, playerIDs)
	}
	return nil, nil
}

func (m *MockStore) FindPlayerByName(ctx context.Context, name string) (*Player, error) {
	m.mu.Lock()
	m.FindPlayerByNameCalls = append(m.FindPlayerByNameCalls, name)
	m.mu.Unlock()
	if m.FindPlayerByNameFunc != nil {
		return m.FindPlayerByNameFunc(ctx, name)
	}
	return nil, ErrPlayerNotFound
}

func (m *MockStore) GetAllMatches(ctx context.Context) ([]Match, error) {
	if m.GetAllMatchesFunc != nil {
		return m.GetAllMatchesFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) GetRatingHistory(ctx context.Context, playerID string) ([]RatingChange, error) {
	m.mu.Lock()
	m.GetRatingHistoryCalls = append(m.GetRatingHistoryCalls, playerID)
	m.mu.Unlock()
	if m.GetRatingHistoryFunc != nil {
		return m.GetRatingHistoryFunc(ctx, playerID)
	}
	return nil, nil
}

func (m *MockStore) Atomically(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	m.AtomicallyCalls++
	m.mu.Unlock()
	if m.AtomicallyFunc != nil {
		return m.AtomicallyFunc(ctx, fn)
	}
	return fn(m.Tx)
}

// MockTx records the writes made inside Atomically.
type MockTx struct {
	mu sync.Mutex

	ApplyDeltaFunc         func(ctx context.Context, playerID string, d Delta) error
	AppendMatchFunc        func(ctx context.Context, m *Match) error
	RecordRatingChangeFunc func(ctx context.Context, c RatingChange) error

	ApplyDeltaCalls []struct {
		PlayerID string
		Delta    Delta
	}
	AppendMatchCalls        []*Match
	RecordRatingChangeCalls []RatingChange
}

func (t *MockTx) ApplyDelta(ctx context.Context, playerID string, d Delta) error {
	t.mu.Lock()
	t.ApplyDeltaCalls = append(t.ApplyDeltaCalls, struct {
		PlayerID string
		Delta    Delta
	}{playerID, d})
	t.mu.Unlock()
	if t.ApplyDeltaFunc != nil {
		return t.ApplyDeltaFunc(ctx, playerID, d)
	}
	return nil
}

func (t *MockTx) AppendMatch(ctx context.Context, m *Match) error {
	t.mu.Lock()
	t.AppendMatchCalls = append(t.AppendMatchCalls, m)
	t.mu.Unlock()
	if t.AppendMatchFunc != nil {
		return t.AppendMatchFunc(ctx, m)
	}
	return nil
}

func (t *MockTx) RecordRatingChange(ctx context.Context, c RatingChange) error {
	t.mu.Lock()
	t.RecordRatingChangeCalls = append(t.RecordRatingChangeCalls, c)
	t.mu.Unlock()
	if t.RecordRatingChangeFunc != nil {
		return t.RecordRatingChangeFunc(ctx, c)
	}
	return nil
}

// Reset clears all call records.
func (t *MockTx) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ApplyDeltaCalls = nil
	t.AppendMatchCalls = nil
	t.RecordRatingChangeCalls = nil
}
