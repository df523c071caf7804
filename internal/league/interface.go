package league

import "context"

// Store defines the interface for reading and writing league data.
type Store interface {
	AddPlayer(ctx context.Context, reg Registration) (*Player, error)
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	GetAllPlayers(ctx context.Context, filter PlayerFilter) ([]Player, error)
	FindByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	FindPlayerByName(ctx context.Context, name string) (*Player, error)
	GetAllMatches(ctx context.Context) ([]Match, error)
	GetRatingHistory(ctx context.Context, playerID string) ([]RatingChange, error)
	Atomically(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of writes available inside Atomically. Either all of them
// are committed or none.
type Tx interface {
	// ApplyDelta adds d to the player's stored values. It returns
	// ErrPlayerNotFound when no player has the id.
	ApplyDelta(ctx context.Context, playerID string, d Delta) error
	AppendMatch(ctx context.Context, m *Match) error
	RecordRatingChange(ctx context.Context, c RatingChange) error
}
