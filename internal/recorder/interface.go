package recorder

import (
	"context"

	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/pubsub"
)

// Store is the part of the league store the recorder needs.
type Store interface {
	FindByIDs(ctx context.Context, playerIDs []string) ([]league.Player, error)
	Atomically(ctx context.Context, fn func(league.Tx) error) error
}

// Publisher announces committed matches.
type Publisher interface {
	SendMessage(ctx context.Context, topic pubsub.EventType, data any) error
}
