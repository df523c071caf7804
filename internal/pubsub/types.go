package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	// EventMatchRecorded carries a league.Match, rating changes included,
	// once its updates are committed.
	EventMatchRecorded EventType = "match-recorded"
)

// Handler consumes a raw msgpack payload.
type Handler func(ctx context.Context, data []byte) error
