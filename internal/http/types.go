package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/smash-ladder/internal/config"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/metrics"
	"github.com/mauv0809/smash-ladder/internal/notifier"
	"github.com/mauv0809/smash-ladder/internal/pubsub"
	"github.com/mauv0809/smash-ladder/internal/recorder"
	"github.com/unrolled/render"
	"golang.org/x/time/rate"
)

// MatchRecorder records submitted matches.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, s recorder.Submission) (*league.Match, error)
}

type Server struct {
	Store          league.Store
	Recorder       MatchRecorder
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         chi.Router
	pubsub         pubsub.PubSubClient
	render         *render.Render
	matchLimiter   *rate.Limiter
}

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

// pushEnvelope is the body Pub/Sub push subscriptions deliver.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data      string `json:"data"` // base64-encoded message payload
		MessageID string `json:"messageId"`
	} `json:"message"`
}
