package metrics

import "github.com/prometheus/client_golang/prometheus"

// Failure kinds used as the "kind" label of apply failures.
const (
	KindNotFound = "not_found"
	KindStorage  = "storage"
)

// Service holds all the Prometheus metrics for the application.
type Service struct {
	PlayersRegistered  prometheus.Counter
	MatchesRecorded    prometheus.Counter
	ValidationFailures prometheus.Counter
	ApplyFailures      *prometheus.CounterVec
	ApplyRetries       prometheus.Counter
	RecordDuration     prometheus.Histogram
	EventsPublished    prometheus.Counter
	EventsFailed       prometheus.Counter
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
