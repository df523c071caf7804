package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		PlayersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_players_registered_total",
			Help: "The total number of players registered.",
		}),
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_matches_recorded_total",
			Help: "The total number of matches whose rating updates were committed.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_match_validation_failures_total",
			Help: "The total number of match submissions rejected by validation.",
		}),
		ApplyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_match_apply_failures_total",
			Help: "The total number of match submissions that failed while applying updates.",
		}, []string{"kind"}),
		ApplyRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_match_apply_retries_total",
			Help: "The total number of times an apply step was retried.",
		}),
		RecordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "league_match_record_duration_seconds",
			Help:    "The duration of recording a single match.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_events_published_total",
			Help: "The total number of match-recorded events published.",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_events_failed_total",
			Help: "The total number of match-recorded events that failed to publish.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "league_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.PlayersRegistered,
		s.MatchesRecorded,
		s.ValidationFailures,
		s.ApplyFailures,
		s.ApplyRetries,
		s.RecordDuration,
		s.EventsPublished,
		s.EventsFailed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncPlayersRegistered() {
	s.PlayersRegistered.Inc()
}

func (s *Service) IncMatchesRecorded() {
	s.MatchesRecorded.Inc()
}

func (s *Service) IncValidationFailures() {
	s.ValidationFailures.Inc()
}

func (s *Service) IncApplyFailures(kind string) {
	s.ApplyFailures.WithLabelValues(kind).Inc()
}

func (s *Service) IncApplyRetries() {
	s.ApplyRetries.Inc()
}

func (s *Service) ObserveRecordDuration(duration float64) {
	s.RecordDuration.Observe(duration)
}

func (s *Service) IncEventsPublished() {
	s.EventsPublished.Inc()
}

func (s *Service) IncEventsFailed() {
	s.EventsFailed.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
