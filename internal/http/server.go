package http

import (
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mauv0809/smash-ladder/internal/config"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/metrics"
	"github.com/mauv0809/smash-ladder/internal/notifier"
	"github.com/mauv0809/smash-ladder/internal/pubsub"
	"github.com/unrolled/render"
	"golang.org/x/time/rate"
)

func NewServer(store league.Store, rec MatchRecorder, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	limit := cfg.MatchRateLimit
	if limit <= 0 {
		limit = 5
	}
	burst := int(math.Max(1, math.Ceil(limit)))

	server := &Server{
		Store:          store,
		Recorder:       rec,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         chi.NewRouter(),
		pubsub:         pubsub,
		render:         render.New(render.Options{UnEscapeHTML: true}),
		matchLimiter:   rate.NewLimiter(rate.Limit(limit), burst),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(paramsMiddleware)

	r.Handle("/metrics", s.MetricsHandler)
	r.Get("/health", s.HealthCheckHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/levels", s.ListLevelsHandler())
		r.Post("/leaderboard/announce", s.AnnounceLeaderboardHandler())
		r.Route("/players", func(r chi.Router) {
			r.Get("/", s.ListPlayersHandler())
			r.Post("/", s.RegisterPlayerHandler())
			r.Get("/{playerID}", s.GetPlayerHandler())
			r.Get("/{playerID}/history", s.PlayerHistoryHandler())
		})
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", s.ListMatchesHandler())
			r.With(rateLimitMiddleware(s.matchLimiter, s.render)).Post("/", s.RecordMatchHandler())
		})
	})

	r.Route("/slack/command", func(r chi.Router) {
		r.Use(slackVerificationMiddleware(s.Cfg.Slack.SigningSecret))
		r.Post("/leaderboard", s.LeaderboardCommandHandler())
		r.Post("/player-stats", s.PlayerStatsCommandHandler())
	})

	r.Post("/pubsub/match-recorded", s.MatchRecordedPushHandler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
