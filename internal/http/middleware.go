package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/slack-go/slack"
	"github.com/unrolled/render"
	"golang.org/x/time/rate"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// contextKey is a custom type to avoid key collisions in context.
type contextKey string

const (
	dryRunKey contextKey = "dryRun"
)

// paramsMiddleware handles common query parameters like 'verbose' and 'dry_run'.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.With("request_id", middleware.GetReqID(r.Context()))
		// 'verbose' raises the level of this request's logger only.
		if r.URL.Query().Get("verbose") == "true" {
			logger.SetLevel(log.DebugLevel)
		}
		logger.Info("incoming request", "method", r.Method, "url", r.URL.String())

		// Handle 'dry_run' and add it to the request context.
		isDryRun := r.URL.Query().Get("dry_run") == "true"
		ctx := context.WithValue(r.Context(), dryRunKey, isDryRun)
		ctx = log.WithContext(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func isDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(dryRunKey).(bool)
	return ok && dryRun
}

// rateLimitMiddleware rejects requests beyond the limiter's rate with 429.
func rateLimitMiddleware(limiter *rate.Limiter, rnd *render.Render) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path, "remote", r.RemoteAddr)
				rnd.JSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many match submissions, try again shortly"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// slackVerificationMiddleware checks the Slack request signature. With an
// empty secret requests pass unverified.
func slackVerificationMiddleware(signingSecret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signingSecret == "" {
				log.FromContext(r.Context()).Debug("Slack signing secret not set, skipping verification")
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sv, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				log.FromContext(r.Context()).Warn("Invalid Slack verification headers", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if _, err := sv.Write(body); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if err := sv.Ensure(); err != nil {
				log.FromContext(r.Context()).Warn("Slack signature mismatch", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
