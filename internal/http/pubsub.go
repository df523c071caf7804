package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smash-ladder/internal/league"
)

// OnMatchRecorded handles a match-recorded event payload by posting the
// result notification.
func (s *Server) OnMatchRecorded(ctx context.Context, data []byte) error {
	var match league.Match
	if err := s.pubsub.ProcessMessage(data, &match); err != nil {
		return fmt.Errorf("failed to decode match event: %w", err)
	}
	log.FromContext(ctx).Debug("Processing match-recorded event", "match", match.ID)
	dryRun, _ := ctx.Value(dryRunKey).(bool)
	if err := s.Notifier.SendMatchResult(ctx, &match, dryRun); err != nil {
		return fmt.Errorf("failed to notify match %s: %w", match.ID, err)
	}
	return nil
}

// MatchRecordedPushHandler receives Pub/Sub push deliveries of match-recorded events.
func (s *Server) MatchRecordedPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var envelope pushEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			log.FromContext(r.Context()).Error("Failed to decode push envelope", "error", err)
			http.Error(w, "Invalid push envelope", http.StatusBadRequest)
			return
		}

		data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			log.FromContext(r.Context()).Error("Failed to decode message data", "error", err)
			http.Error(w, "Invalid message data", http.StatusBadRequest)
			return
		}

		if err := s.OnMatchRecorded(r.Context(), data); err != nil {
			log.FromContext(r.Context()).Error("Failed to handle match-recorded event", "messageId", envelope.Message.MessageID, "error", err)
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
