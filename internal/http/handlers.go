package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/rating"
	"github.com/mauv0809/smash-ladder/internal/recorder"
)

// HealthCheckHandler returns a simple health check handler.
func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK!"))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.render.JSON(w, status, errorResponse{Error: msg})
}

// ListLevelsHandler returns the level table.
func (s *Server) ListLevelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render.JSON(w, http.StatusOK, rating.Levels())
	}
}

// ListPlayersHandler returns all players ordered by rating, optionally
// filtered by ?affiliation= and ?level=.
func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := playerFilterFromQuery(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		players, err := s.Store.GetAllPlayers(r.Context(), filter)
		if err != nil {
			log.FromContext(r.Context()).Error("Failed to list players", "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to list players")
			return
		}
		if players == nil {
			players = []league.Player{}
		}
		s.render.JSON(w, http.StatusOK, players)
	}
}

func playerFilterFromQuery(r *http.Request) (league.PlayerFilter, error) {
	var filter league.PlayerFilter
	if a := r.URL.Query().Get("affiliation"); a != "" {
		aff, err := league.ParseAffiliation(a)
		if err != nil {
			return filter, err
		}
		filter.Affiliation = aff
	}
	if l := r.URL.Query().Get("level"); l != "" {
		lvl, ok := rating.LevelByCode(strings.ToUpper(l))
		if !ok {
			return filter, errors.New("unknown level " + l)
		}
		filter.Level = lvl.Code
	}
	return filter, nil
}

// RegisterPlayerHandler creates a player from a JSON registration.
func (s *Server) RegisterPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg league.Registration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := s.Store.AddPlayer(r.Context(), reg)
		switch {
		case errors.Is(err, league.ErrInvalidPlayer):
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, league.ErrDuplicatePlayer):
			s.respondError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			log.FromContext(r.Context()).Error("Failed to register player", "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to register player")
			return
		}

		s.Metrics.IncPlayersRegistered()
		s.render.JSON(w, http.StatusCreated, p)
	}
}

// GetPlayerHandler returns one player by id.
func (s *Server) GetPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		p, err := s.Store.GetPlayer(r.Context(), playerID)
		if errors.Is(err, league.ErrPlayerNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			log.FromContext(r.Context()).Error("Failed to get player", "id", playerID, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to get player")
			return
		}
		s.render.JSON(w, http.StatusOK, p)
	}
}

// PlayerHistoryHandler returns a player's rating changes, newest first.
func (s *Server) PlayerHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		changes, err := s.Store.GetRatingHistory(r.Context(), playerID)
		if errors.Is(err, league.ErrPlayerNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			log.FromContext(r.Context()).Error("Failed to get rating history", "id", playerID, "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to get rating history")
			return
		}
		if changes == nil {
			changes = []league.RatingChange{}
		}
		s.render.JSON(w, http.StatusOK, changes)
	}
}

// ListMatchesHandler returns all recorded matches, newest first.
func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Store.GetAllMatches(r.Context())
		if err != nil {
			log.FromContext(r.Context()).Error("Failed to list matches", "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to list matches")
			return
		}
		if matches == nil {
			matches = []league.Match{}
		}
		s.render.JSON(w, http.StatusOK, matches)
	}
}

// RecordMatchHandler validates a submission and applies its rating changes.
func (s *Server) RecordMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub recorder.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		match, err := s.Recorder.RecordMatch(r.Context(), sub)
		if err != nil {
			var (
				validationErr *recorder.ValidationError
				notFoundErr   *recorder.NotFoundError
			)
			switch {
			case errors.As(err, &validationErr):
				s.respondError(w, http.StatusBadRequest, err.Error())
			case errors.As(err, &notFoundErr):
				s.respondError(w, http.StatusConflict, err.Error())
			default:
				log.FromContext(r.Context()).Error("Failed to record match", "error", err)
				s.respondError(w, http.StatusInternalServerError, "failed to record match")
			}
			return
		}

		s.render.JSON(w, http.StatusCreated, match)
	}
}

// AnnounceLeaderboardHandler posts the current leaderboard to the Slack
// channel. Accepts the same filters as ListPlayersHandler.
func (s *Server) AnnounceLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := playerFilterFromQuery(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		players, err := s.Store.GetAllPlayers(r.Context(), filter)
		if err != nil {
			log.FromContext(r.Context()).Error("Failed to list players", "error", err)
			s.respondError(w, http.StatusInternalServerError, "failed to list players")
			return
		}

		if err := s.Notifier.SendLeaderboard(r.Context(), players, isDryRunFromContext(r)); err != nil {
			log.FromContext(r.Context()).Error("Failed to announce leaderboard", "error", err)
			s.respondError(w, http.StatusBadGateway, "failed to post leaderboard")
			return
		}
		s.render.JSON(w, http.StatusOK, map[string]int{"players": len(players)})
	}
}
