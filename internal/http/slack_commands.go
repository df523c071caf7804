package http

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/rating"
)

// respondWithSlackMsg writes a formatted Slack message as the command response.
func (s *Server) respondWithSlackMsg(w http.ResponseWriter, msg any) {
	s.render.JSON(w, http.StatusOK, msg)
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
// The command text may name a level code or an affiliation.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		var filter league.PlayerFilter
		text := strings.TrimSpace(r.FormValue("text"))
		if text != "" {
			if lvl, ok := rating.LevelByCode(strings.ToUpper(text)); ok {
				filter.Level = lvl.Code
			} else if aff, err := league.ParseAffiliation(text); err == nil {
				filter.Affiliation = aff
			} else {
				http.Error(w, "Unknown level or affiliation: "+text, http.StatusBadRequest)
				return
			}
		}

		players, err := s.Store.GetAllPlayers(r.Context(), filter)
		if err != nil {
			http.Error(w, "Failed to get players", http.StatusInternalServerError)
			log.FromContext(r.Context()).Error("Failed to get players from store", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(players, filter.Level)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.FromContext(r.Context()).Error("Failed to format leaderboard", "error", err)
			return
		}

		s.respondWithSlackMsg(w, msg)
	}
}

// PlayerStatsCommandHandler returns a handler for the /player-stats Slack command.
func (s *Server) PlayerStatsCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		playerName := strings.TrimSpace(r.FormValue("text"))
		if playerName == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		log.FromContext(r.Context()).Info("Received player stats command", "player", playerName)

		var (
			msg any
			err error
		)
		player, findErr := s.Store.FindPlayerByName(r.Context(), playerName)
		if findErr != nil {
			log.FromContext(r.Context()).Info("Player not found", "query", playerName, "error", findErr)
			msg, err = s.Notifier.FormatPlayerNotFoundResponse(playerName)
		} else {
			msg, err = s.Notifier.FormatPlayerStatsResponse(player, playerName)
		}
		if err != nil {
			http.Error(w, "Failed to format player stats", http.StatusInternalServerError)
			log.FromContext(r.Context()).Error("Failed to format player stats", "error", err)
			return
		}

		s.respondWithSlackMsg(w, msg)
	}
}
