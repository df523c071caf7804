package league

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mauv0809/smash-ladder/internal/rating"
)

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrDuplicatePlayer = errors.New("player already registered")
	ErrInvalidPlayer   = errors.New("invalid player")
)

// Affiliation is the organisation a player plays for.
type Affiliation string

const (
	AffiliationEricsson Affiliation = "Ericsson"
	AffiliationAway     Affiliation = "Away"
)

// Affiliations lists every accepted affiliation.
func Affiliations() []Affiliation {
	return []Affiliation{AffiliationEricsson, AffiliationAway}
}

// ParseAffiliation matches s case-insensitively against the known values.
func ParseAffiliation(s string) (Affiliation, error) {
	for _, a := range Affiliations() {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown affiliation %q", ErrInvalidPlayer, s)
}

// Player is a registered league member.
type Player struct {
	ID            string      `json:"id" msgpack:"id"`
	FirstName     string      `json:"first_name" msgpack:"first_name"`
	LastName      string      `json:"last_name" msgpack:"last_name"`
	Affiliation   Affiliation `json:"affiliation" msgpack:"affiliation"`
	Rating        float64     `json:"rating" msgpack:"rating"`
	MatchesPlayed int         `json:"matches_played" msgpack:"matches_played"`
	MatchesWon    int         `json:"matches_won" msgpack:"matches_won"`
	PointsWon     int         `json:"points_won" msgpack:"points_won"`
	CreatedAt     time.Time   `json:"created_at" msgpack:"created_at"`
}

// Name is the player's display name.
func (p Player) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Level is derived from the current rating on every call.
func (p Player) Level() rating.Level {
	return rating.Classify(p.Rating)
}

// WinPercentage is 0 for a player without matches.
func (p Player) WinPercentage() float64 {
	if p.MatchesPlayed == 0 {
		return 0
	}
	return float64(p.MatchesWon) / float64(p.MatchesPlayed) * 100
}

func (p Player) MarshalJSON() ([]byte, error) {
	type player Player
	return json.Marshal(struct {
		player
		Name  string       `json:"name"`
		Level rating.Level `json:"level"`
	}{player(p), p.Name(), p.Level()})
}

// Registration is the input for creating a player.
type Registration struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Affiliation string `json:"affiliation"`
}

// Normalize trims the names and validates every field.
func (r Registration) Normalize() (Registration, error) {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if r.FirstName == "" {
		return r, fmt.Errorf("%w: first name is required", ErrInvalidPlayer)
	}
	if r.LastName == "" {
		return r, fmt.Errorf("%w: last name is required", ErrInvalidPlayer)
	}
	a, err := ParseAffiliation(r.Affiliation)
	if err != nil {
		return r, err
	}
	r.Affiliation = string(a)
	return r, nil
}

// PlayerFilter narrows GetAllPlayers. Zero values match everything.
type PlayerFilter struct {
	Affiliation Affiliation
	Level       string
}

// Team is the two player ids of one side.
type Team [2]string

// Match is an immutable record of a completed match.
type Match struct {
	ID              string            `json:"id" msgpack:"id"`
	TeamA           Team              `json:"team_a" msgpack:"team_a"`
	TeamB           *Team             `json:"team_b" msgpack:"team_b"`
	OpponentUnknown bool              `json:"opponent_unknown" msgpack:"opponent_unknown"`
	TeamAScore      int               `json:"team_a_score" msgpack:"team_a_score"`
	TeamBScore      int               `json:"team_b_score" msgpack:"team_b_score"`
	TeamARating     float64           `json:"team_a_rating" msgpack:"team_a_rating"`
	TeamBRating     float64           `json:"team_b_rating" msgpack:"team_b_rating"`
	TeamADelta      float64           `json:"team_a_delta" msgpack:"team_a_delta"`
	TeamBDelta      float64           `json:"team_b_delta" msgpack:"team_b_delta"`
	PlayedAt        time.Time         `json:"played_at" msgpack:"played_at"`
	PlayerNames     map[string]string `json:"player_names,omitempty" msgpack:"player_names"`
	Changes         []RatingChange    `json:"changes,omitempty" msgpack:"changes"`
}

// Winner returns the side with the strictly higher score.
func (m Match) Winner() rating.Team {
	if m.TeamBScore > m.TeamAScore {
		return rating.TeamB
	}
	return rating.TeamA
}

// PlayerName resolves id through PlayerNames, falling back to the id.
func (m Match) PlayerName(id string) string {
	if n, ok := m.PlayerNames[id]; ok && n != "" {
		return n
	}
	return id
}

// RatingChange is the audit entry written for each player a match updated.
type RatingChange struct {
	MatchID      string      `json:"match_id" msgpack:"match_id"`
	PlayerID     string      `json:"player_id" msgpack:"player_id"`
	PlayerName   string      `json:"player_name,omitempty" msgpack:"player_name"`
	Team         rating.Team `json:"team" msgpack:"team"`
	RatingBefore float64     `json:"rating_before" msgpack:"rating_before"`
	Delta        float64     `json:"delta" msgpack:"delta"`
	CreatedAt    time.Time   `json:"created_at" msgpack:"created_at"`
}

// RatingAfter is the snapshot rating plus the delta.
func (c RatingChange) RatingAfter() float64 {
	return c.RatingBefore + c.Delta
}

// Delta is an additive change to a player's rating and counters.
type Delta struct {
	Rating float64
	Played int
	Won    int
	Points int
}
