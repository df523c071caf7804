package rating

import "errors"

const (
	// KFactor controls how far one match moves a team rating.
	KFactor = 32.0
	// InitialRating is the rating of a newly registered player.
	InitialRating = 1000.0
	// UnknownOpponentRating is the nominal team rating used when the
	// opposing pair was not recorded.
	UnknownOpponentRating = 1000.0
)

var (
	ErrNoPoints      = errors.New("match has no points scored")
	ErrMissingRating = errors.New("no rating supplied for player")
)

// Team identifies the side a player was on.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Pair is the two player ids of one team.
type Pair [2]string

// Outcome is a completed match as the calculator sees it. TeamB is ignored
// when OpponentUnknown is set.
type Outcome struct {
	TeamA           Pair
	TeamB           Pair
	OpponentUnknown bool
	TeamAScore      int
	TeamBScore      int
}

// PlayerDelta is the additive change to apply to one player.
type PlayerDelta struct {
	PlayerID     string
	Team         Team
	RatingBefore float64
	Rating       float64
	Played       int
	Won          int
	Points       int
}

// Deltas is the full result of one rating update.
type Deltas struct {
	TeamARating float64
	TeamBRating float64
	ExpectedA   float64
	ExpectedB   float64
	ActualA     float64
	ActualB     float64
	TeamADelta  float64
	TeamBDelta  float64
	Players     []PlayerDelta
}
