package rating

import (
	"fmt"
	"math"
)

// TeamRating is the mean of the two players' ratings.
func TeamRating(a, b float64) float64 {
	return (a + b) / 2
}

// ExpectedScore is the logistic probability that a team rated r beats a team
// rated opponent.
func ExpectedScore(r, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-r)/400))
}

// ActualScore is a team's share of the points played.
func ActualScore(points, total int) float64 {
	return float64(points) / float64(total)
}

// NewRating applies one K-factor step.
func NewRating(current, actual, expected float64) float64 {
	return current + KFactor*(actual-expected)
}

// ComputeDeltas computes the rating and stat changes produced by a match.
// ratings must hold the current rating of every player named in the outcome
// (Team B only when the opponent is known).
func ComputeDeltas(o Outcome, ratings map[string]float64) (Deltas, error) {
	total := o.TeamAScore + o.TeamBScore
	if total <= 0 {
		return Deltas{}, ErrNoPoints
	}

	lookup := func(id string) (float64, error) {
		r, ok := ratings[id]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingRating, id)
		}
		return r, nil
	}

	a1, err := lookup(o.TeamA[0])
	if err != nil {
		return Deltas{}, err
	}
	a2, err := lookup(o.TeamA[1])
	if err != nil {
		return Deltas{}, err
	}

	var b1, b2 float64
	teamB := UnknownOpponentRating
	if !o.OpponentUnknown {
		if b1, err = lookup(o.TeamB[0]); err != nil {
			return Deltas{}, err
		}
		if b2, err = lookup(o.TeamB[1]); err != nil {
			return Deltas{}, err
		}
		teamB = TeamRating(b1, b2)
	}
	teamA := TeamRating(a1, a2)

	d := Deltas{
		TeamARating: teamA,
		TeamBRating: teamB,
		ExpectedA:   ExpectedScore(teamA, teamB),
		ActualA:     ActualScore(o.TeamAScore, total),
		ActualB:     ActualScore(o.TeamBScore, total),
	}
	d.ExpectedB = 1 - d.ExpectedA
	d.TeamADelta = NewRating(teamA, d.ActualA, d.ExpectedA) - teamA
	if !o.OpponentUnknown {
		d.TeamBDelta = NewRating(teamB, d.ActualB, d.ExpectedB) - teamB
	}

	wonA, wonB := 0, 0
	if o.TeamAScore > o.TeamBScore {
		wonA = 1
	} else if o.TeamBScore > o.TeamAScore {
		wonB = 1
	}

	d.Players = append(d.Players,
		PlayerDelta{PlayerID: o.TeamA[0], Team: TeamA, RatingBefore: a1, Rating: d.TeamADelta / 2, Played: 1, Won: wonA, Points: o.TeamAScore},
		PlayerDelta{PlayerID: o.TeamA[1], Team: TeamA, RatingBefore: a2, Rating: d.TeamADelta / 2, Played: 1, Won: wonA, Points: o.TeamAScore},
	)
	if !o.OpponentUnknown {
		d.Players = append(d.Players,
			PlayerDelta{PlayerID: o.TeamB[0], Team: TeamB, RatingBefore: b1, Rating: d.TeamBDelta / 2, Played: 1, Won: wonB, Points: o.TeamBScore},
			PlayerDelta{PlayerID: o.TeamB[1], Team: TeamB, RatingBefore: b2, Rating: d.TeamBDelta / 2, Played: 1, Won: wonB, Points: o.TeamBScore},
		)
	}
	return d, nil
}
