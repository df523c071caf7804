package rating

import (
	"encoding/json"
	"fmt"
	"math"
)

// Level is a skill tier derived from a rating. Bands are closed on the lower
// end and open on the upper end.
type Level struct {
	Code       string
	Name       string
	LowerBound float64
	UpperBound float64
}

var levels = []Level{
	{Code: "L1", Name: "Rookie", LowerBound: math.Inf(-1), UpperBound: 900},
	{Code: "L2", Name: "Club Starter", LowerBound: 900, UpperBound: 1000},
	{Code: "L3", Name: "Club Intermediate", LowerBound: 1000, UpperBound: 1100},
	{Code: "L4", Name: "Strong Intermediate", LowerBound: 1100, UpperBound: 1200},
	{Code: "L5", Name: "Club Advanced", LowerBound: 1200, UpperBound: 1300},
	{Code: "L6", Name: "Tournament Challenger", LowerBound: 1300, UpperBound: 1400},
	{Code: "L7", Name: "Tournament Winner", LowerBound: 1400, UpperBound: 1500},
	{Code: "L8", Name: "Semi-Pro Tier", LowerBound: 1500, UpperBound: math.Inf(1)},
}

// Classify maps a rating to its level. Ratings below the first band fall into
// L1 and ratings above the last into L8; NaN is treated as L1.
func Classify(r float64) Level {
	if math.IsNaN(r) {
		return levels[0]
	}
	for i := len(levels) - 1; i > 0; i-- {
		if r >= levels[i].LowerBound {
			return levels[i]
		}
	}
	return levels[0]
}

// Levels returns every level, lowest first.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelByCode looks up a level by its code, e.g. "L3".
func LevelByCode(code string) (Level, bool) {
	for _, l := range levels {
		if l.Code == code {
			return l, true
		}
	}
	return Level{}, false
}

// Contains reports whether r falls inside the level's band.
func (l Level) Contains(r float64) bool {
	return Classify(r).Code == l.Code
}

// Range is the human readable range, e.g. "900-999" or "1500+".
func (l Level) Range() string {
	switch {
	case math.IsInf(l.LowerBound, -1):
		return fmt.Sprintf("0-%d", int(l.UpperBound)-1)
	case math.IsInf(l.UpperBound, 1):
		return fmt.Sprintf("%d+", int(l.LowerBound))
	default:
		return fmt.Sprintf("%d-%d", int(l.LowerBound), int(l.UpperBound)-1)
	}
}

// MarshalJSON renders open bounds as null since JSON has no infinity.
func (l Level) MarshalJSON() ([]byte, error) {
	type level struct {
		Code       string   `json:"code"`
		Name       string   `json:"name"`
		Range      string   `json:"range"`
		LowerBound *float64 `json:"lower_bound"`
		UpperBound *float64 `json:"upper_bound"`
	}
	out := level{Code: l.Code, Name: l.Name, Range: l.Range()}
	if !math.IsInf(l.LowerBound, 0) {
		lb := l.LowerBound
		out.LowerBound = &lb
	}
	if !math.IsInf(l.UpperBound, 0) {
		ub := l.UpperBound
		out.UpperBound = &ub
	}
	return json.Marshal(out)
}
