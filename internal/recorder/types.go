package recorder

import (
	"time"

	"github.com/mauv0809/smash-ladder/internal/metrics"
)

// Recorder validates submitted matches and applies their rating updates.
// It holds no mutable state and is safe for concurrent use.
type Recorder struct {
	store     Store
	publisher Publisher
	metrics   metrics.Metrics
	now       func() time.Time
}

// Submission is a match result as entered by a client. Scores are pointers so
// that a missing score can be told apart from zero.
type Submission struct {
	TeamA           []string  `json:"team_a"`
	TeamB           []string  `json:"team_b,omitempty"`
	OpponentUnknown bool      `json:"opponent_unknown"`
	TeamAScore      *int      `json:"team_a_score"`
	TeamBScore      *int      `json:"team_b_score"`
	PlayedAt        time.Time `json:"played_at,omitempty"`
}
