package recorder

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/metrics"
	"github.com/mauv0809/smash-ladder/internal/pubsub"
	"github.com/mauv0809/smash-ladder/internal/rating"
)

// applyAttempts is the first try plus one retry.
const applyAttempts = 2

// New creates a new Recorder. publisher may be nil.
func New(store Store, publisher Publisher, metrics metrics.Metrics) *Recorder {
	return &Recorder{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// RecordMatch validates s, computes the rating updates from a snapshot of the
// involved players and applies them together with the match record in one
// transaction. Every player update is an additive increment, so concurrent
// matches sharing a player all land.
//
// Returned errors are *ValidationError, *NotFoundError or *StorageError.
func (r *Recorder) RecordMatch(ctx context.Context, s Submission) (*league.Match, error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveRecordDuration(time.Since(start).Seconds())
	}()

	if err := validate(s); err != nil {
		r.metrics.IncValidationFailures()
		log.FromContext(ctx).Info("Rejected match submission", "reason", err)
		return nil, err
	}

	ids := involved(s)
	players, err := r.store.FindByIDs(ctx, ids)
	if err != nil {
		r.metrics.IncApplyFailures(metrics.KindStorage)
		log.FromContext(ctx).Error("Failed to load players for match", "error", err)
		return nil, &StorageError{Op: "load players", Err: err}
	}
	byID := make(map[string]league.Player, len(players))
	ratings := make(map[string]float64, len(players))
	for _, p := range players {
		byID[p.ID] = p
		ratings[p.ID] = p.Rating
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			r.metrics.IncValidationFailures()
			log.FromContext(ctx).Info("Rejected match submission", "reason", "unknown player", "playerID", id)
			return nil, invalid("unknown player %s", id)
		}
	}

	outcome := rating.Outcome{
		TeamA:           rating.Pair{ids[0], ids[1]},
		OpponentUnknown: s.OpponentUnknown,
		TeamAScore:      *s.TeamAScore,
		TeamBScore:      *s.TeamBScore,
	}
	if !s.OpponentUnknown {
		outcome.TeamB = rating.Pair{ids[2], ids[3]}
	}
	deltas, err := rating.ComputeDeltas(outcome, ratings)
	if err != nil {
		r.metrics.IncValidationFailures()
		return nil, invalid("%v", err)
	}

	match := r.buildMatch(s, outcome, deltas, byID)
	if err := r.apply(ctx, match, deltas); err != nil {
		return nil, err
	}

	r.metrics.IncMatchesRecorded()
	log.FromContext(ctx).Info("Recorded match", "matchID", match.ID, "teamADelta", deltas.TeamADelta, "teamBDelta", deltas.TeamBDelta, "opponentUnknown", match.OpponentUnknown)

	r.publish(ctx, match)
	return match, nil
}

func (r *Recorder) buildMatch(s Submission, o rating.Outcome, d rating.Deltas, players map[string]league.Player) *league.Match {
	playedAt := s.PlayedAt
	if playedAt.IsZero() {
		playedAt = r.now()
	}
	m := &league.Match{
		ID:              uuid.NewString(),
		TeamA:           league.Team(o.TeamA),
		OpponentUnknown: o.OpponentUnknown,
		TeamAScore:      o.TeamAScore,
		TeamBScore:      o.TeamBScore,
		TeamARating:     d.TeamARating,
		TeamBRating:     d.TeamBRating,
		TeamADelta:      d.TeamADelta,
		TeamBDelta:      d.TeamBDelta,
		PlayedAt:        playedAt.UTC().Truncate(time.Millisecond),
		PlayerNames:     make(map[string]string, len(players)),
	}
	if !o.OpponentUnknown {
		teamB := league.Team(o.TeamB)
		m.TeamB = &teamB
	}
	for id, p := range players {
		m.PlayerNames[id] = p.Name()
	}
	for _, pd := range d.Players {
		m.Changes = append(m.Changes, league.RatingChange{
			MatchID:      m.ID,
			PlayerID:     pd.PlayerID,
			PlayerName:   m.PlayerNames[pd.PlayerID],
			Team:         pd.Team,
			RatingBefore: pd.RatingBefore,
			Delta:        pd.Rating,
			CreatedAt:    m.PlayedAt,
		})
	}
	return m
}

// apply writes the match in a single transaction, retrying a storage failure
// once. A vanished player is not retried.
func (r *Recorder) apply(ctx context.Context, m *league.Match, d rating.Deltas) error {
	// Player rows are updated first: the match and rating_changes rows
	// reference players, so a vanished player must surface from ApplyDelta
	// before any foreign key is checked.
	write := func(tx league.Tx) error {
		for _, pd := range d.Players {
			err := tx.ApplyDelta(ctx, pd.PlayerID, league.Delta{
				Rating: pd.Rating,
				Played: pd.Played,
				Won:    pd.Won,
				Points: pd.Points,
			})
			if errors.Is(err, league.ErrPlayerNotFound) {
				return &NotFoundError{PlayerID: pd.PlayerID}
			}
			if err != nil {
				return err
			}
		}
		if err := tx.AppendMatch(ctx, m); err != nil {
			return err
		}
		for _, c := range m.Changes {
			if err := tx.RecordRatingChange(ctx, c); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	for attempt := 1; attempt <= applyAttempts; attempt++ {
		err = r.store.Atomically(ctx, write)
		if err == nil {
			return nil
		}

		var nf *NotFoundError
		if errors.As(err, &nf) {
			r.metrics.IncApplyFailures(metrics.KindNotFound)
			log.FromContext(ctx).Warn("Player vanished while recording match, nothing applied", "matchID", m.ID, "playerID", nf.PlayerID)
			return nf
		}
		if ctx.Err() != nil || attempt == applyAttempts {
			break
		}
		r.metrics.IncApplyRetries()
		log.FromContext(ctx).Warn("Applying match failed, retrying", "matchID", m.ID, "error", err)
	}

	r.metrics.IncApplyFailures(metrics.KindStorage)
	log.FromContext(ctx).Error("Failed to apply match", "matchID", m.ID, "error", err)
	return &StorageError{Op: "apply", Err: err}
}

// publish is best-effort: the match is already committed.
func (r *Recorder) publish(ctx context.Context, m *league.Match) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.SendMessage(ctx, pubsub.EventMatchRecorded, m); err != nil {
		r.metrics.IncEventsFailed()
		log.FromContext(ctx).Error("Failed to publish match recorded event", "matchID", m.ID, "error", err)
		return
	}
	r.metrics.IncEventsPublished()
}
