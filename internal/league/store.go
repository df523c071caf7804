package league

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/mauv0809/smash-ladder/internal/rating"
	"gopkg.in/guregu/null.v4"
)

// store handles all database operations for the league.
type store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store backed by db.
func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

var playerColumns = []string{
	"id", "first_name", "last_name", "affiliation", "rating",
	"matches_played", "matches_won", "points_won", "created_at",
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AddPlayer registers a new player with the initial rating and zero counters.
func (s *store) AddPlayer(ctx context.Context, reg Registration) (*Player, error) {
	reg, err := reg.Normalize()
	if err != nil {
		return nil, err
	}

	p := &Player{
		ID:          uuid.NewString(),
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		Affiliation: Affiliation(reg.Affiliation),
		Rating:      rating.InitialRating,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := squirrel.Select("COUNT(*)").From("players").Where(squirrel.And{
		squirrel.Expr("first_name = ? COLLATE NOCASE", p.FirstName),
		squirrel.Expr("last_name = ? COLLATE NOCASE", p.LastName),
	}).ToSql()
	if err != nil {
		return nil, err
	}
	var existing int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check for duplicate player: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.Name())
	}

	query, args, err = squirrel.Insert("players").SetMap(squirrel.Eq{
		"id":          p.ID,
		"first_name":  p.FirstName,
		"last_name":   p.LastName,
		"affiliation": string(p.Affiliation),
		"rating":      p.Rating,
		"created_at":  p.CreatedAt.UnixMilli(),
	}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.Name())
		}
		return nil, fmt.Errorf("failed to insert player: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit player: %w", err)
	}

	log.Info("Registered player", "playerID", p.ID, "name", p.Name(), "affiliation", p.Affiliation)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	// Remote libSQL errors only carry the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetPlayer returns ErrPlayerNotFound when no player has the id.
func (s *store) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	query, args, err := squirrel.Select(playerColumns...).From("players").
		Where(squirrel.Eq{"id": playerID}).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPlayer(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", playerID, err)
	}
	return p, nil
}

// GetAllPlayers returns players sorted by rating, highest first.
func (s *store) GetAllPlayers(ctx context.Context, filter PlayerFilter) ([]Player, error) {
	builder := squirrel.Select(playerColumns...).From("players").
		OrderBy("rating DESC", "last_name COLLATE NOCASE", "first_name COLLATE NOCASE")

	if filter.Affiliation != "" {
		builder = builder.Where(squirrel.Eq{"affiliation": string(filter.Affiliation)})
	}
	if filter.Level != "" {
		level, ok := rating.LevelByCode(filter.Level)
		if !ok {
			return nil, fmt.Errorf("unknown level %q", filter.Level)
		}
		if !math.IsInf(level.LowerBound, 0) {
			builder = builder.Where(squirrel.GtOrEq{"rating": level.LowerBound})
		}
		if !math.IsInf(level.UpperBound, 0) {
			builder = builder.Where(squirrel.Lt{"rating": level.UpperBound})
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryPlayers(ctx, s.db, query, args...)
}

// FindByIDs is a snapshot read of the given players. Ids without a player are
// simply absent from the result.
func (s *store) FindByIDs(ctx context.Context, playerIDs []string) ([]Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	query, args, err := squirrel.Select(playerColumns...).From("players").
		Where(squirrel.Eq{"id": playerIDs}).ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryPlayers(ctx, s.db, query, args...)
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindPlayerByName performs a case-insensitive, fuzzy search on the full name
// (e.g. "ada" matches "Ada Lovelace"). The highest rated match wins.
func (s *store) FindPlayerByName(ctx context.Context, name string) (*Player, error) {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(name)) + "%"
	query, args, err := squirrel.Select(playerColumns...).From("players").
		Where(squirrel.Expr(`lower(first_name || ' ' || last_name) LIKE lower(?) ESCAPE '\'`, pattern)).
		OrderBy("rating DESC").Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPlayer(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("No player found matching pattern", "pattern", pattern)
		return nil, fmt.Errorf("%w: matching '%s'", ErrPlayerNotFound, name)
	}
	if err != nil {
		log.Error("Failed to query player by name", "error", err, "pattern", pattern)
		return nil, fmt.Errorf("database error: %w", err)
	}
	return p, nil
}

func (s *store) queryPlayers(ctx context.Context, q queryer, query string, args ...any) ([]Player, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func scanPlayer(scanner interface{ Scan(...any) error }) (*Player, error) {
	var (
		p           Player
		affiliation string
		createdAt   int64
	)
	err := scanner.Scan(
		&p.ID, &p.FirstName, &p.LastName, &affiliation, &p.Rating,
		&p.MatchesPlayed, &p.MatchesWon, &p.PointsWon, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	p.Affiliation = Affiliation(affiliation)
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}

// GetAllMatches returns every match newest first, with player names and
// rating changes attached.
func (s *store) GetAllMatches(ctx context.Context) ([]Match, error) {
	query, args, err := squirrel.Select(
		"id", "team_a_player1", "team_a_player2", "team_b_player1", "team_b_player2",
		"opponent_unknown", "team_a_score", "team_b_score",
		"team_a_rating", "team_b_rating", "team_a_delta", "team_b_delta", "played_at",
	).From("matches").OrderBy("played_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return matches, nil
	}

	names, err := s.playerNames(ctx)
	if err != nil {
		return nil, err
	}
	changes, err := s.ratingChanges(ctx, squirrel.Eq{})
	if err != nil {
		return nil, err
	}
	byMatch := make(map[string][]RatingChange)
	for _, c := range changes {
		byMatch[c.MatchID] = append(byMatch[c.MatchID], c)
	}

	for i := range matches {
		m := &matches[i]
		m.PlayerNames = make(map[string]string)
		ids := m.TeamA[:]
		if m.TeamB != nil {
			ids = append(append([]string{}, ids...), m.TeamB[:]...)
		}
		for _, id := range ids {
			m.PlayerNames[id] = names[id]
		}
		m.Changes = byMatch[m.ID]
		sort.Slice(m.Changes, func(a, b int) bool {
			if m.Changes[a].Team != m.Changes[b].Team {
				return m.Changes[a].Team < m.Changes[b].Team
			}
			return m.Changes[a].PlayerID < m.Changes[b].PlayerID
		})
	}
	return matches, nil
}

func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var (
		m          Match
		teamB1     null.String
		teamB2     null.String
		playedAt   int64
		unknownInt int
	)
	err := scanner.Scan(
		&m.ID, &m.TeamA[0], &m.TeamA[1], &teamB1, &teamB2,
		&unknownInt, &m.TeamAScore, &m.TeamBScore,
		&m.TeamARating, &m.TeamBRating, &m.TeamADelta, &m.TeamBDelta, &playedAt,
	)
	if err != nil {
		return nil, err
	}
	m.OpponentUnknown = unknownInt != 0
	if !m.OpponentUnknown && teamB1.Valid && teamB2.Valid {
		m.TeamB = &Team{teamB1.String, teamB2.String}
	}
	m.PlayedAt = time.UnixMilli(playedAt).UTC()
	return &m, nil
}

func (s *store) playerNames(ctx context.Context) (map[string]string, error) {
	query, args, err := squirrel.Select("id", "first_name", "last_name").From("players").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query player names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, first, last string
		if err := rows.Scan(&id, &first, &last); err != nil {
			return nil, err
		}
		names[id] = strings.TrimSpace(first + " " + last)
	}
	return names, rows.Err()
}

// GetRatingHistory returns the player's rating changes, newest first.
func (s *store) GetRatingHistory(ctx context.Context, playerID string) ([]RatingChange, error) {
	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return s.ratingChanges(ctx, squirrel.Eq{"rc.player_id": playerID})
}

func (s *store) ratingChanges(ctx context.Context, where squirrel.Sqlizer) ([]RatingChange, error) {
	query, args, err := squirrel.Select(
		"rc.match_id", "rc.player_id", "p.first_name", "p.last_name",
		"rc.team", "rc.rating_before", "rc.delta", "rc.created_at",
	).From("rating_changes rc").
		Join("players p ON p.id = rc.player_id").
		Where(where).
		OrderBy("rc.created_at DESC", "rc.id DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating changes: %w", err)
	}
	defer rows.Close()

	var changes []RatingChange
	for rows.Next() {
		var (
			c           RatingChange
			first, last string
			team        string
			createdAt   int64
		)
		if err := rows.Scan(&c.MatchID, &c.PlayerID, &first, &last, &team, &c.RatingBefore, &c.Delta, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating change: %w", err)
		}
		c.PlayerName = strings.TrimSpace(first + " " + last)
		c.Team = rating.Team(team)
		c.CreatedAt = time.UnixMilli(createdAt).UTC()
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Atomically runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *store) Atomically(ctx context.Context, fn func(Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&tx{tx: sqlTx, now: s.now}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// tx implements Tx on top of a SQL transaction.
type tx struct {
	tx  *sql.Tx
	now func() time.Time
}

// ApplyDelta is a server-side increment. The current values are never read
// back, so concurrent deltas for the same player all land.
func (t *tx) ApplyDelta(ctx context.Context, playerID string, d Delta) error {
	query, args, err := squirrel.Update("players").SetMap(map[string]any{
		"rating":         squirrel.Expr("rating + ?", d.Rating),
		"matches_played": squirrel.Expr("matches_played + ?", d.Played),
		"matches_won":    squirrel.Expr("matches_won + ?", d.Won),
		"points_won":     squirrel.Expr("points_won + ?", d.Points),
	}).Where(squirrel.Eq{"id": playerID}).ToSql()
	if err != nil {
		return err
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to apply delta to player %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for player %s: %w", playerID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return nil
}

// AppendMatch inserts the match record. ID and PlayedAt are filled in when
// empty.
func (t *tx) AppendMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.PlayedAt.IsZero() {
		m.PlayedAt = t.now().UTC()
	}
	m.PlayedAt = m.PlayedAt.Truncate(time.Millisecond)

	teamB1, teamB2 := null.String{}, null.String{}
	if m.TeamB != nil && !m.OpponentUnknown {
		teamB1 = null.StringFrom(m.TeamB[0])
		teamB2 = null.StringFrom(m.TeamB[1])
	}
	unknown := 0
	if m.OpponentUnknown {
		unknown = 1
	}

	query, args, err := squirrel.Insert("matches").SetMap(squirrel.Eq{
		"id":               m.ID,
		"team_a_player1":   m.TeamA[0],
		"team_a_player2":   m.TeamA[1],
		"team_b_player1":   teamB1,
		"team_b_player2":   teamB2,
		"opponent_unknown": unknown,
		"team_a_score":     m.TeamAScore,
		"team_b_score":     m.TeamBScore,
		"team_a_rating":    m.TeamARating,
		"team_b_rating":    m.TeamBRating,
		"team_a_delta":     m.TeamADelta,
		"team_b_delta":     m.TeamBDelta,
		"played_at":        m.PlayedAt.UnixMilli(),
	}).ToSql()
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.ID, err)
	}
	return nil
}

func (t *tx) RecordRatingChange(ctx context.Context, c RatingChange) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t.now().UTC()
	}
	query, args, err := squirrel.Insert("rating_changes").SetMap(squirrel.Eq{
		"match_id":      c.MatchID,
		"player_id":     c.PlayerID,
		"team":          string(c.Team),
		"rating_before": c.RatingBefore,
		"delta":         c.Delta,
		"created_at":    c.CreatedAt.UnixMilli(),
	}).ToSql()
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record rating change for player %s: %w", c.PlayerID, err)
	}
	return nil
}
