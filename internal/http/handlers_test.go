package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smash-ladder/internal/config"
	"github.com/mauv0809/smash-ladder/internal/database"
	"github.com/mauv0809/smash-ladder/internal/league"
	"github.com/mauv0809/smash-ladder/internal/metrics"
	"github.com/mauv0809/smash-ladder/internal/notifier"
	"github.com/mauv0809/smash-ladder/internal/pubsub"
	"github.com/mauv0809/smash-ladder/internal/recorder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const testSlackSigningSecret = "test-signing-secret"

type testServer struct {
	*Server
	notifier *notifier.Mock
	pubsub   *pubsub.MockPubSubClient
}

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, cfg config.Config) (*testServer, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	ps := pubsub.NewMock()
	notif := notifier.NewMock()
	rec := recorder.New(store, ps, metricsSvc)

	server := NewServer(store, rec, metricsSvc, metricsHandler, cfg, notif, ps)
	return &testServer{Server: server, notifier: notif, pubsub: ps}, dbTeardown
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) register(t *testing.T, first, last, affiliation string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/players", league.Registration{FirstName: first, LastName: last, Affiliation: affiliation})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var p struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p.ID
}

// createSlackCommandRequest creates an http.Request suitable for testing Slack slash commands,
// including the signature and timestamp headers for verification.
func createSlackCommandRequest(t *testing.T, targetURL string, form url.Values, signingSecret string) *http.Request {
	t.Helper()

	bodyBytes := []byte(form.Encode())
	req, err := http.NewRequest(http.MethodPost, targetURL, bytes.NewReader(bodyBytes))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := time.Now().Unix()
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(timestamp, 10))

	baseString := fmt.Sprintf("v0:%d:%s", timestamp, string(bodyBytes))
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(h.Sum(nil)))

	return req
}

func score(n int) *int { return &n }

type stubRecorder struct {
	err error
}

func (s stubRecorder) RecordMatch(context.Context, recorder.Submission) (*league.Match, error) {
	return nil, s.err
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	rr := server.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())
}

func TestRegisterPlayerHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	rr := server.do(t, http.MethodPost, "/api/players", league.Registration{FirstName: " Ada ", LastName: "Lovelace", Affiliation: "ericsson"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Ada Lovelace", body["name"])
	assert.Equal(t, "Ericsson", body["affiliation"])
	assert.Equal(t, 1000.0, body["rating"])
	assert.Equal(t, "L3", body["level"].(map[string]any)["code"])

	t.Run("duplicate", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/api/players", league.Registration{FirstName: "ada", LastName: "LOVELACE", Affiliation: "Away"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("invalid affiliation", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/api/players", league.Registration{FirstName: "Grace", LastName: "Hopper", Affiliation: "Navy"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "error")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/players", strings.NewReader("{"))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	assert.Equal(t, 1.0, metricValue(t, server, "league_players_registered_total"))
}

// metricValue reads a counter through the /metrics endpoint.
func metricValue(t *testing.T, server *testServer, name string) float64 {
	t.Helper()
	rr := server.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, line := range strings.Split(rr.Body.String(), "\n") {
		if strings.HasPrefix(line, name+" ") {
			v, err := strconv.ParseFloat(strings.TrimPrefix(line, name+" "), 64)
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("metric %s not exposed", name)
	return 0
}

func TestListPlayersHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	server.register(t, "Ada", "Lovelace", "Ericsson")
	server.register(t, "Grace", "Hopper", "Away")

	rr := server.do(t, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rr = server.do(t, http.MethodGet, "/api/players?affiliation=away", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var away []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &away))
	require.Len(t, away, 1)
	assert.Equal(t, "Grace Hopper", away[0]["name"])

	rr = server.do(t, http.MethodGet, "/api/players?level=l7", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, server.do(t, http.MethodGet, "/api/players?level=L99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, server.do(t, http.MethodGet, "/api/players?affiliation=Navy", nil).Code)
}

func TestGetPlayerHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	id := server.register(t, "Ada", "Lovelace", "Ericsson")

	rr := server.do(t, http.MethodGet, "/api/players/"+id, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ada Lovelace")

	assert.Equal(t, http.StatusNotFound, server.do(t, http.MethodGet, "/api/players/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, server.do(t, http.MethodGet, "/api/players/missing/history", nil).Code)
}

func TestRecordMatchHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{MatchRateLimit: 100})
	defer teardown()

	a1 := server.register(t, "Ada", "Lovelace", "Ericsson")
	a2 := server.register(t, "Grace", "Hopper", "Ericsson")
	b1 := server.register(t, "Alan", "Turing", "Away")
	b2 := server.register(t, "Edsger", "Dijkstra", "Away")

	rr := server.do(t, http.MethodPost, "/api/matches", recorder.Submission{
		TeamA: []string{a1, a2}, TeamB: []string{b1, b2},
		TeamAScore: score(21), TeamBScore: score(15),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var match league.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &match))
	assert.NotEmpty(t, match.ID)
	assert.Len(t, match.Changes, 4)
	assert.InDelta(t, 32*(21.0/36-0.5), match.TeamADelta, 1e-9)
	assert.Len(t, server.pubsub.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventMatchRecorded), server.pubsub.SendMessageCalls[0].Topic)

	rr = server.do(t, http.MethodGet, "/api/players/"+a1, nil)
	var p map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.InDelta(t, 1000+16*(21.0/36-0.5), p["rating"], 1e-9)

	rr = server.do(t, http.MethodGet, "/api/players/"+a1+"/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history []league.RatingChange
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, match.ID, history[0].MatchID)

	rr = server.do(t, http.MethodGet, "/api/matches", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var matches []league.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "Ada Lovelace", matches[0].PlayerName(a1))

	t.Run("tie is rejected", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/api/matches", recorder.Submission{
			TeamA: []string{a1, a2}, TeamB: []string{b1, b2},
			TeamAScore: score(10), TeamBScore: score(10),
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown player is rejected", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/api/matches", recorder.Submission{
			TeamA: []string{a1, "ghost"}, OpponentUnknown: true,
			TeamAScore: score(21), TeamBScore: score(10),
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRecordMatchHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &recorder.ValidationError{Reason: "bad"}, http.StatusBadRequest},
		{"player vanished", &recorder.NotFoundError{PlayerID: "p1"}, http.StatusConflict},
		{"storage", &recorder.StorageError{Op: "apply", Err: errors.New("disk full")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, teardown := setupTestServer(t, config.Config{})
			defer teardown()
			server.Recorder = stubRecorder{err: tc.err}

			rr := server.do(t, http.MethodPost, "/api/matches", recorder.Submission{})
			assert.Equal(t, tc.status, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestRecordMatchHandler_RateLimited(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{MatchRateLimit: 1})
	defer teardown()
	server.Recorder = stubRecorder{err: &recorder.ValidationError{Reason: "bad"}}

	first := server.do(t, http.MethodPost, "/api/matches", recorder.Submission{})
	second := server.do(t, http.MethodPost, "/api/matches", recorder.Submission{})

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestListLevelsHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	rr := server.do(t, http.MethodGet, "/api/levels", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var levels []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &levels))
	require.Len(t, levels, 8)
	assert.Equal(t, "L1", levels[0]["code"])
	assert.Nil(t, levels[0]["lower_bound"])
}

func TestLeaderboardCommandHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{Slack: config.SlackConfig{SigningSecret: testSlackSigningSecret}})
	defer teardown()

	server.register(t, "Ada", "Lovelace", "Ericsson")
	server.register(t, "Alan", "Turing", "Away")

	req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{"text": {"away"}}, testSlackSigningSecret)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, server.notifier.FormatLeaderboardResponseCalls, 1)
	players := server.notifier.FormatLeaderboardResponseCalls[0].Players
	require.Len(t, players, 1)
	assert.Equal(t, "Alan Turing", players[0].Name())

	t.Run("bad signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{}, "wrong-secret")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown filter", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{"text": {"martians"}}, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPlayerStatsCommandHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	server.register(t, "Ada", "Lovelace", "Ericsson")

	post := func(text string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/slack/command/player-stats", strings.NewReader(url.Values{"text": {text}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		return rr
	}

	rr := post("lovelace")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, server.notifier.FormatPlayerStatsResponseCalls, 1)
	assert.Equal(t, "Ada Lovelace", server.notifier.FormatPlayerStatsResponseCalls[0].Player.Name())

	rr = post("nobody")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"nobody"}, server.notifier.FormatPlayerNotFoundResponseCalls)

	assert.Equal(t, http.StatusBadRequest, post("").Code)
}

func TestMatchRecordedPushHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	payload, err := msgpack.Marshal(league.Match{ID: "m1", TeamA: league.Team{"a", "b"}, OpponentUnknown: true, TeamAScore: 21, TeamBScore: 12})
	require.NoError(t, err)

	push := func(data string) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"subscription":"sub","message":{"data":%q,"messageId":"1"}}`, data)
		req := httptest.NewRequest(http.MethodPost, "/pubsub/match-recorded?dry_run=true", strings.NewReader(body))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		return rr
	}

	rr := push(base64.StdEncoding.EncodeToString(payload))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, server.notifier.SendMatchResultCalls, 1)
	assert.Equal(t, "m1", server.notifier.SendMatchResultCalls[0].Match.ID)
	assert.True(t, server.notifier.SendMatchResultCalls[0].DryRun)

	assert.Equal(t, http.StatusBadRequest, push("%%%").Code)

	server.notifier.SendMatchResultFunc = func(*league.Match, bool) error { return errors.New("slack down") }
	assert.Equal(t, http.StatusInternalServerError, push(base64.StdEncoding.EncodeToString(payload)).Code)
}

func TestAnnounceLeaderboardHandler(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	server.register(t, "Ada", "Lovelace", "Ericsson")
	server.register(t, "Alan", "Turing", "Away")

	rr := server.do(t, http.MethodPost, "/api/leaderboard/announce?affiliation=ericsson&dry_run=true", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"players":1}`, rr.Body.String())
	require.Len(t, server.notifier.SendLeaderboardCalls, 1)
	assert.Equal(t, "Ada Lovelace", server.notifier.SendLeaderboardCalls[0][0].Name())
}

func TestRegisterPlayerHandler_LogsRegistrationOnce(t *testing.T) {
	server, teardown := setupTestServer(t, config.Config{})
	defer teardown()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	server.register(t, "Ada", "Lovelace", "Ericsson")

	assert.Equal(t, 1, strings.Count(buf.String(), "Registered player"), buf.String())
}
