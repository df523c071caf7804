package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	playersRegistered  int
	matchesRecorded    int
	validationFailures int
	applyFailures      map[string]int
	applyRetries       int
	recordDurations    []float64
	eventsPublished    int
	eventsFailed       int
	slackNotifSent     int
	slackNotifFailed   int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		applyFailures:   make(map[string]int),
		recordDurations: make([]float64, 0),
	}
}

func (m *Mock) IncPlayersRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playersRegistered++
}

func (m *Mock) IncMatchesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesRecorded++
}

func (m *Mock) IncValidationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationFailures++
}

func (m *Mock) IncApplyFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyFailures[kind]++
}

func (m *Mock) IncApplyRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyRetries++
}

func (m *Mock) ObserveRecordDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordDurations = append(m.recordDurations, duration)
}

func (m *Mock) IncEventsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished++
}

func (m *Mock) IncEventsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsFailed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// PlayersRegistered returns the number of times IncPlayersRegistered was called.
func (m *Mock) PlayersRegistered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playersRegistered
}

// MatchesRecorded returns the number of times IncMatchesRecorded was called.
func (m *Mock) MatchesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesRecorded
}

// ValidationFailures returns the number of times IncValidationFailures was called.
func (m *Mock) ValidationFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validationFailures
}

// ApplyFailures returns the number of apply failures of the given kind.
func (m *Mock) ApplyFailures(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyFailures[kind]
}

func (m *Mock) ApplyRetries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyRetries
}

func (m *Mock) RecordDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.recordDurations...)
}

func (m *Mock) EventsPublished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsPublished
}

func (m *Mock) EventsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsFailed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
