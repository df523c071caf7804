package metrics

// Metrics defines the interface for collecting application metrics.
type Metrics interface {
	IncPlayersRegistered()
	IncMatchesRecorded()
	IncValidationFailures()
	IncApplyFailures(kind string)
	IncApplyRetries()
	ObserveRecordDuration(duration float64)
	IncEventsPublished()
	IncEventsFailed()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
