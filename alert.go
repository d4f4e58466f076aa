package lookout

// AlertKind identifies the condition that produced an Alert.
type AlertKind string

const (
	AlertBuildFailedRepeatedly AlertKind = "build-failed-repeatedly"
	AlertBuildStillRunning     AlertKind = "build-still-running"
	AlertBuildTimedOut         AlertKind = "build-timed-out"
	AlertManyRunning           AlertKind = "many-running"
	AlertManyAborted           AlertKind = "many-aborted"
	AlertManyFailed            AlertKind = "many-failed"
	AlertManyInProgress        AlertKind = "many-in-progress"
	AlertFetchFailed           AlertKind = "fetch-failed"
)

// Alert is a single notification-worthy event. BuildID, when set, is the
// build the notification should link to; when empty the notification links
// to the job itself.
type Alert struct {
	Kind    AlertKind
	Title   string
	Body    string
	BuildID string
}
