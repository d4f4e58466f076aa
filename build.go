package lookout

import "time"

// BuildStatus is the state of a single build as reported by the CI server.
type BuildStatus string

const (
	StatusSucceeded BuildStatus = "succeeded"
	StatusFailed    BuildStatus = "failed"
	StatusAborted   BuildStatus = "aborted"
	StatusStarted   BuildStatus = "started"
	StatusOther     BuildStatus = "other"
)

// StatusFromResult maps a Jenkins build result onto a BuildStatus. A build
// that is still executing reports a null result, so Building takes
// precedence over it.
func StatusFromResult(result string, building bool) BuildStatus {
	if building {
		return StatusStarted
	}

	switch result {
	case "SUCCESS":
		return StatusSucceeded
	case "FAILURE":
		return StatusFailed
	case "ABORTED":
		return StatusAborted
	default:
		return StatusOther
	}
}

// Build is an immutable snapshot of one build of the watched job. IDs are
// stable across polls; a build only ever moves from started to one of the
// terminal statuses.
type Build struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Status      BuildStatus `json:"status"`
	StartTime   int64       `json:"start_time"` // epoch milliseconds
	Duration    int64       `json:"duration"`   // milliseconds; 0 while building
	Building    bool        `json:"building"`
}

func (b Build) StartedAt() time.Time {
	return time.UnixMilli(b.StartTime)
}

// Age is the time elapsed since the build started.
func (b Build) Age(now time.Time) time.Duration {
	return now.Sub(b.StartedAt())
}

// StartedToday reports whether the build started on the same calendar date
// as now, in local time. This is date equality, not a rolling 24-hour
// window: a build started at 23:59 stops being "today" two minutes later.
func (b Build) StartedToday(now time.Time) bool {
	y1, m1, d1 := b.StartedAt().Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
