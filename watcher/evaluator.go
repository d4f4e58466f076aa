package watcher

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lookout-ci/lookout"
	"github.com/lookout-ci/lookout/dedupe"
)

// Thresholds are the operational limits that make a condition
// notification-worthy.
type Thresholds struct {
	MaxFailedAttempts   int
	MaxRunningDuration  time.Duration
	MaxAbortedDuration  time.Duration
	MaxRunningBuilds    int
	MaxAbortedBuilds    int
	MaxFailedBuilds     int
	MaxInProgressBuilds int

	// Window is the trailing span over which the aggregate counts are
	// recomputed each cycle.
	Window time.Duration
}

// Evaluator decides which conditions are worth notifying about. Per-build
// evaluation records into the dedup state as it goes; aggregate evaluation
// is stateless and re-fires every cycle a threshold is still exceeded.
type Evaluator struct {
	jobName    string
	thresholds Thresholds
}

func NewEvaluator(jobName string, thresholds Thresholds) *Evaluator {
	return &Evaluator{
		jobName:    jobName,
		thresholds: thresholds,
	}
}

// EvaluateBuild runs the per-build condition chain. A build already
// recorded under any category is skipped; otherwise the first matching
// condition records itself and may emit an alert. Failures record
// unconditionally so the streak tally accumulates even below the
// threshold; the long-running and timed-out conditions record only when
// they fire, and so are rechecked on later polls.
func (e *Evaluator) EvaluateBuild(state *dedupe.State, build lookout.Build, now time.Time) []lookout.Alert {
	if state.Recorded(build.ID) {
		return nil
	}

	switch {
	case build.Status == lookout.StatusFailed:
		state.RecordFailure(build.ID, build.DisplayName)

		count := state.FailureCount(build.DisplayName)
		if count >= e.thresholds.MaxFailedAttempts && build.StartedToday(now) {
			return []lookout.Alert{{
				Kind:    lookout.AlertBuildFailedRepeatedly,
				Title:   "Build failed multiple times",
				Body:    fmt.Sprintf("%s has failed %d times.", build.DisplayName, count),
				BuildID: build.ID,
			}}
		}

	case build.Building && build.Age(now) >= e.thresholds.MaxRunningDuration:
		state.RecordLongRunning(build.ID)

		return []lookout.Alert{{
			Kind:    lookout.AlertBuildStillRunning,
			Title:   "Build still running",
			Body:    fmt.Sprintf("%s has been running for the last %.1f hours.", build.DisplayName, build.Age(now).Hours()),
			BuildID: build.ID,
		}}

	case build.Status == lookout.StatusAborted &&
		time.Duration(build.Duration)*time.Millisecond >= e.thresholds.MaxAbortedDuration &&
		build.StartedToday(now):
		state.RecordTimedOut(build.ID)

		duration := time.Duration(build.Duration) * time.Millisecond
		return []lookout.Alert{{
			Kind:    lookout.AlertBuildTimedOut,
			Title:   "Build has timed out",
			Body:    fmt.Sprintf("%s aborted after %.1f hours.", build.DisplayName, duration.Hours()),
			BuildID: build.ID,
		}}
	}

	return nil
}

// EvaluateAggregate recomputes the window counts from scratch and emits an
// alert for every count at or over its threshold. The three checks are
// independent of each other and of the dedup state: these are point-in-time
// fleet-health signals, not per-build events.
func (e *Evaluator) EvaluateAggregate(builds []lookout.Build, now time.Time) []lookout.Alert {
	var aborted, failed, inProgress int

	for _, build := range builds {
		if build.Age(now) > e.thresholds.Window {
			continue
		}

		switch {
		case build.Status == lookout.StatusAborted:
			aborted++
		case build.Status == lookout.StatusFailed:
			failed++
		case build.Building:
			inProgress++
		}
	}

	windowHours := e.thresholds.Window.Hours()

	var alerts []lookout.Alert

	if aborted >= e.thresholds.MaxAbortedBuilds {
		alerts = append(alerts, lookout.Alert{
			Kind:  lookout.AlertManyAborted,
			Title: fmt.Sprintf("Several %s builds aborted", e.jobName),
			Body:  fmt.Sprintf("%d builds aborted within the last %.1f hours.", aborted, windowHours),
		})
	}

	if failed >= e.thresholds.MaxFailedBuilds {
		alerts = append(alerts, lookout.Alert{
			Kind:  lookout.AlertManyFailed,
			Title: fmt.Sprintf("Several %s builds failed", e.jobName),
			Body:  fmt.Sprintf("%d builds failed within the last %.1f hours.", failed, windowHours),
		})
	}

	if inProgress >= e.thresholds.MaxInProgressBuilds {
		alerts = append(alerts, lookout.Alert{
			Kind:  lookout.AlertManyInProgress,
			Title: fmt.Sprintf("Several %s builds executed", e.jobName),
			Body:  fmt.Sprintf("%d builds executed within the last %.1f hours.", inProgress, windowHours),
		})
	}

	return alerts
}

// ManyRunning is the alert for a changed set of concurrently running
// builds at or over the running threshold.
func (e *Evaluator) ManyRunning(displayNames []string) lookout.Alert {
	return lookout.Alert{
		Kind:  lookout.AlertManyRunning,
		Title: fmt.Sprintf("Several %s builds running", e.jobName),
		Body:  fmt.Sprintf("%d builds currently running: %s", len(displayNames), strings.Join(displayNames, ", ")),
	}
}

// FetchFailed is the operator notification sent when the build source
// cannot be reached even after retries.
func (e *Evaluator) FetchFailed() lookout.Alert {
	return lookout.Alert{
		Kind:  lookout.AlertFetchFailed,
		Title: fmt.Sprintf("Error retrieving %s data from Jenkins", e.jobName),
		Body:  "Failed to fetch data from the Jenkins API. Please check the logs and ensure that Jenkins is accessible.",
	}
}

// Fingerprint returns an order-independent digest of a set of build IDs.
func Fingerprint(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return fmt.Sprintf("%x", sum)
}
