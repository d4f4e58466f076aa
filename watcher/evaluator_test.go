package watcher_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lookout-ci/lookout"
	"github.com/lookout-ci/lookout/dedupe"
	"github.com/lookout-ci/lookout/watcher"
)

var _ = Describe("Evaluator", func() {
	var (
		evaluator *watcher.Evaluator
		state     *dedupe.State
		now       time.Time
	)

	failed := func(id string, displayName string, startedAt time.Time) lookout.Build {
		return lookout.Build{
			ID:          id,
			DisplayName: displayName,
			Status:      lookout.StatusFailed,
			StartTime:   startedAt.UnixMilli(),
			Duration:    60000,
		}
	}

	running := func(id string, displayName string, startedAt time.Time) lookout.Build {
		return lookout.Build{
			ID:          id,
			DisplayName: displayName,
			Status:      lookout.StatusStarted,
			StartTime:   startedAt.UnixMilli(),
			Building:    true,
		}
	}

	aborted := func(id string, displayName string, startedAt time.Time, duration time.Duration) lookout.Build {
		return lookout.Build{
			ID:          id,
			DisplayName: displayName,
			Status:      lookout.StatusAborted,
			StartTime:   startedAt.UnixMilli(),
			Duration:    duration.Milliseconds(),
		}
	}

	BeforeEach(func() {
		now = time.Date(2024, 5, 14, 12, 0, 0, 0, time.Local)
		state = dedupe.NewState()

		evaluator = watcher.NewEvaluator("the-job", watcher.Thresholds{
			MaxFailedAttempts:   3,
			MaxRunningDuration:  3 * time.Hour,
			MaxAbortedDuration:  4 * time.Hour,
			MaxRunningBuilds:    8,
			MaxAbortedBuilds:    4,
			MaxFailedBuilds:     3,
			MaxInProgressBuilds: 6,
			Window:              90 * time.Minute,
		})
	})

	Describe("EvaluateBuild", func() {
		Context("failure streaks", func() {
			It("alerts exactly once, on the build that reaches the threshold", func() {
				builds := []lookout.Build{
					failed("1", "deploy", now.Add(-3*time.Hour)),
					failed("2", "deploy", now.Add(-2*time.Hour)),
					failed("3", "deploy", now.Add(-1*time.Hour)),
				}

				var alerts []lookout.Alert
				for _, build := range builds {
					alerts = append(alerts, evaluator.EvaluateBuild(state, build, now)...)
				}

				Expect(alerts).To(HaveLen(1))
				Expect(alerts[0].Kind).To(Equal(lookout.AlertBuildFailedRepeatedly))
				Expect(alerts[0].Body).To(Equal("deploy has failed 3 times."))
				Expect(alerts[0].BuildID).To(Equal("3"))
			})

			It("emits nothing when the same builds are re-evaluated against the same state", func() {
				builds := []lookout.Build{
					failed("1", "deploy", now.Add(-3*time.Hour)),
					failed("2", "deploy", now.Add(-2*time.Hour)),
					failed("3", "deploy", now.Add(-1*time.Hour)),
				}

				for _, build := range builds {
					evaluator.EvaluateBuild(state, build, now)
				}

				for _, build := range builds {
					Expect(evaluator.EvaluateBuild(state, build, now)).To(BeEmpty())
				}
			})

			It("tallies but does not alert below the threshold", func() {
				Expect(evaluator.EvaluateBuild(state, failed("1", "deploy", now), now)).To(BeEmpty())
				Expect(evaluator.EvaluateBuild(state, failed("2", "deploy", now), now)).To(BeEmpty())

				Expect(state.FailureCount("deploy")).To(Equal(2))
			})

			It("records a threshold-reaching failure from a previous day without alerting", func() {
				yesterday := now.Add(-24 * time.Hour)

				evaluator.EvaluateBuild(state, failed("1", "deploy", yesterday), now)
				evaluator.EvaluateBuild(state, failed("2", "deploy", yesterday), now)
				alerts := evaluator.EvaluateBuild(state, failed("3", "deploy", yesterday), now)

				Expect(alerts).To(BeEmpty())
				Expect(state.FailureCount("deploy")).To(Equal(3))
			})

			It("keeps separate tallies per display name", func() {
				evaluator.EvaluateBuild(state, failed("1", "deploy", now), now)
				evaluator.EvaluateBuild(state, failed("2", "smoke", now), now)
				evaluator.EvaluateBuild(state, failed("3", "deploy", now), now)
				alerts := evaluator.EvaluateBuild(state, failed("4", "smoke", now), now)

				Expect(alerts).To(BeEmpty())
				Expect(state.FailureCount("deploy")).To(Equal(2))
				Expect(state.FailureCount("smoke")).To(Equal(2))
			})
		})

		Context("long-running builds", func() {
			It("alerts once for a build running past the limit", func() {
				build := running("7", "deploy", now.Add(-4*time.Hour))

				alerts := evaluator.EvaluateBuild(state, build, now)
				Expect(alerts).To(HaveLen(1))
				Expect(alerts[0].Kind).To(Equal(lookout.AlertBuildStillRunning))
				Expect(alerts[0].Body).To(Equal("deploy has been running for the last 4.0 hours."))
				Expect(alerts[0].BuildID).To(Equal("7"))

				Expect(evaluator.EvaluateBuild(state, build, now)).To(BeEmpty())
			})

			It("stays quiet, and unrecorded, below the limit", func() {
				build := running("7", "deploy", now.Add(-2*time.Hour))

				Expect(evaluator.EvaluateBuild(state, build, now)).To(BeEmpty())
				Expect(state.Recorded("7")).To(BeFalse())
			})
		})

		Context("timed-out aborts", func() {
			It("alerts once for a long aborted build from today", func() {
				build := aborted("9", "deploy", now.Add(-5*time.Hour), 4*time.Hour+30*time.Minute)

				alerts := evaluator.EvaluateBuild(state, build, now)
				Expect(alerts).To(HaveLen(1))
				Expect(alerts[0].Kind).To(Equal(lookout.AlertBuildTimedOut))
				Expect(alerts[0].Body).To(Equal("deploy aborted after 4.5 hours."))
				Expect(alerts[0].BuildID).To(Equal("9"))

				Expect(evaluator.EvaluateBuild(state, build, now)).To(BeEmpty())
			})

			It("ignores a short abort", func() {
				build := aborted("9", "deploy", now.Add(-2*time.Hour), time.Hour)

				Expect(evaluator.EvaluateBuild(state, build, now)).To(BeEmpty())
				Expect(state.Recorded("9")).To(BeFalse())
			})

			It("ignores a long abort from a previous day", func() {
				build := aborted("9", "deploy", now.Add(-24*time.Hour), 5*time.Hour)

				Expect(evaluator.EvaluateBuild(state, build, now)).To(BeEmpty())
				Expect(state.Recorded("9")).To(BeFalse())
			})
		})

		Context("once any condition is recorded for a build", func() {
			It("skips every later check for that build", func() {
				state.RecordLongRunning("7")

				alerts := evaluator.EvaluateBuild(state, failed("7", "deploy", now), now)

				Expect(alerts).To(BeEmpty())
				Expect(state.FailureCount("deploy")).To(BeZero())
			})
		})
	})

	Describe("EvaluateAggregate", func() {
		It("emits independent alerts for every exceeded count", func() {
			var builds []lookout.Build

			for i := 0; i < 4; i++ {
				builds = append(builds, aborted(ids("a", i), "deploy", now.Add(-time.Hour), time.Hour))
			}
			for i := 0; i < 3; i++ {
				builds = append(builds, failed(ids("f", i), "deploy", now.Add(-time.Hour)))
			}
			for i := 0; i < 6; i++ {
				builds = append(builds, running(ids("r", i), "deploy", now.Add(-time.Hour)))
			}

			alerts := evaluator.EvaluateAggregate(builds, now)

			Expect(alerts).To(HaveLen(3))
			Expect(alerts[0].Kind).To(Equal(lookout.AlertManyAborted))
			Expect(alerts[0].Body).To(Equal("4 builds aborted within the last 1.5 hours."))
			Expect(alerts[1].Kind).To(Equal(lookout.AlertManyFailed))
			Expect(alerts[1].Body).To(Equal("3 builds failed within the last 1.5 hours."))
			Expect(alerts[2].Kind).To(Equal(lookout.AlertManyInProgress))
			Expect(alerts[2].Body).To(Equal("6 builds executed within the last 1.5 hours."))
		})

		It("only counts builds that started within the window", func() {
			builds := []lookout.Build{
				aborted("1", "deploy", now.Add(-time.Hour), time.Hour),
				aborted("2", "deploy", now.Add(-time.Hour), time.Hour),
				aborted("3", "deploy", now.Add(-time.Hour), time.Hour),
				aborted("4", "deploy", now.Add(-91*time.Minute), time.Hour),
			}

			Expect(evaluator.EvaluateAggregate(builds, now)).To(BeEmpty())
		})

		It("re-fires on every evaluation while the condition persists", func() {
			var builds []lookout.Build
			for i := 0; i < 4; i++ {
				builds = append(builds, aborted(ids("a", i), "deploy", now.Add(-time.Hour), time.Hour))
			}

			Expect(evaluator.EvaluateAggregate(builds, now)).To(HaveLen(1))
			Expect(evaluator.EvaluateAggregate(builds, now)).To(HaveLen(1))
		})

		It("emits nothing when all counts are below their thresholds", func() {
			builds := []lookout.Build{
				aborted("1", "deploy", now.Add(-time.Hour), time.Hour),
				failed("2", "deploy", now.Add(-time.Hour)),
				running("3", "deploy", now.Add(-time.Hour)),
			}

			Expect(evaluator.EvaluateAggregate(builds, now)).To(BeEmpty())
		})
	})

	Describe("Fingerprint", func() {
		It("ignores ordering", func() {
			Expect(watcher.Fingerprint([]string{"a", "b", "c"})).To(Equal(watcher.Fingerprint([]string{"c", "a", "b"})))
		})

		It("distinguishes different sets", func() {
			Expect(watcher.Fingerprint([]string{"a", "b"})).ToNot(Equal(watcher.Fingerprint([]string{"a", "b", "c"})))
		})

		It("does not confuse concatenated IDs", func() {
			Expect(watcher.Fingerprint([]string{"ab"})).ToNot(Equal(watcher.Fingerprint([]string{"a", "b"})))
		})
	})

	Describe("ManyRunning", func() {
		It("names every running build", func() {
			alert := evaluator.ManyRunning([]string{"deploy #1", "deploy #2"})

			Expect(alert.Kind).To(Equal(lookout.AlertManyRunning))
			Expect(alert.Title).To(Equal("Several the-job builds running"))
			Expect(alert.Body).To(Equal("2 builds currently running: deploy #1, deploy #2"))
			Expect(alert.BuildID).To(BeEmpty())
		})
	})

	Describe("FetchFailed", func() {
		It("links to the job, not a build", func() {
			alert := evaluator.FetchFailed()

			Expect(alert.Kind).To(Equal(lookout.AlertFetchFailed))
			Expect(alert.Title).To(Equal("Error retrieving the-job data from Jenkins"))
			Expect(alert.BuildID).To(BeEmpty())
		})
	})
})

func ids(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}
