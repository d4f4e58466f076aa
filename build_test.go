package lookout_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lookout-ci/lookout"
)

var _ = Describe("Build", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2024, 5, 14, 0, 1, 0, 0, time.Local)
	})

	Describe("Age", func() {
		It("is the time elapsed since the build started", func() {
			build := lookout.Build{
				StartTime: now.Add(-90 * time.Minute).UnixMilli(),
			}

			Expect(build.Age(now)).To(Equal(90 * time.Minute))
		})
	})

	Describe("StartedToday", func() {
		It("is true for a build started earlier on the same calendar date", func() {
			build := lookout.Build{
				StartTime: time.Date(2024, 5, 14, 0, 0, 30, 0, time.Local).UnixMilli(),
			}

			Expect(build.StartedToday(now)).To(BeTrue())
		})

		It("is false for a build started minutes before midnight the day before", func() {
			build := lookout.Build{
				StartTime: time.Date(2024, 5, 13, 23, 59, 0, 0, time.Local).UnixMilli(),
			}

			Expect(build.StartedToday(now)).To(BeFalse())
		})
	})

	Describe("StatusFromResult", func() {
		It("maps terminal Jenkins results", func() {
			Expect(lookout.StatusFromResult("SUCCESS", false)).To(Equal(lookout.StatusSucceeded))
			Expect(lookout.StatusFromResult("FAILURE", false)).To(Equal(lookout.StatusFailed))
			Expect(lookout.StatusFromResult("ABORTED", false)).To(Equal(lookout.StatusAborted))
		})

		It("treats a building build as started regardless of result", func() {
			Expect(lookout.StatusFromResult("", true)).To(Equal(lookout.StatusStarted))
		})

		It("maps anything unrecognized to other", func() {
			Expect(lookout.StatusFromResult("UNSTABLE", false)).To(Equal(lookout.StatusOther))
			Expect(lookout.StatusFromResult("", false)).To(Equal(lookout.StatusOther))
		})
	})
})
