package watcher

import (
	"context"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerctx"

	"github.com/lookout-ci/lookout"
	"github.com/lookout-ci/lookout/dedupe"
)

//go:generate counterfeiter . BuildSource

// BuildSource fetches the watched job's visible build history in
// chronological order, oldest first.
type BuildSource interface {
	Builds(ctx context.Context) ([]lookout.Build, error)
}

//go:generate counterfeiter . Notifier

// Notifier delivers an alert to the operator's chat channel. It is a
// best-effort side channel: callers log send failures and carry on.
type Notifier interface {
	Send(ctx context.Context, alert lookout.Alert) error
}

//go:generate counterfeiter . StateStore

type StateStore interface {
	Save(state *dedupe.State) error
}

// BuildScanner runs one per-build scan cycle: it walks every fetched build
// oldest-first so failure streaks accumulate in order, sends whatever the
// evaluator emits, refreshes the running-set fingerprint, and persists the
// dedup state. It is the only writer of the dedup state.
type BuildScanner struct {
	source    BuildSource
	notifier  Notifier
	store     StateStore
	evaluator *Evaluator
	state     *dedupe.State
	clock     clock.Clock

	// Remembered only for the process lifetime. A restart merely allows one
	// repeat many-running notification for an unchanged set.
	runningFingerprint string
}

func NewBuildScanner(
	source BuildSource,
	notifier Notifier,
	store StateStore,
	evaluator *Evaluator,
	state *dedupe.State,
	clck clock.Clock,
) *BuildScanner {
	return &BuildScanner{
		source:    source,
		notifier:  notifier,
		store:     store,
		evaluator: evaluator,
		state:     state,
		clock:     clck,
	}
}

func (s *BuildScanner) Run(ctx context.Context) error {
	logger := lagerctx.FromContext(ctx)

	logger.Debug("start")
	defer logger.Debug("done")

	builds, err := s.source.Builds(ctx)
	if err != nil {
		logger.Error("failed-to-fetch-builds", err)
		s.send(ctx, s.evaluator.FetchFailed())
		return err
	}

	now := s.clock.Now()

	var runningIDs, runningNames []string

	for _, build := range builds {
		if build.Building {
			runningIDs = append(runningIDs, build.ID)
			runningNames = append(runningNames, build.DisplayName)
		}

		for _, alert := range s.evaluator.EvaluateBuild(s.state, build, now) {
			s.send(ctx, alert)
		}
	}

	fingerprint := Fingerprint(runningIDs)
	if fingerprint != s.runningFingerprint {
		s.runningFingerprint = fingerprint

		if len(runningIDs) >= s.evaluator.thresholds.MaxRunningBuilds {
			s.send(ctx, s.evaluator.ManyRunning(runningNames))
		}
	}

	if err := s.store.Save(s.state); err != nil {
		logger.Error("failed-to-save-state", err)
	}

	return nil
}

func (s *BuildScanner) send(ctx context.Context, alert lookout.Alert) {
	if err := s.notifier.Send(ctx, alert); err != nil {
		lagerctx.FromContext(ctx).Error("failed-to-notify", err, lager.Data{
			"alert": string(alert.Kind),
		})
	}
}
