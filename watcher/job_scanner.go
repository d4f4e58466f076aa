package watcher

import (
	"context"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerctx"
)

// JobScanner runs one aggregate scan cycle over the entire visible build
// window. It holds no state and never touches the dedup store; the window
// counts are recomputed from scratch every cycle.
type JobScanner struct {
	source    BuildSource
	notifier  Notifier
	evaluator *Evaluator
	clock     clock.Clock
}

func NewJobScanner(
	source BuildSource,
	notifier Notifier,
	evaluator *Evaluator,
	clck clock.Clock,
) *JobScanner {
	return &JobScanner{
		source:    source,
		notifier:  notifier,
		evaluator: evaluator,
		clock:     clck,
	}
}

func (s *JobScanner) Run(ctx context.Context) error {
	logger := lagerctx.FromContext(ctx)

	logger.Debug("start")
	defer logger.Debug("done")

	builds, err := s.source.Builds(ctx)
	if err != nil {
		logger.Error("failed-to-fetch-builds", err)

		if sendErr := s.notifier.Send(ctx, s.evaluator.FetchFailed()); sendErr != nil {
			logger.Error("failed-to-notify", sendErr)
		}

		return err
	}

	for _, alert := range s.evaluator.EvaluateAggregate(builds, s.clock.Now()) {
		if err := s.notifier.Send(ctx, alert); err != nil {
			logger.Error("failed-to-notify", err, lager.Data{
				"alert": string(alert.Kind),
			})
		}
	}

	return nil
}
