package watcher

import (
	"context"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerctx"
	"github.com/tedsuo/ifrit"
)

//go:generate counterfeiter . Runner

type Runner interface {
	Run(context.Context) error
}

// NewIntervalRunner wraps a Runner in an ifrit.Runner that runs it
// immediately and then on every interval tick. An interrupt signal cancels
// the context and stops the loop cleanly. A Runner error is fatal: it is
// returned as-is, taking down whatever group this runner is a member of.
func NewIntervalRunner(
	logger lager.Logger,
	clck clock.Clock,
	runner Runner,
	interval time.Duration,
) ifrit.Runner {
	return &intervalRunner{
		logger:   logger,
		clock:    clck,
		runner:   runner,
		interval: interval,
	}
}

type intervalRunner struct {
	logger   lager.Logger
	clock    clock.Clock
	runner   Runner
	interval time.Duration
}

func (r *intervalRunner) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	r.logger.Info("start")
	defer r.logger.Info("done")

	close(ready)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(lagerctx.NewContext(context.Background(), r.logger))
	defer cancel()

	if err := r.runner.Run(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ticker.C():
			if err := r.runner.Run(ctx); err != nil {
				return err
			}
		case <-signals:
			cancel()
			return nil
		}
	}
}
