// Package jobs runs the forum's background work.
//
// TWO LOOPS SHARE ONE GOROUTINE:
//   - Deferred tasks. Reads cannot write under the shared lock, so they queue
//     their side effects (last seen, visit counters). Whenever the service
//     signals Ready, the runner calls Flush.
//   - Grant sweeping. Expired grants are already ignored by every check. The
//     sweeper frees them on a timer.
//
// Stop flushes once more so nothing queued before shutdown is lost.
package jobs

import (
	"log/slog"
	"sync"
	"time"
)

// Worker is the part of the service the runner drives. *service.Service
// implements it.
type Worker interface {
	Ready() <-chan struct{}
	Flush() int
	SweepExpiredGrants(now time.Time) int
}

type Runner struct {
	worker        Worker
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a runner. A zero sweepInterval disables the sweeper.
func New(worker Worker, sweepInterval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		worker:        worker,
		sweepInterval: sweepInterval,
		now:           time.Now,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Start launches the background goroutine. Calling it twice is harmless.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.logger.Info("starting background jobs", slog.Duration("grantSweepInterval", r.sweepInterval))
		r.wg.Add(1)
		go r.loop()
	})
}

// Stop ends the loop, waits for it and runs a final flush.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		if n := r.worker.Flush(); n > 0 {
			r.logger.Info("flushed deferred tasks on shutdown", slog.Int("count", n))
		}
	})
}

func (r *Runner) loop() {
	defer r.wg.Done()

	var sweep <-chan time.Time
	if r.sweepInterval > 0 {
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-r.done:
			return
		case <-r.worker.Ready():
			if n := r.worker.Flush(); n > 0 {
				r.logger.Debug("deferred tasks flushed", slog.Int("count", n))
			}
		case <-sweep:
			if n := r.worker.SweepExpiredGrants(r.now()); n > 0 {
				r.logger.Info("expired grants removed", slog.Int("count", n))
			}
		}
	}
}
