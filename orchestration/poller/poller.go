// Package poller implements the control thread's cooperative event loop
// (component C): a 1-second tick drives the base-poll state machine, and the
// same loop drains the installer bridge's job queue so installer-triggered
// feedback POSTs are serialized with respect to the poll tick.
package poller

import (
	"context"
	"log/slog"
	"time"
)

// Intake performs one base-poll tick and reports the next polling interval
// in seconds.
type Intake interface {
	BasePoll(ctx context.Context) (int, error)
}

// Poller runs the 1-Hz control loop.
type Poller struct {
	intake    Intake
	jobs      <-chan func(context.Context)
	retryWait time.Duration
	runOnce   bool
	logger    *slog.Logger
}

// NewPoller creates a Poller. jobs is the installer bridge's job queue,
// drained on every loop iteration alongside the poll ticker.
//
//	p := poller.NewPoller(intake, bridge.Jobs(), cfg.RetryWait, cfg.RunOnce, logger)
func NewPoller(intake Intake, jobs <-chan func(context.Context), retryWait time.Duration, runOnce bool, logger *slog.Logger) *Poller {
	return &Poller{
		intake:    intake,
		jobs:      jobs,
		retryWait: retryWait,
		runOnce:   runOnce,
		logger:    logger,
	}
}

// Run starts the control loop. It blocks until ctx is cancelled, or — in
// run-once mode — until the single base-poll attempt completes. The
// returned exit code is meaningful only in run-once mode: 0 on a successful
// base poll, 1 on failure.
func (p *Poller) Run(ctx context.Context) int {
	if p.runOnce {
		return p.runOnceTick(ctx)
	}

	intervalSec := int(p.retryWait / time.Second)
	elapsedSec := 0

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case job := <-p.jobs:
			job(ctx)
		case <-ticker.C:
			elapsedSec++
			if elapsedSec < intervalSec {
				continue
			}
			elapsedSec = 0

			next, err := p.intake.BasePoll(ctx)
			if err != nil {
				intervalSec = int(p.retryWait / time.Second)
				continue
			}
			intervalSec = next
		}
	}
}

// runOnceTick performs a single base poll, then drains any jobs already
// queued (feedback POSTs scheduled by the installer bridge) before
// returning.
func (p *Poller) runOnceTick(ctx context.Context) int {
	_, err := p.intake.BasePoll(ctx)

	for {
		select {
		case job := <-p.jobs:
			job(ctx)
		default:
			if err != nil {
				p.logger.Warn("run-once base poll failed", "error", err)
				return 1
			}
			return 0
		}
	}
}
