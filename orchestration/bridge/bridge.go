// Package bridge implements the installer bridge (component F): it marshals
// completion and progress calls from the installer's own thread back onto
// the control thread, so the feedback POSTs they trigger never run on the
// installer's goroutine.
package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gurre/hawkbit-agent-go/adaptor/ddiclient"
	"github.com/gurre/hawkbit-agent-go/logic/ddiurl"
	"github.com/gurre/hawkbit-agent-go/logic/feedback"
	"github.com/gurre/hawkbit-agent-go/logic/session"
	"github.com/gurre/hawkbit-agent-go/orchestration/teardown"
)

const jobQueueDepth = 8

// Rebooter issues a system reboot. Injected so tests can supply a no-op.
type Rebooter interface {
	Sync()
	Reboot() error
}

// Bridge schedules feedback-posting jobs to be run on the control thread.
type Bridge struct {
	jobs             chan func(context.Context)
	client           *ddiclient.Client
	baseURL          string
	tracker          *session.Tracker
	teardown         *teardown.Teardown
	postUpdateReboot bool
	rebooter         Rebooter
	logger           *slog.Logger
}

// New creates a Bridge. Jobs scheduled by Progress/Complete must be drained
// by the control loop via Jobs().
func New(client *ddiclient.Client, baseURL string, tracker *session.Tracker, td *teardown.Teardown, postUpdateReboot bool, rebooter Rebooter, logger *slog.Logger) *Bridge {
	return &Bridge{
		jobs:             make(chan func(context.Context), jobQueueDepth),
		client:           client,
		baseURL:          baseURL,
		tracker:          tracker,
		teardown:         td,
		postUpdateReboot: postUpdateReboot,
		rebooter:         rebooter,
		logger:           logger,
	}
}

// Jobs exposes the queue the control loop must select on alongside its
// poll ticker.
func (b *Bridge) Jobs() <-chan func(context.Context) {
	return b.jobs
}

// Progress schedules a proceeding feedback POST for actionID. Safe to call
// from the installer's own thread. No-op if actionID is no longer the
// active session (session already closed).
//
//	handle.Progress = func(msg string) { bridge.Progress(actionID, msg) }
func (b *Bridge) Progress(actionID, message string) {
	b.jobs <- func(ctx context.Context) {
		if current, ok := b.tracker.Current(); !ok || current != actionID {
			return
		}
		b.post(ctx, actionID, message, feedback.FinishedNone, feedback.ExecutionProceeding)
	}
}

// Complete schedules the terminal feedback POST for actionID and runs
// session teardown before returning. On success, if post-update-reboot is
// configured, it also syncs and reboots (logging and continuing on
// failure).
//
//	handle.Complete = func(success bool) { bridge.Complete(actionID, success) }
func (b *Bridge) Complete(actionID string, success bool) {
	b.jobs <- func(ctx context.Context) {
		if success {
			b.post(ctx, actionID, "Software bundle installed successful.", feedback.FinishedSuccess, feedback.ExecutionClosed)
			b.teardown.Run(actionID)
			if b.postUpdateReboot {
				b.rebooter.Sync()
				if err := b.rebooter.Reboot(); err != nil {
					b.logger.Error("reboot failed", "error", err)
				}
			}
			return
		}
		b.post(ctx, actionID, "Failed to install software bundle.", feedback.FinishedFailure, feedback.ExecutionClosed)
		b.teardown.Run(actionID)
	}
}

func (b *Bridge) post(ctx context.Context, actionID, detail string, finished feedback.Finished, execution feedback.Execution) {
	env := feedback.Build(time.Now(), actionID, detail, finished, execution, nil)
	url := ddiurl.Feedback(b.baseURL, actionID)
	if _, err := b.client.REST(ctx, http.MethodPost, url, env); err != nil {
		b.logger.Warn("feedback POST failed", "actionId", actionID, "error", err)
	}
}
