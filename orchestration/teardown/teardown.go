// Package teardown implements session teardown, shared by the download
// worker's failure paths and the installer bridge's completion path: clear
// the action ID and remove the downloaded bundle file.
package teardown

import (
	"log/slog"

	"github.com/gurre/hawkbit-agent-go/adaptor/filesystem"
	"github.com/gurre/hawkbit-agent-go/logic/session"
)

// Teardown closes out a session.
type Teardown struct {
	tracker    *session.Tracker
	bundlePath string
	fileOp     *filesystem.Operator
	logger     *slog.Logger
}

// New creates a Teardown for the given tracker and bundle file path.
func New(tracker *session.Tracker, bundlePath string, logger *slog.Logger) *Teardown {
	return &Teardown{tracker: tracker, bundlePath: bundlePath, fileOp: filesystem.NewOperator(), logger: logger}
}

// Run clears the action ID and removes the bundle file if present. Safe to
// call more than once for the same terminal outcome (release and remove are
// both idempotent).
func (t *Teardown) Run(actionID string) {
	t.tracker.Release()
	if err := t.fileOp.Remove(t.bundlePath); err != nil {
		t.logger.Debug("failed to remove bundle file during teardown", "actionId", actionID, "path", t.bundlePath, "error", err)
	}
}
