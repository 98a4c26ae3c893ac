// Package downloader implements the download worker (component E): it
// asynchronously fetches a deployment's artifact, verifies its checksum,
// and hands it to the installer, reporting progress and terminal status
// along the way.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gurre/hawkbit-agent-go/adaptor/ddiclient"
	"github.com/gurre/hawkbit-agent-go/install"
	"github.com/gurre/hawkbit-agent-go/logic/ddiurl"
	"github.com/gurre/hawkbit-agent-go/logic/feedback"
	"github.com/gurre/hawkbit-agent-go/orchestration/bridge"
	"github.com/gurre/hawkbit-agent-go/orchestration/teardown"
)

const bytesPerMB = 1024 * 1024

// Artifact describes the bundle a session downloads, extracted from the
// deployment resource by orchestration/intake.
type Artifact struct {
	Name    string
	Version string
	Size    int64
	SHA1    string
	URL     string
}

// Manager spawns at most one download worker at a time, joining the
// previous worker before starting a new one.
type Manager struct {
	client     *ddiclient.Client
	baseURL    string
	bundlePath string
	installer  install.Installer
	bridge     *bridge.Bridge
	teardown   *teardown.Teardown
	logger     *slog.Logger

	mu   sync.Mutex
	prev <-chan struct{}
}

// New creates a download worker Manager.
func New(client *ddiclient.Client, baseURL, bundlePath string, installer install.Installer, br *bridge.Bridge, td *teardown.Teardown, logger *slog.Logger) *Manager {
	return &Manager{
		client:     client,
		baseURL:    baseURL,
		bundlePath: bundlePath,
		installer:  installer,
		bridge:     br,
		teardown:   td,
		logger:     logger,
	}
}

// Spawn joins the previous worker (if any is still running) then starts a
// new one on its own goroutine for actionID/artifact. Returns immediately;
// the caller (deployment intake) never blocks on the download itself.
func (m *Manager) Spawn(ctx context.Context, actionID string, artifact Artifact) {
	m.mu.Lock()
	prev := m.prev
	done := make(chan struct{})
	m.prev = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		m.run(ctx, actionID, artifact)
	}()
}

func (m *Manager) run(ctx context.Context, actionID string, artifact Artifact) {
	sha1hex, bytesPerSec, err := m.client.Download(ctx, artifact.URL, m.bundlePath)
	if err != nil {
		m.sendFeedback(ctx, actionID, err.Error(), feedback.FinishedFailure, feedback.ExecutionClosed)
		m.teardown.Run(actionID)
		return
	}

	m.sendFeedback(ctx, actionID,
		fmt.Sprintf("Download complete. %.2f MB/s", bytesPerSec/bytesPerMB),
		feedback.FinishedNone, feedback.ExecutionProceeding)

	if sha1hex != artifact.SHA1 {
		m.sendFeedback(ctx, actionID,
			fmt.Sprintf("Checksum mismatch: expected %s, got %s", artifact.SHA1, sha1hex),
			feedback.FinishedFailure, feedback.ExecutionClosed)
		m.teardown.Run(actionID)
		return
	}

	m.sendFeedback(ctx, actionID, "File checksum OK.", feedback.FinishedNone, feedback.ExecutionProceeding)

	handle := install.Handle{
		BundlePath: m.bundlePath,
		Progress:   func(message string) { m.bridge.Progress(actionID, message) },
		Complete:   func(success bool) { m.bridge.Complete(actionID, success) },
	}
	m.installer.Install(handle)
	// The worker's job ends here; the session stays open until the
	// installer reports completion through the bridge.
}

func (m *Manager) sendFeedback(ctx context.Context, actionID, detail string, finished feedback.Finished, execution feedback.Execution) {
	env := feedback.Build(time.Now(), actionID, detail, finished, execution, nil)
	url := ddiurl.Feedback(m.baseURL, actionID)
	if _, err := m.client.REST(ctx, http.MethodPost, url, env); err != nil {
		m.logger.Warn("feedback POST failed", "actionId", actionID, "error", err)
	}
}
