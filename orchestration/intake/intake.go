// Package intake implements deployment intake (component D): it parses the
// base-poll response and dispatches to identify, process-deployment, cancel
// acknowledgement, or idle, enforcing the single-session invariant.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/gurre/hawkbit-agent-go/adaptor/ddiclient"
	"github.com/gurre/hawkbit-agent-go/adaptor/diskspace"
	"github.com/gurre/hawkbit-agent-go/logic/ddiurl"
	"github.com/gurre/hawkbit-agent-go/logic/feedback"
	"github.com/gurre/hawkbit-agent-go/logic/session"
	"github.com/gurre/hawkbit-agent-go/orchestration/downloader"
	"github.com/gurre/hawkbit-agent-go/state/config"
)

// link is a hawkBit HAL-style `{"href": "..."}` reference.
type link struct {
	Href string `json:"href"`
}

// basePollResponse is the subset of the base-poll JSON the agent uses.
type basePollResponse struct {
	Config struct {
		Polling struct {
			Sleep string `json:"sleep"`
		} `json:"polling"`
	} `json:"config"`
	Links struct {
		ConfigData     *link `json:"configData"`
		DeploymentBase *link `json:"deploymentBase"`
		CancelAction   *link `json:"cancelAction"`
	} `json:"_links"`
}

// deploymentResponse is the subset of the deployment-resource JSON the agent uses.
type deploymentResponse struct {
	ID         string `json:"id"`
	Deployment struct {
		Chunks []struct {
			Name      string `json:"name"`
			Version   string `json:"version"`
			Artifacts []struct {
				Size   int64 `json:"size"`
				Hashes struct {
					SHA1 string `json:"sha1"`
				} `json:"hashes"`
				Links struct {
					Download     *link `json:"download"`
					DownloadHTTP *link `json:"download-http"`
				} `json:"_links"`
			} `json:"artifacts"`
		} `json:"chunks"`
	} `json:"deployment"`
}

// Intake drives one base-poll tick against the DDI server.
type Intake struct {
	client   *ddiclient.Client
	cfg      config.Agent
	baseURL  string
	tracker  *session.Tracker
	manager  *downloader.Manager
	logger   *slog.Logger
}

// New creates an Intake.
//
//	intake := intake.New(client, cfg, baseURL, tracker, manager, logger)
func New(client *ddiclient.Client, cfg config.Agent, baseURL string, tracker *session.Tracker, manager *downloader.Manager, logger *slog.Logger) *Intake {
	return &Intake{
		client:  client,
		cfg:     cfg,
		baseURL: baseURL,
		tracker: tracker,
		manager: manager,
		logger:  logger,
	}
}

// BasePoll performs one GET {base} tick: identify, process a deployment
// offer, or acknowledge a cancellation, as advertised by the response's
// `_links`. It returns the server-advertised polling interval in seconds.
// The tick fails if the base GET fails or if its body or polling interval
// cannot be parsed; sub-errors (identify failures, deployment parse errors)
// are logged and do not fail the tick, per the protocol's error-propagation
// policy.
func (in *Intake) BasePoll(ctx context.Context) (int, error) {
	raw, err := in.client.REST(ctx, http.MethodGet, in.baseURL, nil)
	if err != nil {
		if httpErr, ok := err.(*ddiclient.HTTPError); ok && httpErr.Is401() {
			in.logger.Warn("base poll rejected: check token configuration", "error", err)
		} else {
			in.logger.Warn("base poll failed", "error", err)
		}
		return 0, err
	}

	var resp basePollResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		in.logger.Warn("base poll response parse failed", "error", err)
		return 0, fmt.Errorf("intake: parse base poll response: %w", err)
	}

	intervalSeconds, err := parseSleep(resp.Config.Polling.Sleep)
	if err != nil {
		in.logger.Warn("base poll sleep interval parse failed", "sleep", resp.Config.Polling.Sleep, "error", err)
		return 0, err
	}

	handled := false

	if resp.Links.ConfigData != nil {
		in.identify(ctx)
		handled = true
	}
	if resp.Links.DeploymentBase != nil {
		in.processDeployment(ctx, resp.Links.DeploymentBase.Href)
		handled = true
	}
	if resp.Links.CancelAction != nil {
		in.acknowledgeCancel(ctx, resp.Links.CancelAction.Href)
		handled = true
	}
	if !handled {
		in.logger.Info("no new software")
	}

	return intervalSeconds, nil
}

// identify PUTs device-identity attributes to the configData endpoint.
func (in *Intake) identify(ctx context.Context) {
	env := feedback.Build(time.Now(), "", "", feedback.FinishedSuccess, feedback.ExecutionClosed, in.cfg.DeviceAttributes)
	url := ddiurl.ConfigData(in.baseURL)
	if _, err := in.client.REST(ctx, http.MethodPut, url, env); err != nil {
		in.logger.Warn("identify failed", "error", err)
	}
}

// processDeployment fetches the advertised deployment resource and, if
// valid and space permits, commits a new session and spawns the download
// worker.
func (in *Intake) processDeployment(ctx context.Context, href string) {
	if _, active := in.tracker.Current(); active {
		in.logger.Debug("deployment already in progress, ignoring offer")
		return
	}

	raw, err := in.client.REST(ctx, http.MethodGet, href, nil)
	if err != nil {
		in.logger.Warn("deployment resource fetch failed", "error", err)
		return
	}

	var resp deploymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		in.logger.Warn("deployment resource parse failed", "error", err)
		return
	}
	if resp.ID == "" {
		// id itself failed to parse: no feedback is sent, since there is no
		// action id to attach it to.
		in.logger.Warn("deployment resource missing id")
		return
	}

	artifact, parseErr := extractArtifact(resp)
	if parseErr != nil {
		// id parsed successfully before this failure, so it is committed to
		// the failure feedback despite no session ever opening.
		in.sendFeedback(ctx, resp.ID, "Failed to parse deployment resource.", feedback.FinishedFailure, feedback.ExecutionClosed)
		in.logger.Warn("deployment resource missing required field", "id", resp.ID, "error", parseErr)
		return
	}

	dir := path.Dir(in.cfg.BundleDownloadPath)
	free, err := diskspace.Free(dir)
	if err != nil {
		in.logger.Warn("free space check failed", "dir", dir, "error", err)
		in.sendFeedback(ctx, resp.ID, "Failed to check free space.", feedback.FinishedFailure, feedback.ExecutionClosed)
		return
	}
	if free < uint64(artifact.Size) {
		in.sendFeedback(ctx, resp.ID,
			fmt.Sprintf("Not enough free space. Required: %d, available: %d.", artifact.Size, free),
			feedback.FinishedFailure, feedback.ExecutionClosed)
		return
	}

	if !in.tracker.Acquire(resp.ID) {
		in.logger.Debug("deployment already in progress, ignoring offer")
		return
	}

	in.manager.Spawn(ctx, resp.ID, artifact)
}

// acknowledgeCancel POSTs a feedback envelope acknowledging a cancellation
// request without performing one, since cancellation mid-session is
// unsupported.
func (in *Intake) acknowledgeCancel(ctx context.Context, href string) {
	actionID := path.Base(href)
	in.logger.Warn("cancellation requested but not supported", "actionId", actionID)
	in.sendFeedback(ctx, actionID, "Cancellation not supported.", feedback.FinishedSuccess, feedback.ExecutionClosed)
}

func (in *Intake) sendFeedback(ctx context.Context, actionID, detail string, finished feedback.Finished, execution feedback.Execution) {
	env := feedback.Build(time.Now(), actionID, detail, finished, execution, nil)
	url := ddiurl.Feedback(in.baseURL, actionID)
	if _, err := in.client.REST(ctx, http.MethodPost, url, env); err != nil {
		in.logger.Warn("feedback POST failed", "actionId", actionID, "error", err)
	}
}

// extractArtifact pulls the first chunk's first artifact's fields,
// preferring the HTTPS download link over the plaintext one.
func extractArtifact(resp deploymentResponse) (downloader.Artifact, error) {
	if len(resp.Deployment.Chunks) == 0 {
		return downloader.Artifact{}, fmt.Errorf("no chunks")
	}
	chunk := resp.Deployment.Chunks[0]
	if len(chunk.Artifacts) == 0 {
		return downloader.Artifact{}, fmt.Errorf("no artifacts")
	}
	art := chunk.Artifacts[0]
	if art.Hashes.SHA1 == "" {
		return downloader.Artifact{}, fmt.Errorf("missing sha1")
	}

	url := ""
	switch {
	case art.Links.Download != nil:
		url = art.Links.Download.Href
	case art.Links.DownloadHTTP != nil:
		url = art.Links.DownloadHTTP.Href
	default:
		return downloader.Artifact{}, fmt.Errorf("missing download link")
	}

	return downloader.Artifact{
		Name:    chunk.Name,
		Version: chunk.Version,
		Size:    art.Size,
		SHA1:    strings.ToLower(art.Hashes.SHA1),
		URL:     url,
	}, nil
}

// parseSleep converts an "HH:MM:SS" interval to seconds.
func parseSleep(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("intake: malformed polling interval %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("intake: malformed polling interval %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("intake: malformed polling interval %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("intake: malformed polling interval %q: %w", s, err)
	}
	return h*3600 + m*60 + sec, nil
}
