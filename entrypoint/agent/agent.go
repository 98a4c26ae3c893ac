// Package agent wires configuration, adaptors, and orchestration together
// to run the hawkBit Direct Device Integration agent daemon.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gurre/hawkbit-agent-go/adaptor/configloader"
	"github.com/gurre/hawkbit-agent-go/adaptor/ddiclient"
	"github.com/gurre/hawkbit-agent-go/adaptor/filesystem"
	"github.com/gurre/hawkbit-agent-go/adaptor/logfile"
	"github.com/gurre/hawkbit-agent-go/adaptor/readiness"
	"github.com/gurre/hawkbit-agent-go/adaptor/reboot"
	"github.com/gurre/hawkbit-agent-go/adaptor/shellinstaller"
	"github.com/gurre/hawkbit-agent-go/logic/backoff"
	"github.com/gurre/hawkbit-agent-go/logic/ddiurl"
	"github.com/gurre/hawkbit-agent-go/logic/session"
	"github.com/gurre/hawkbit-agent-go/orchestration/bridge"
	"github.com/gurre/hawkbit-agent-go/orchestration/downloader"
	"github.com/gurre/hawkbit-agent-go/orchestration/intake"
	"github.com/gurre/hawkbit-agent-go/orchestration/poller"
	"github.com/gurre/hawkbit-agent-go/orchestration/teardown"
)

// Run starts the hawkBit agent with the given config file path. It blocks
// until SIGTERM/SIGINT is received, the context is cancelled, or (in
// run-once mode) the first poll attempt completes. runOnce forces one-shot
// mode regardless of the config file's run_once setting. The returned exit
// code is meaningful in run-once mode: 0 on success, 1 on failure.
//
//	os.Exit(agent.Run(context.Background(), "/etc/hawkbit-agent/config.yml", false))
func Run(ctx context.Context, configPath string, runOnce bool) int {
	cfg, err := configloader.LoadAgent(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hawkbit-agent: load config: %s\n", err)
		return 1
	}
	cfg.RunOnce = cfg.RunOnce || runOnce

	logWriter := logfile.NewRotatingWriter(cfg.LogDir, cfg.ProgramName+".log", 64*1024*1024, 8)
	if err := logWriter.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "hawkbit-agent: open log file: %s\n", err)
		return 1
	}
	defer func() { _ = logWriter.Close() }()

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, logWriter), nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	fileOp := filesystem.NewOperator()
	if dir := filepath.Dir(cfg.BundleDownloadPath); dir != "." && dir != "/" {
		if err := fileOp.MkdirAll(dir); err != nil {
			logger.Error("cannot create bundle download directory", "dir", dir, "error", err)
			return 1
		}
	}
	// Startup stale-file sweep: a bundle left over from a process that
	// crashed mid-download or mid-install must not be mistaken for a
	// freshly verified one by the next session.
	if err := fileOp.Remove(cfg.BundleDownloadPath); err != nil {
		logger.Warn("failed to remove stale bundle file at startup", "path", cfg.BundleDownloadPath, "error", err)
	}

	client := ddiclient.New(cfg)
	baseURL := ddiurl.Base(cfg.Server, cfg.TenantID, cfg.ControllerID, cfg.SSL)

	logger.Info("hawkbit-agent starting",
		"server", cfg.Server, "tenant", cfg.TenantID, "controllerId", cfg.ControllerID, "runOnce", cfg.RunOnce)

	waitForConnectivity(ctx, client, baseURL, logger)

	notifier := readiness.New(logger)
	startWatchdogLoop(ctx, notifier, logger)

	tracker := &session.Tracker{}
	td := teardown.New(tracker, cfg.BundleDownloadPath, logger)
	br := bridge.New(client, baseURL, tracker, td, cfg.PostUpdateReboot, reboot.New(), logger)
	installer := shellinstaller.New(cfg.InstallCommand, cfg.InstallTimeout, logger)
	mgr := downloader.New(client, baseURL, cfg.BundleDownloadPath, installer, br, td, logger)
	in := intake.New(client, cfg, baseURL, tracker, mgr, logger)
	p := poller.NewPoller(in, br.Jobs(), cfg.RetryWait, cfg.RunOnce, logger)

	notifier.Ready()
	code := p.Run(ctx)
	notifier.Stopping()
	return code
}

// waitForConnectivity probes the DDI base endpoint before entering the poll
// loop, backing off between attempts. It gives up and returns once ctx is
// cancelled or after connectReadyAttempts tries; the poller's own retry
// loop takes over from there regardless of outcome.
func waitForConnectivity(ctx context.Context, client *ddiclient.Client, baseURL string, logger *slog.Logger) {
	const (
		connectReadyAttempts = 10
		baseDelay            = time.Second
		maxDelay             = 30 * time.Second
	)
	for attempt := 0; attempt < connectReadyAttempts; attempt++ {
		if _, err := client.REST(ctx, http.MethodGet, baseURL, nil); err == nil {
			return
		} else if attempt == 0 {
			logger.Warn("waiting for DDI server connectivity", "server", baseURL, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff.Duration(attempt, baseDelay, maxDelay)):
		}
	}
}

// startWatchdogLoop pings the process supervisor's watchdog once per
// WatchdogInterval until ctx is cancelled. No-op if the supervisor didn't
// request watchdog notifications.
func startWatchdogLoop(ctx context.Context, notifier *readiness.Notifier, logger *slog.Logger) {
	interval, ok := notifier.WatchdogInterval()
	if !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notifier.Watchdog()
			}
		}
	}()
	logger.Debug("watchdog notifications enabled", "interval", interval)
}
