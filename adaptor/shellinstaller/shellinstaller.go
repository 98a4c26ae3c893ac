// Package shellinstaller implements install.Installer by invoking an
// external command with the bundle path as its only argument.
package shellinstaller

import (
	"context"
	"log/slog"
	"time"

	"github.com/gurre/hawkbit-agent-go/adaptor/scriptrunner"
	"github.com/gurre/hawkbit-agent-go/install"
)

// Installer runs a configured external command to install a bundle.
type Installer struct {
	command string
	timeout time.Duration
	runner  *scriptrunner.Runner
	logger  *slog.Logger
}

// New creates a shell installer. command is invoked as `command bundlePath`
// and killed if it exceeds timeout.
//
//	inst := shellinstaller.New(cfg.InstallCommand, cfg.InstallTimeout, slog.Default())
func New(command string, timeout time.Duration, logger *slog.Logger) *Installer {
	return &Installer{
		command: command,
		timeout: timeout,
		runner:  scriptrunner.NewRunner(logger),
		logger:  logger,
	}
}

// Install runs the configured command in a new goroutine and reports the
// outcome through handle.Complete, returning to the caller immediately so
// the worker that invoked it can exit without blocking on the install.
func (i *Installer) Install(handle install.Handle) {
	go func() {
		handle.Progress("installing bundle")

		result, err := i.runner.Run(context.Background(), i.command, handle.BundlePath, i.timeout)
		if err != nil {
			i.logger.Error("install command failed to run", "command", i.command, "error", err)
			handle.Complete(false)
			return
		}
		if result.TimedOut {
			i.logger.Error("install command timed out", "command", i.command, "timeout", i.timeout)
			handle.Complete(false)
			return
		}
		if result.ExitCode != 0 {
			i.logger.Error("install command exited non-zero",
				"command", i.command, "exit_code", result.ExitCode,
				"output", scriptrunner.FormatLog(result.Stdout, result.Stderr))
			handle.Complete(false)
			return
		}

		handle.Complete(true)
	}()
}
