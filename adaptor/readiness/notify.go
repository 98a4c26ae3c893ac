// Package readiness notifies a process supervisor (systemd) of startup
// readiness and liveness, using the sd_notify wire protocol directly: a
// single datagram write to the Unix socket named by NOTIFY_SOCKET. This
// mirrors rauc-hawkbit-updater's optional WITH_SYSTEMD integration, but as
// a runtime no-op rather than a build-time one: when NOTIFY_SOCKET is
// unset, every call here is a no-op.
package readiness

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// Notifier sends sd_notify-style datagrams to the supervisor's notify
// socket. The zero value is a valid no-op Notifier.
type Notifier struct {
	addr   *net.UnixAddr
	logger *slog.Logger
}

// New resolves NOTIFY_SOCKET from the environment. If unset, the returned
// Notifier's methods are all no-ops.
func New(logger *slog.Logger) *Notifier {
	n := &Notifier{logger: logger}
	socket := os.Getenv("NOTIFY_SOCKET")
	if socket == "" {
		return n
	}
	addr, err := net.ResolveUnixAddr("unixgram", socket)
	if err != nil {
		logger.Warn("readiness: invalid NOTIFY_SOCKET, disabling notifications", "socket", socket, "error", err)
		return n
	}
	n.addr = addr
	return n
}

// Ready signals READY=1: the agent has finished startup and is polling.
func (n *Notifier) Ready() {
	n.send("READY=1")
}

// Watchdog signals WATCHDOG=1, telling the supervisor the agent is still
// alive. Callers send this once per WatchdogInterval.
func (n *Notifier) Watchdog() {
	n.send("WATCHDOG=1")
}

// Stopping signals STOPPING=1 ahead of a graceful shutdown.
func (n *Notifier) Stopping() {
	n.send("STOPPING=1")
}

func (n *Notifier) send(state string) {
	if n.addr == nil {
		return
	}
	conn, err := net.DialUnix("unixgram", nil, n.addr)
	if err != nil {
		n.logger.Debug("readiness: dial notify socket failed", "error", err)
		return
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(state)); err != nil {
		n.logger.Debug("readiness: notify write failed", "state", state, "error", err)
	}
}

// WatchdogInterval parses WATCHDOG_USEC and returns the interval at which
// Watchdog should be called: half the supervisor's configured timeout, the
// same safety margin sd_event_set_watchdog applies. Returns false if
// WATCHDOG_USEC is unset or invalid, or if there's no notify socket to
// report to.
func (n *Notifier) WatchdogInterval() (time.Duration, bool) {
	if n.addr == nil {
		return 0, false
	}
	raw := os.Getenv("WATCHDOG_USEC")
	if raw == "" {
		return 0, false
	}
	usec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || usec <= 0 {
		return 0, false
	}
	return time.Duration(usec) * time.Microsecond / 2, true
}
