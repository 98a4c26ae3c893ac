package bridge

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gurre/hawkbit-agent-go/adaptor/ddiclient"
	"github.com/gurre/hawkbit-agent-go/logic/session"
	"github.com/gurre/hawkbit-agent-go/orchestration/teardown"
	"github.com/gurre/hawkbit-agent-go/state/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRebooter struct {
	synced   atomic.Bool
	rebooted atomic.Bool
}

func (f *fakeRebooter) Sync()          { f.synced.Store(true) }
func (f *fakeRebooter) Reboot() error  { f.rebooted.Store(true); return nil }

func testClient(t *testing.T) *ddiclient.Client {
	t.Helper()
	cfg := config.Default()
	cfg.ConnectTimeout = time.Second
	cfg.RequestTimeout = time.Second
	cfg.TLSVerify = false
	return ddiclient.New(cfg)
}

func drain(ctx context.Context, jobs <-chan func(context.Context), timeout time.Duration) bool {
	select {
	case job := <-jobs:
		job(ctx)
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestProgressPostsFeedbackWhenSessionActive(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t)
	tracker := &session.Tracker{}
	tracker.Acquire("action-1")
	td := teardown.New(tracker, filepath.Join(t.TempDir(), "bundle.raucb"), testLogger())
	br := New(client, server.URL, tracker, td, false, &fakeRebooter{}, testLogger())

	br.Progress("action-1", "halfway there")

	if !drain(context.Background(), br.Jobs(), 2*time.Second) {
		t.Fatal("progress job never arrived on the queue")
	}
	if gotPath == "" {
		t.Fatal("no feedback request observed")
	}
}

func TestProgressNoOpWhenSessionNoLongerActive(t *testing.T) {
	called := atomic.Bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t)
	tracker := &session.Tracker{}
	td := teardown.New(tracker, filepath.Join(t.TempDir(), "bundle.raucb"), testLogger())
	br := New(client, server.URL, tracker, td, false, &fakeRebooter{}, testLogger())

	br.Progress("stale-action", "late update")
	drain(context.Background(), br.Jobs(), 500*time.Millisecond)

	if called.Load() {
		t.Fatal("feedback was posted for an inactive session")
	}
}

func TestCompleteSuccessTearsDownAndReboots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t)
	bundlePath := filepath.Join(t.TempDir(), "bundle.raucb")
	if err := os.WriteFile(bundlePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	tracker := &session.Tracker{}
	tracker.Acquire("action-1")
	td := teardown.New(tracker, bundlePath, testLogger())
	rebooter := &fakeRebooter{}
	br := New(client, server.URL, tracker, td, true, rebooter, testLogger())

	br.Complete("action-1", true)
	if !drain(context.Background(), br.Jobs(), 2*time.Second) {
		t.Fatal("complete job never arrived on the queue")
	}

	if _, active := tracker.Current(); active {
		t.Fatal("session still active after successful completion")
	}
	if !rebooter.rebooted.Load() {
		t.Fatal("reboot was not triggered on successful completion")
	}
}

func TestCompleteFailureTearsDownWithoutReboot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t)
	tracker := &session.Tracker{}
	tracker.Acquire("action-1")
	td := teardown.New(tracker, filepath.Join(t.TempDir(), "bundle.raucb"), testLogger())
	rebooter := &fakeRebooter{}
	br := New(client, server.URL, tracker, td, true, rebooter, testLogger())

	br.Complete("action-1", false)
	drain(context.Background(), br.Jobs(), 2*time.Second)

	if _, active := tracker.Current(); active {
		t.Fatal("session still active after failed completion")
	}
	if rebooter.rebooted.Load() {
		t.Fatal("reboot triggered despite failed completion")
	}
}
