package teardown

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gurre/hawkbit-agent-go/logic/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunReleasesTrackerAndRemovesBundle(t *testing.T) {
	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "bundle.raucb")
	if err := os.WriteFile(bundlePath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	tracker := &session.Tracker{}
	tracker.Acquire("action-1")

	td := New(tracker, bundlePath, testLogger())
	td.Run("action-1")

	if _, active := tracker.Current(); active {
		t.Fatal("tracker still active after teardown")
	}
	if _, err := os.Stat(bundlePath); !os.IsNotExist(err) {
		t.Fatalf("bundle file still present, stat err = %v", err)
	}
}

func TestRunToleratesMissingBundleFile(t *testing.T) {
	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "missing.raucb")

	tracker := &session.Tracker{}
	tracker.Acquire("action-1")

	td := New(tracker, bundlePath, testLogger())
	td.Run("action-1")

	if _, active := tracker.Current(); active {
		t.Fatal("tracker still active after teardown")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "bundle.raucb")
	if err := os.WriteFile(bundlePath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	tracker := &session.Tracker{}
	tracker.Acquire("action-1")

	td := New(tracker, bundlePath, testLogger())
	td.Run("action-1")
	td.Run("action-1")
}
