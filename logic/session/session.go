// Package session tracks the single in-flight update session's action ID.
//
// Design constraints:
//   - The action ID is the only state shared between the poll goroutine and
//     the download/install goroutines. This package publishes it with
//     release/acquire semantics via atomic.Pointer so readers always observe
//     either the previous session or the new one, never a partial write.
//   - At most one session may be open at a time; Acquire enforces this and
//     reports "already in progress" rather than silently overwriting.
package session

import "sync/atomic"

// Tracker holds the current action ID, or nil when no session is open.
type Tracker struct {
	actionID atomic.Pointer[string]
}

// Current returns the active action ID, or ("", false) if no session is open.
//
//	if id, ok := tracker.Current(); ok {
//	    // session id is active
//	}
func (t *Tracker) Current() (string, bool) {
	p := t.actionID.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// Acquire opens a session for actionID. It reports false if a session is
// already open (the caller should treat this as "already in progress" and
// not spawn a worker).
//
//	if !tracker.Acquire("42") {
//	    log.Debug("deployment already in progress")
//	    return
//	}
func (t *Tracker) Acquire(actionID string) bool {
	id := actionID
	return t.actionID.CompareAndSwap(nil, &id)
}

// Release clears the current session unconditionally. Session teardown calls
// it after terminal feedback has been sent, immediately before removing the
// downloaded file.
func (t *Tracker) Release() {
	t.actionID.Store(nil)
}
