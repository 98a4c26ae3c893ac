// Package feedback builds hawkBit deployment-feedback JSON envelopes.
//
// Design constraints:
//   - Pure computation, no IO (logic layer): callers supply the current
//     instant rather than this package calling time.Now(), matching
//     logic/backoff's no-side-effects discipline.
//   - Zero-value-friendly: optional fields are omitted from the wire form
//     via omitempty rather than emitted as null/empty.
package feedback

import "time"

// Execution is the status.execution enum value of a feedback envelope.
type Execution string

const (
	ExecutionProceeding Execution = "proceeding"
	ExecutionClosed     Execution = "closed"
)

// Finished is the status.result.finished enum value of a feedback envelope.
type Finished string

const (
	FinishedNone    Finished = "none"
	FinishedSuccess Finished = "success"
	FinishedFailure Finished = "failure"
)

// timeLayout is the wire format for the envelope's time field: YYYYMMDDThhmmss UTC.
const timeLayout = "20060102T150405"

// Result is the status.result object.
type Result struct {
	Finished Finished `json:"finished"`
}

// Status is the envelope's status object.
type Status struct {
	Execution Execution `json:"execution"`
	Result    Result    `json:"result"`
	Details   []string  `json:"details,omitempty"`
}

// Envelope is the exact wire shape of a hawkBit feedback payload, for both
// identify (id omitted) and deployment feedback (id present).
type Envelope struct {
	ID     string            `json:"id,omitempty"`
	Time   string            `json:"time"`
	Status Status            `json:"status"`
	Data   map[string]string `json:"data,omitempty"`
}

// Build constructs a feedback envelope. id is omitted from the wire form
// when empty (identify has no action id). detail is omitted when empty.
// data is omitted unless non-empty. now is the instant to stamp, in any
// location; it is converted to UTC before formatting.
//
//	feedback.Build(now, "42", "File checksum OK.", feedback.FinishedNone, feedback.ExecutionProceeding, nil)
func Build(now time.Time, id, detail string, finished Finished, execution Execution, data map[string]string) Envelope {
	env := Envelope{
		ID:   id,
		Time: now.UTC().Format(timeLayout),
		Status: Status{
			Execution: execution,
			Result:    Result{Finished: finished},
		},
	}
	if detail != "" {
		env.Status.Details = []string{detail}
	}
	if len(data) > 0 {
		env.Data = data
	}
	return env
}
