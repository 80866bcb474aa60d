// Package pipeline runs the registered stages one after another and stops at
// the first failure.
package pipeline

import (
	"time"

	"github.com/flarebyte/nbrun/internal/stage"
)

// Outcome is the result of one stage invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Record describes one stage invocation. It is finalized before the next
// stage starts and not modified afterwards.
type Record struct {
	Stage      stage.Descriptor
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	// Err is the *StageExecutionError when Outcome is OutcomeFailure.
	Err error
}

// Succeeded reports whether the stage finished without error.
func (r Record) Succeeded() bool { return r.Outcome == OutcomeSuccess }

// Duration is the wall time spent in the stage.
func (r Record) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// State is the lifecycle position of a Run.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateFailed     State = "failed"
	StateCompleted  State = "completed"
)

// Terminal reports whether no further stage will run.
func (s State) Terminal() bool { return s == StateFailed || s == StateCompleted }

// Run is one execution of the whole registry. Records is always a prefix of
// the registry order.
type Run struct {
	ID         string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
	Records    []Record
}

// Failed returns the failing record, if any.
func (r *Run) Failed() (Record, bool) {
	if r == nil || r.State != StateFailed || len(r.Records) == 0 {
		return Record{}, false
	}
	return r.Records[len(r.Records)-1], true
}

// Outputs lists the output paths of successful stages in order.
func (r *Run) Outputs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.Succeeded() {
			out = append(out, rec.OutputPath)
		}
	}
	return out
}
