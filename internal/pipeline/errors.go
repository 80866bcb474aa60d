package pipeline

import (
	"fmt"

	"github.com/flarebyte/nbrun/internal/errors"
)

// ErrInputNotFound is the cause recorded when a stage notebook is missing.
var ErrInputNotFound = errors.New("input notebook not found")

// StageExecutionError reports the stage that stopped the pipeline.
type StageExecutionError struct {
	Stage string
	Index int
	Cause error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageExecutionError) Unwrap() error { return e.Cause }

// ExitCode lets the CLI map a stage failure to the process exit status.
func (e *StageExecutionError) ExitCode() int { return 1 }
