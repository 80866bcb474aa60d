package executor

import (
	"fmt"

	"github.com/flarebyte/nbrun/internal/errors"
)

// ErrExecutorNotFound is returned when the executor program cannot be started.
var ErrExecutorNotFound = errors.New("executor not found")

// ExitError reports an executor process that exited with a non-zero status.
type ExitError struct {
	Program  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Program, e.ExitCode)
}
