package run

import (
	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/pipeline"
)

const (
	exitCodeSuccess     = 0
	exitCodeStageFailed = 1
	exitCodeConfig      = 2
)

type runExitError struct {
	code  int
	msg   string
	cause error
}

func (e runExitError) Error() string { return e.msg }
func (e runExitError) ExitCode() int { return e.code }
func (e runExitError) Unwrap() error { return e.cause }

// evaluateRunExit maps the outcome of `nbrun run` to the process status:
// a failed stage exits 1 and an unusable configuration exits 2.
func evaluateRunExit(err error) error {
	if err == nil {
		return nil
	}
	var cpe *params.ConfigParseError
	if errors.As(err, &cpe) {
		return runExitError{code: exitCodeConfig, msg: cpe.Error(), cause: err}
	}
	var se *pipeline.StageExecutionError
	if errors.As(err, &se) {
		return runExitError{code: exitCodeStageFailed, msg: "FAILED at " + se.Stage + ": " + se.Cause.Error(), cause: err}
	}
	return err
}
