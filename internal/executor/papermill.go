package executor

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/logger"
	"github.com/flarebyte/nbrun/internal/paramfile"
)

// Papermill runs notebooks with the papermill command line.
type Papermill struct {
	opts execOptions
	log  *zap.SugaredLogger
}

// NewPapermill validates o and returns an executor.
func NewPapermill(o Options, log *zap.SugaredLogger) (*Papermill, error) {
	opts, err := buildExecOptions(o)
	if err != nil {
		return nil, err
	}
	return &Papermill{opts: opts, log: logger.Component(log, "executor")}, nil
}

// Execute runs the notebook and blocks until the process exits. There is no
// timeout and ctx does not interrupt a started process.
func (p *Papermill) Execute(_ context.Context, req Request) (Result, error) {
	paramsFile := ""
	if req.Params.Len() > 0 {
		f, err := paramfile.WriteTemp(p.opts.paramsDir, req.Params)
		if err != nil {
			return Result{}, err
		}
		defer os.Remove(f)
		paramsFile = f
	}
	args := buildArgs(p.opts, req, paramsFile)
	p.log.Debugw("Starting executor",
		logger.FieldStage, req.Stage,
		"program", p.opts.program,
		"args", args,
	)

	res, err := runProcess(p.opts, args)
	res.Args = args
	p.log.Debugw("Executor exited",
		logger.FieldStage, req.Stage,
		"exit_code", res.ExitCode,
		logger.FieldDurationMS, res.Duration.Milliseconds(),
		"stdout_bytes", len(res.Stdout),
		"stderr_bytes", len(res.Stderr),
	)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		exitErr := errors.WithStack(&ExitError{Program: p.opts.program, ExitCode: res.ExitCode})
		if tail := lastLines(res.Stderr, 20); tail != "" {
			exitErr = errors.WithDetail(exitErr, tail)
		}
		return res, exitErr
	}
	return res, nil
}

func runProcess(opts execOptions, args []string) (Result, error) {
	cmd := exec.Command(opts.program, args...)
	cmd.Dir = opts.workingDir
	cmd.Env = applyEnvOverlay(os.Environ(), opts.env)
	outBuf := &tailBuffer{max: opts.captureMaxBytes}
	errBuf := &tailBuffer{max: opts.captureMaxBytes}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	start := time.Now()
	if err := cmd.Start(); err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return Result{ExitCode: -1}, errors.WithHint(
				errors.Wrapf(ErrExecutorNotFound, "program %s", opts.program),
				"install papermill or set executor.command")
		}
		return Result{ExitCode: -1}, errors.Wrapf(err, "program %s start failed", opts.program)
	}
	runErr := cmd.Wait()
	res := Result{
		Stdout:          outBuf.String(),
		Stderr:          errBuf.String(),
		StdoutTruncated: outBuf.truncated,
		StderrTruncated: errBuf.truncated,
		Duration:        time.Since(start),
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, errors.Wrapf(runErr, "program %s execution failed", opts.program)
	}
	return res, nil
}

func lastLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
