// Package executor runs a single notebook through an external executor
// process (papermill by default).
package executor

import (
	"context"
	"time"

	"github.com/flarebyte/nbrun/internal/params"
)

// Request describes one notebook execution.
type Request struct {
	Stage      string
	InputPath  string
	OutputPath string
	Params     params.Set
}

// Result is what the executor process produced.
type Result struct {
	Args            []string
	ExitCode        int
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	Duration        time.Duration
}

// Executor executes a notebook synchronously and writes the executed
// notebook to req.OutputPath. A non-nil error means the stage failed.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, req Request) (Result, error)

func (f Func) Execute(ctx context.Context, req Request) (Result, error) { return f(ctx, req) }
