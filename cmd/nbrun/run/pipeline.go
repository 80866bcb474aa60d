package run

import (
	"os"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/executor"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/pipeline"
	"github.com/flarebyte/nbrun/internal/stage"
)

type prepared struct {
	params     params.Set
	registry   *stage.Registry
	controller *pipeline.Controller
}

// preparePipeline loads parameters and builds the stage registry, executor,
// engine and controller. Any configuration problem is reported before a
// stage starts.
func preparePipeline(s config.Settings, log *zap.SugaredLogger) (prepared, error) {
	ps, err := s.Parameters()
	if err != nil {
		return prepared{}, err
	}
	reg, err := s.Registry()
	if err != nil {
		return prepared{}, err
	}
	ex, err := executor.NewPapermill(executor.Options{
		Command:         s.Executor.Command,
		Kernel:          s.Executor.Kernel,
		LogOutput:       s.Executor.LogOutput,
		Args:            s.Executor.Args,
		Env:             s.Executor.Env,
		WorkingDir:      s.Executor.WorkingDir,
		CaptureMaxBytes: s.Executor.CaptureMaxBytes,
	}, log)
	if err != nil {
		return prepared{}, params.NewConfigParseError(s.Source(), err)
	}
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return prepared{}, errors.Wrapf(err, "create output dir %s", s.OutputDir)
	}
	engine, err := pipeline.NewEngine(pipeline.EngineConfig{
		NotebooksDir: s.NotebooksDir,
		OutputDir:    s.OutputDir,
		Executor:     ex,
		Logger:       log,
		Heartbeat:    s.Heartbeat,
	})
	if err != nil {
		return prepared{}, err
	}
	return prepared{
		params:     ps,
		registry:   reg,
		controller: pipeline.NewController(engine, log),
	}, nil
}
