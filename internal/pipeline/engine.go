package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/executor"
	"github.com/flarebyte/nbrun/internal/logger"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/stage"
)

// EngineConfig holds what the engine needs to run one stage.
type EngineConfig struct {
	NotebooksDir string
	OutputDir    string
	Executor     executor.Executor
	Logger       *zap.SugaredLogger
	// Now defaults to time.Now.
	Now func() time.Time
	// Heartbeat is the interval of "still running" logs; zero disables them.
	Heartbeat time.Duration
}

// Engine executes single stages.
type Engine struct {
	notebooksDir string
	outputDir    string
	exec         executor.Executor
	log          *zap.SugaredLogger
	now          func() time.Time
	beat         heartbeat
}

// NewEngine validates cfg.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Executor == nil {
		return nil, errors.New("engine: executor is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("engine: output dir is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := logger.Component(cfg.Logger, "engine")
	return &Engine{
		notebooksDir: cfg.NotebooksDir,
		outputDir:    cfg.OutputDir,
		exec:         cfg.Executor,
		log:          log,
		now:          now,
		beat:         heartbeat{interval: cfg.Heartbeat, log: log, now: now},
	}, nil
}

// InputPath is where the notebook for name is read from.
func (e *Engine) InputPath(name string) string {
	return filepath.Join(e.notebooksDir, name)
}

// RunStage executes d with ps and returns its finalized record. A failure
// is reported through Record.Err, never swallowed.
func (e *Engine) RunStage(ctx context.Context, d stage.Descriptor, ps params.Set) Record {
	started := e.now()
	rec := Record{
		Stage:      d,
		InputPath:  e.InputPath(d.Name),
		OutputPath: uniqueOutputPath(e.outputDir, d.Name, started),
		StartedAt:  started,
	}
	e.log.Infow("Running "+d.Name,
		logger.FieldStage, d.Name,
		logger.FieldIndex, d.Index,
		logger.FieldInput, rec.InputPath,
		logger.FieldOutput, rec.OutputPath,
	)

	err := e.invoke(ctx, d, rec, ps)
	rec.FinishedAt = e.now()
	if err != nil {
		rec.Outcome = OutcomeFailure
		rec.Err = &StageExecutionError{Stage: d.Name, Index: d.Index, Cause: err}
		e.log.Errorw("Stage failed",
			logger.FieldStage, d.Name,
			logger.FieldIndex, d.Index,
			logger.FieldError, err.Error(),
		)
		return rec
	}
	rec.Outcome = OutcomeSuccess
	e.log.Infow("Finished "+d.Name,
		logger.FieldStage, d.Name,
		logger.FieldOutput, rec.OutputPath,
		logger.FieldDurationMS, rec.Duration().Milliseconds(),
	)
	return rec
}

func (e *Engine) invoke(ctx context.Context, d stage.Descriptor, rec Record, ps params.Set) error {
	info, err := os.Stat(rec.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrInputNotFound, "%s", rec.InputPath)
		}
		return errors.Wrapf(err, "stat %s", rec.InputPath)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrInputNotFound, "%s is a directory", rec.InputPath)
	}
	if err := os.MkdirAll(filepath.Dir(rec.OutputPath), 0o755); err != nil {
		return errors.Wrapf(err, "create output dir")
	}

	stop := e.beat.start(d.Name)
	defer stop()
	_, err = e.exec.Execute(ctx, executor.Request{
		Stage:      d.Name,
		InputPath:  rec.InputPath,
		OutputPath: rec.OutputPath,
		Params:     ps,
	})
	return err
}
