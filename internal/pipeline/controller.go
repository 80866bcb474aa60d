package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/logger"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/stage"
)

// StageRunner runs a single stage. *Engine implements it.
type StageRunner interface {
	RunStage(ctx context.Context, d stage.Descriptor, ps params.Set) Record
}

// Controller drives a StageRunner over a registry.
type Controller struct {
	runner StageRunner
	log    *zap.SugaredLogger
	now    func() time.Time
	newID  func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for run start and finish times.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRunID sets the run identifier generator.
func WithRunID(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// NewController returns a controller using runner.
func NewController(runner StageRunner, log *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		runner: runner,
		log:    logger.Component(log, "pipeline"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if e, ok := runner.(*Engine); ok {
		c.now = e.now
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run executes every stage of reg in order with ps. It stops at the first
// failing stage and returns the run together with its *StageExecutionError.
// Each call produces a fresh Run.
func (c *Controller) Run(ctx context.Context, reg *stage.Registry, ps params.Set) (*Run, error) {
	run := &Run{ID: c.newID(), State: StateNotStarted, Records: []Record{}}
	log := c.log.With(logger.FieldRunID, run.ID)

	log.Infow("START PIPELINE EXECUTION",
		logger.FieldCount, reg.Len(),
		"params", ps.Keys(),
	)
	run.State = StateRunning
	run.StartedAt = c.now()

	for _, d := range reg.Descriptors() {
		rec := c.runner.RunStage(ctx, d, ps)
		if !rec.Succeeded() && rec.Err == nil {
			rec.Err = &StageExecutionError{Stage: d.Name, Index: d.Index, Cause: errors.New("stage reported failure")}
		}
		run.Records = append(run.Records, rec)
		if !rec.Succeeded() {
			run.State = StateFailed
			run.FinishedAt = c.now()
			log.Errorw("FAILED at "+d.Name,
				logger.FieldStage, d.Name,
				logger.FieldIndex, d.Index,
				logger.FieldError, rec.Err.Error(),
			)
			return run, rec.Err
		}
	}

	run.State = StateCompleted
	run.FinishedAt = c.now()
	log.Infow("PIPELINE FINISHED SUCCESSFULLY", logger.FieldCount, len(run.Records))
	return run, nil
}
