package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/logger"
)

// heartbeat logs while a long stage is still running. It never interrupts
// the stage.
type heartbeat struct {
	interval time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

// start begins ticking for stage and returns the function that stops it.
func (h heartbeat) start(stageName string) func() {
	if h.interval <= 0 || h.log == nil {
		return func() {}
	}
	begin := h.now()
	ticker := time.NewTicker(h.interval)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-ticker.C:
				h.log.Infow("Stage still running",
					logger.FieldStage, stageName,
					logger.FieldElapsed, h.now().Sub(begin).Round(time.Second).String(),
				)
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
		<-stopped
	}
}
