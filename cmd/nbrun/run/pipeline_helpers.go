package run

import (
	"context"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/ledger"
	"github.com/flarebyte/nbrun/internal/logger"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/pipeline"
	"github.com/flarebyte/nbrun/internal/provenance"
)

// recordRun stores run in the history database. Failures are logged as
// warnings and never change the run outcome.
func recordRun(ctx context.Context, s config.Settings, run *pipeline.Run, ps params.Set, log *zap.SugaredLogger) {
	if run == nil {
		return
	}
	info, err := provenance.Detect(s.Root)
	if err != nil {
		log.Warnw("Could not read git revision", logger.FieldError, err.Error())
	}
	db, err := ledger.OpenWithMigrations(s.Ledger.Path, log)
	if err != nil {
		log.Warnw("Run history unavailable", logger.FieldPath, s.Ledger.Path, logger.FieldError, err.Error())
		return
	}
	store := ledger.NewStore(db, log)
	defer store.Close()

	meta := ledger.RunMeta{Root: s.Root, Commit: info.Commit, Branch: info.Branch, Dirty: info.Dirty, Params: ps}
	if err := store.SaveRun(ctx, run, meta); err != nil {
		log.Warnw("Could not record run", logger.FieldRunID, run.ID, logger.FieldError, err.Error())
		return
	}
	log.Debugw("Run recorded",
		logger.FieldRunID, run.ID,
		logger.FieldCommit, info.Short(),
		logger.FieldPath, s.Ledger.Path,
	)
}
