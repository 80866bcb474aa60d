package ledger

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/logger"
	"github.com/flarebyte/nbrun/internal/paramfile"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/pipeline"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// RunMeta is context recorded next to a run.
type RunMeta struct {
	Root   string
	Commit string
	Branch string
	Dirty  bool
	Params params.Set
}

// RunEntry is one row of the runs table.
type RunEntry struct {
	ID         string
	State      pipeline.State
	StartedAt  time.Time
	FinishedAt time.Time
	Root       string
	Commit     string
	Branch     string
	Dirty      bool
	ParamsYAML string
	Error      string
}

// StageEntry is one stage record of a run.
type StageEntry struct {
	Position   int
	Stage      string
	InputPath  string
	OutputPath string
	Outcome    pipeline.Outcome
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// Store reads and writes run history.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: logger.Component(log, "ledger")}
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores run and its records in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *pipeline.Run, meta RunMeta) error {
	if run == nil {
		return errors.New("nil run")
	}
	paramsYAML, err := paramfile.Marshal(meta.Params)
	if err != nil {
		return err
	}
	runErr := ""
	if failed, ok := run.Failed(); ok && failed.Err != nil {
		runErr = failed.Err.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if _, err := tx.ExecContext(ctx, insertRunSQL,
		run.ID, string(run.State),
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		meta.Root, meta.Commit, meta.Branch, meta.Dirty, string(paramsYAML), runErr,
	); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "insert run %s", run.ID)
	}
	for i, rec := range run.Records {
		msg := ""
		if rec.Err != nil {
			msg = rec.Err.Error()
		}
		if _, err := tx.ExecContext(ctx, insertStageSQL,
			run.ID, i, rec.Stage.Name, rec.InputPath, rec.OutputPath, string(rec.Outcome),
			formatTime(rec.StartedAt), formatTime(rec.FinishedAt), msg,
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "insert stage %s", rec.Stage.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit run")
	}
	s.log.Debugw("Run recorded",
		logger.FieldRunID, run.ID,
		logger.FieldState, run.State,
		logger.FieldCount, len(run.Records),
	)
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	q := selectRunsSQL + " ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	out := []RunEntry{}
	for rows.Next() {
		e, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "iterate runs")
}

// GetRun returns one run and its stages in execution order.
func (s *Store) GetRun(ctx context.Context, id string) (RunEntry, []StageEntry, error) {
	e, err := scanRun(s.db.QueryRowContext(ctx, selectRunsSQL+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return RunEntry{}, nil, errors.Wrapf(ErrRunNotFound, "%s", id)
	}
	if err != nil {
		return RunEntry{}, nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectStagesSQL, id)
	if err != nil {
		return RunEntry{}, nil, errors.Wrap(err, "query stages")
	}
	defer rows.Close()

	stages := []StageEntry{}
	for rows.Next() {
		var st StageEntry
		var outcome, started, finished string
		if err := rows.Scan(&st.Position, &st.Stage, &st.InputPath, &st.OutputPath, &outcome, &started, &finished, &st.Error); err != nil {
			return RunEntry{}, nil, errors.Wrap(err, "scan stage")
		}
		st.Outcome = pipeline.Outcome(outcome)
		st.StartedAt, _ = time.Parse(timeLayout, started)
		st.FinishedAt, _ = time.Parse(timeLayout, finished)
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return RunEntry{}, nil, errors.Wrap(err, "iterate stages")
	}
	return e, stages, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunEntry, error) {
	var e RunEntry
	var state, started, finished string
	if err := row.Scan(&e.ID, &state, &started, &finished, &e.Root, &e.Commit, &e.Branch, &e.Dirty, &e.ParamsYAML, &e.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunEntry{}, err
		}
		return RunEntry{}, errors.Wrap(err, "scan run")
	}
	e.State = pipeline.State(state)
	e.StartedAt, _ = time.Parse(timeLayout, started)
	e.FinishedAt, _ = time.Parse(timeLayout, finished)
	return e, nil
}

const (
	insertRunSQL = `INSERT INTO runs
		(id, state, started_at, finished_at, project_root, git_commit, git_branch, git_dirty, params_yaml, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertStageSQL = `INSERT INTO run_stages
		(run_id, position, stage, input_path, output_path, outcome, started_at, finished_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	selectRunsSQL = `SELECT id, state, started_at, finished_at, project_root, git_commit, git_branch, git_dirty,
		params_yaml, error_message FROM runs`
	selectStagesSQL = `SELECT position, stage, input_path, output_path, outcome, started_at, finished_at, error_message
		FROM run_stages WHERE run_id = ? ORDER BY position`
)
