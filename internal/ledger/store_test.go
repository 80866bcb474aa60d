package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/pipeline"
	"github.com/flarebyte/nbrun/internal/stage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "ledger", "nbrun.db"), nil)
	require.NoError(t, err)
	s := NewStore(db, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func failedRun(id string, start time.Time) *pipeline.Run {
	stageErr := &pipeline.StageExecutionError{Stage: "B.ipynb", Index: 1, Cause: errors.New("boom")}
	return &pipeline.Run{
		ID:         id,
		State:      pipeline.StateFailed,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Records: []pipeline.Record{
			{
				Stage: stage.Descriptor{Name: "A.ipynb", Index: 0}, InputPath: "nb/A.ipynb", OutputPath: "out/A_1.ipynb",
				StartedAt: start, FinishedAt: start.Add(time.Second), Outcome: pipeline.OutcomeSuccess,
			},
			{
				Stage: stage.Descriptor{Name: "B.ipynb", Index: 1}, InputPath: "nb/B.ipynb", OutputPath: "out/B_1.ipynb",
				StartedAt: start.Add(time.Second), FinishedAt: start.Add(3 * time.Second), Outcome: pipeline.OutcomeFailure,
				Err: stageErr,
			},
		},
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbrun.db")
	db, err := OpenWithMigrations(path, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, nil))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 3, n)
	require.NoError(t, db.Close())

	db, err = OpenWithMigrations(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestStore_SaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	ps := params.FromMap(map[string]any{"seed": 42})

	require.NoError(t, s.SaveRun(ctx, failedRun("run-a", start), RunMeta{Root: "/proj", Commit: "abc123", Branch: "main", Dirty: true, Params: ps}))

	e, stages, err := s.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateFailed, e.State)
	assert.Equal(t, "abc123", e.Commit)
	assert.Equal(t, "main", e.Branch)
	assert.True(t, e.Dirty)
	assert.Equal(t, "seed: 42\n", e.ParamsYAML)
	assert.Equal(t, "stage B.ipynb failed: boom", e.Error)
	assert.True(t, e.StartedAt.Equal(start))

	require.Len(t, stages, 2)
	assert.Equal(t, "A.ipynb", stages[0].Stage)
	assert.Equal(t, pipeline.OutcomeSuccess, stages[0].Outcome)
	assert.Empty(t, stages[0].Error)
	assert.Equal(t, pipeline.OutcomeFailure, stages[1].Outcome)
	assert.Equal(t, "out/B_1.ipynb", stages[1].OutputPath)
	assert.Equal(t, 2*time.Second, stages[1].FinishedAt.Sub(stages[1].StartedAt))
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		run := &pipeline.Run{ID: id, State: pipeline.StateCompleted, StartedAt: base.Add(time.Duration(i) * time.Hour), FinishedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.SaveRun(ctx, run, RunMeta{}))
	}

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Empty(t, all[0].Branch)
	assert.False(t, all[0].Dirty)

	two, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestStore_GetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestStore_DuplicateRunIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := failedRun("dup", time.Now())
	require.NoError(t, s.SaveRun(ctx, run, RunMeta{}))
	require.Error(t, s.SaveRun(ctx, run, RunMeta{}))
}

func TestStore_SaveRunRollsBackOnStageInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs("run-x", "failed", sqlmock.AnyArg(), sqlmock.AnyArg(), "", "", "", false, "{}\n", "stage B.ipynb failed: boom").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO run_stages`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err = NewStore(db, nil).SaveRun(context.Background(), failedRun("run-x", time.Now()), RunMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "insert stage A.ipynb")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListRunsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, state`).WithArgs(5).WillReturnError(sql.ErrConnDone)
	_, err = NewStore(db, nil).ListRuns(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query runs")
	require.NoError(t, mock.ExpectationsWereMet())
}
