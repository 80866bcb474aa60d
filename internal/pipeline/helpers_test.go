package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/executor"
	"github.com/flarebyte/nbrun/internal/params"
)

// fakeExecutor copies the input to the output and fails for stages listed in fail.
type fakeExecutor struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []executor.Request
}

func (f *fakeExecutor) Execute(_ context.Context, req executor.Request) (executor.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if err, ok := f.fail[req.Stage]; ok {
		return executor.Result{ExitCode: 1}, err
	}
	b, err := os.ReadFile(req.InputPath)
	if err != nil {
		return executor.Result{}, err
	}
	return executor.Result{}, os.WriteFile(req.OutputPath, b, 0o644)
}

func (f *fakeExecutor) stages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Stage)
	}
	return out
}

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

type project struct {
	notebooks string
	outputs   string
}

func newProject(t *testing.T, notebooks ...string) project {
	t.Helper()
	root := t.TempDir()
	p := project{
		notebooks: filepath.Join(root, "notebooks"),
		outputs:   filepath.Join(root, "outputs", "notebooks"),
	}
	if err := os.MkdirAll(p.notebooks, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, n := range notebooks {
		if err := os.WriteFile(filepath.Join(p.notebooks, n), []byte(`{"cells":[]}`), 0o644); err != nil {
			t.Fatalf("write notebook: %v", err)
		}
	}
	return p
}

func newTestEngine(t *testing.T, p project, ex executor.Executor, now func() time.Time) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{
		NotebooksDir: p.notebooks,
		OutputDir:    p.outputs,
		Executor:     ex,
		Now:          now,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

var errBoom = errors.New("ZeroDivisionError: division by zero")

var testParams = params.FromMap(map[string]any{"seed": 42, "data": map[string]any{"path": "data/raw.csv"}})
