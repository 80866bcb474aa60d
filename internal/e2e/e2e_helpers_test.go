package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/flarebyte/nbrun/internal/testutil"
)

type runResult struct {
	code   int
	stdout []byte
	stderr []byte
}

var (
	buildOnce sync.Once
	builtBin  string
	buildErr  string
)

func moduleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found")
		}
		dir = parent
	}
}

func buildNbrun(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("e2e tests require POSIX shell")
	}
	root := moduleRoot(t)
	buildOnce.Do(func() {
		binDir, err := os.MkdirTemp("", "nbrun-e2e-bin")
		if err != nil {
			buildErr = err.Error()
			return
		}
		bin := filepath.Join(binDir, "nbrun")
		cmd := exec.Command("go", "build", "-o", bin, "./cmd/nbrun")
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = err.Error() + "\n" + string(out)
			return
		}
		builtBin = bin
	})
	if buildErr != "" {
		t.Fatalf("build failed: %s", buildErr)
	}
	return builtBin
}

func runCmd(t *testing.T, bin string, args ...string) runResult {
	t.Helper()
	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		} else {
			code = -1
		}
	}
	return runResult{code: code, stdout: stdout.Bytes(), stderr: stderr.Bytes()}
}

func (r runResult) lastStderrLine() string {
	lines := strings.Split(strings.TrimRight(string(r.stderr), "\n"), "\n")
	return lines[len(lines)-1]
}

// newProject copies the fixture project to a temp dir and writes an
// nbrun.cue that runs the fake executor over the given stages.
func newProject(t *testing.T, stages ...string) string {
	t.Helper()
	dir := testutil.CopyProject(t, filepath.Join("testdata", "project"))
	script, err := filepath.Abs(filepath.Join("testdata", "bin", "fake-papermill.sh"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	quoted := make([]string, 0, len(stages))
	for _, s := range stages {
		quoted = append(quoted, `"`+s+`"`)
	}
	cfg := "configVersion: \"1\"\n" +
		"stages: [" + strings.Join(quoted, ", ") + "]\n" +
		"heartbeatSeconds: 0\n" +
		"executor: { command: \"sh '" + script + "'\" }\n"
	testutil.WriteFile(t, filepath.Join(dir, "nbrun.cue"), cfg)
	return dir
}

func outputs(t *testing.T, project string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(project, "outputs", "notebooks"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read outputs: %v", err)
	}
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
