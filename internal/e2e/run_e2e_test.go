package e2e

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var outputName = regexp.MustCompile(`^([A-C])_\d{8}_\d{6}\.ipynb$`)

func TestRun_AllStagesSucceed(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t, "A.ipynb", "B.ipynb", "C.ipynb")

	r := runCmd(t, bin, "run", "--root", project)
	if r.code != 0 {
		t.Fatalf("unexpected exit %d\n%s", r.code, r.stderr)
	}
	stderr := string(r.stderr)
	for _, want := range []string{"START PIPELINE EXECUTION", "Running A.ipynb", "Finished C.ipynb", "PIPELINE FINISHED SUCCESSFULLY"} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("missing %q in logs:\n%s", want, stderr)
		}
	}
	names := outputs(t, project)
	if len(names) != 3 {
		t.Fatalf("unexpected outputs: %v", names)
	}
	for _, n := range names {
		if !outputName.MatchString(n) {
			t.Fatalf("unexpected output name: %s", n)
		}
		b, err := os.ReadFile(filepath.Join(project, "outputs", "notebooks", n))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !strings.Contains(string(b), "seed: 42") {
			t.Fatalf("parameters not injected into %s:\n%s", n, b)
		}
	}
}

func TestRun_FailFast(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t, "A.ipynb", "B.ipynb", "C.ipynb")
	if err := os.WriteFile(filepath.Join(project, "notebooks", "B.ipynb"), []byte(`{"cells": [{"source": "raise"}]}`+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := runCmd(t, bin, "run", "--root", project)
	if r.code != 1 {
		t.Fatalf("expected exit 1, got %d\n%s", r.code, r.stderr)
	}
	last := r.lastStderrLine()
	if !strings.HasPrefix(last, "FAILED at B.ipynb:") {
		t.Fatalf("unexpected error line: %q", last)
	}
	if strings.Contains(string(r.stderr), "Running C.ipynb") {
		t.Fatalf("C must not run:\n%s", r.stderr)
	}
	names := outputs(t, project)
	if len(names) != 1 || !strings.HasPrefix(names[0], "A_") {
		t.Fatalf("unexpected outputs: %v", names)
	}
}

func TestRun_MissingParamsRunsWithEmptySet(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t, "A.ipynb")
	if err := os.Remove(filepath.Join(project, "configs", "params.yaml")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	r := runCmd(t, bin, "run", "--root", project, "--no-ledger")
	if r.code != 0 {
		t.Fatalf("unexpected exit %d\n%s", r.code, r.stderr)
	}
	names := outputs(t, project)
	if len(names) != 1 {
		t.Fatalf("unexpected outputs: %v", names)
	}
	b, err := os.ReadFile(filepath.Join(project, "outputs", "notebooks", names[0]))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(b), "# parameters") {
		t.Fatalf("no parameter file expected:\n%s", b)
	}
}

func TestRun_MalformedParamsExitsBeforeAnyStage(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t, "A.ipynb")
	if err := os.WriteFile(filepath.Join(project, "configs", "params.yaml"), []byte("seed: [1, 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := runCmd(t, bin, "run", "--root", project)
	if r.code != 2 {
		t.Fatalf("expected exit 2, got %d\n%s", r.code, r.stderr)
	}
	if !strings.HasPrefix(r.lastStderrLine(), "invalid config ") {
		t.Fatalf("unexpected error line: %q", r.lastStderrLine())
	}
	if len(outputs(t, project)) != 0 {
		t.Fatalf("no stage should run")
	}
}

func TestRun_EmptyStageList(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t)

	r := runCmd(t, bin, "run", "--root", project, "--no-ledger")
	if r.code != 0 {
		t.Fatalf("unexpected exit %d\n%s", r.code, r.stderr)
	}
	if !strings.Contains(string(r.stderr), "PIPELINE FINISHED SUCCESSFULLY") {
		t.Fatalf("missing completion log:\n%s", r.stderr)
	}
	if len(outputs(t, project)) != 0 {
		t.Fatalf("no outputs expected")
	}
}

func TestHistory_ListsRecordedRuns(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t, "A.ipynb")

	if r := runCmd(t, bin, "run", "--root", project); r.code != 0 {
		t.Fatalf("run failed: %s", r.stderr)
	}
	r := runCmd(t, bin, "history", "--root", project)
	if r.code != 0 {
		t.Fatalf("history failed: %s", r.stderr)
	}
	if !strings.Contains(string(r.stdout), "completed") {
		t.Fatalf("run not listed:\n%s", r.stdout)
	}
}

func TestPlan_DoesNotExecute(t *testing.T) {
	bin := buildNbrun(t)
	project := newProject(t, "A.ipynb", "missing.ipynb")

	r := runCmd(t, bin, "plan", "--root", project, "--json")
	if r.code != 0 {
		t.Fatalf("plan failed: %s", r.stderr)
	}
	out := string(r.stdout)
	if !strings.Contains(out, `"name": "missing.ipynb"`) || !strings.Contains(out, `"inputExists": false`) {
		t.Fatalf("unexpected plan:\n%s", out)
	}
	if len(outputs(t, project)) != 0 {
		t.Fatalf("plan must not execute stages")
	}
}

func TestVersion(t *testing.T) {
	bin := buildNbrun(t)
	r := runCmd(t, bin, "version")
	if r.code != 0 || !strings.HasPrefix(string(r.stdout), "nbrun ") {
		t.Fatalf("unexpected version output: %q", r.stdout)
	}
}
