package config

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/params"
	"github.com/flarebyte/nbrun/internal/stage"
)

func TestLoad_DefaultsWithoutProjectFile(t *testing.T) {
	root := t.TempDir()
	s, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)

	assert.Empty(t, s.ProjectFile)
	assert.Equal(t, filepath.Join(root, "notebooks"), s.NotebooksDir)
	assert.Equal(t, filepath.Join(root, "outputs", "notebooks"), s.OutputDir)
	assert.Equal(t, filepath.Join(root, "configs", "params.yaml"), s.ParamsPath)
	assert.Equal(t, stage.DefaultNotebooks, s.Stages)
	assert.Equal(t, "papermill", s.Executor.Command)
	assert.Equal(t, "python3", s.Executor.Kernel)
	assert.True(t, s.Executor.LogOutput)
	assert.Equal(t, time.Minute, s.Heartbeat)
	assert.Equal(t, params.DefaultDeriveTimeout, s.DeriveTimeout)
	assert.True(t, s.Ledger.Enabled)
	assert.Equal(t, filepath.Join(root, "outputs", "nbrun.db"), s.Ledger.Path)
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeCUE(t, root, fullProject)
	s, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, DefaultFileName), s.ProjectFile)
	assert.Equal(t, filepath.Join(root, "nb"), s.NotebooksDir)
	assert.Equal(t, []string{"01_eda.ipynb", "04_modeling.ipynb"}, s.Stages)
	assert.Equal(t, 15*time.Second, s.Heartbeat)
	assert.Equal(t, "ml-env", s.Executor.Kernel)
	assert.False(t, s.Executor.LogOutput)
	assert.Equal(t, []string{"--cwd", "nb"}, s.Executor.Args)
	assert.Equal(t, map[string]string{"PYTHONHASHSEED": "0"}, s.Executor.Env)
	assert.Equal(t, 500*time.Millisecond, s.DeriveTimeout)
	assert.False(t, s.Ledger.Enabled)
	assert.Equal(t, "artifacts", s.Publish.Bucket)
	assert.Equal(t, "nbrun", s.Publish.Prefix)
	assert.False(t, s.Publish.UseSSL)
}

func TestLoad_EmptyStagesIsKept(t *testing.T) {
	root := t.TempDir()
	writeCUE(t, root, `configVersion: "1", stages: []`)
	s, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Empty(t, s.Stages)
}

func TestLoad_EnvAndFlagsPrecedence(t *testing.T) {
	root := t.TempDir()
	writeCUE(t, root, `configVersion: "1", executor: kernel: "from-file"`)
	t.Setenv("NBRUN_EXECUTOR_KERNEL", "from-env")
	t.Setenv("NBRUN_OUTPUT_DIR", "/abs/out")
	t.Setenv("NBRUN_PUBLISH_ACCESS_KEY", "key")

	s, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Executor.Kernel)
	assert.Equal(t, "/abs/out", s.OutputDir)
	assert.Equal(t, "key", s.Publish.AccessKey)

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.String("kernel", "", "")
	fs.String("output-dir", "", "")
	require.NoError(t, fs.Parse([]string{"--kernel", "from-flag"}))
	s, err = Load(LoadOptions{Root: root, Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", s.Executor.Kernel)
	assert.Equal(t, "/abs/out", s.OutputDir, "unset flag must not shadow env")
}

func TestLoad_InvalidProjectIsConfigParseError(t *testing.T) {
	root := t.TempDir()
	cfg := writeCUE(t, root, `configVersion: "9"`)
	_, err := Load(LoadOptions{Root: root})
	require.Error(t, err)
	var cpe *params.ConfigParseError
	require.True(t, errors.As(err, &cpe))
	assert.Equal(t, cfg, cpe.Path)
}

func TestLoad_ExplicitMissingConfig(t *testing.T) {
	_, err := Load(LoadOptions{Root: t.TempDir(), ConfigPath: filepath.Join(t.TempDir(), "nope.cue")})
	var cpe *params.ConfigParseError
	require.True(t, errors.As(err, &cpe), "got %v", err)
}

func TestProject_SettingsMapOnlyPresentFields(t *testing.T) {
	p := Project{OutputDir: "o", HasOutputDir: true, Executor: Executor{Kernel: "k", HasKernel: true}, Ledger: Ledger{Path: "x"}}
	want := map[string]any{
		"output_dir": "o",
		"executor":   map[string]any{"kernel": "k"},
	}
	if got := p.settingsMap(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected map: %v", got)
	}
}

func TestFromFlags(t *testing.T) {
	root := t.TempDir()
	writeCUE(t, root, `configVersion: "1", outputDir: "o"`)
	fs := pflag.NewFlagSet("plan", pflag.ContinueOnError)
	fs.String("root", ".", "")
	fs.String("config", "", "")
	require.NoError(t, fs.Parse([]string{"--root", root}))

	s, err := FromFlags(fs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "o"), s.OutputDir)
}
