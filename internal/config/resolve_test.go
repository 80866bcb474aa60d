package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/params"
)

func TestSettings_Source(t *testing.T) {
	assert.Equal(t, "settings", Settings{}.Source())
	assert.Equal(t, "/p/nbrun.cue", Settings{ProjectFile: "/p/nbrun.cue"}.Source())
}

func TestSettings_ParametersAppliesDerive(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(p, []byte("seed: 42\n"), 0o644))

	s := Settings{ParamsPath: p, DeriveScript: `{ seed = params.seed, folds = 5 }`}
	ps, err := s.Parameters()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"seed": int64(42), "folds": int64(5)}, ps.Map())
}

func TestSettings_ParametersMissingFileIsEmpty(t *testing.T) {
	ps, err := Settings{ParamsPath: filepath.Join(t.TempDir(), "none.yaml")}.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 0, ps.Len())
}

func TestSettings_ParametersDeriveFailureIsConfigParseError(t *testing.T) {
	s := Settings{
		ProjectFile:  "/p/nbrun.cue",
		ParamsPath:   filepath.Join(t.TempDir(), "none.yaml"),
		DeriveScript: `return 3`,
	}
	_, err := s.Parameters()
	var cpe *params.ConfigParseError
	require.True(t, errors.As(err, &cpe), "got %v", err)
	assert.Equal(t, "/p/nbrun.cue", cpe.Path)
}

func TestSettings_Registry(t *testing.T) {
	reg, err := Settings{Stages: []string{"A.ipynb", "B.ipynb"}}.Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{"A.ipynb", "B.ipynb"}, reg.Names())

	_, err = Settings{Stages: []string{"sub/A.ipynb"}}.Registry()
	var cpe *params.ConfigParseError
	require.True(t, errors.As(err, &cpe), "got %v", err)
	assert.Equal(t, "settings", cpe.Path)
}
