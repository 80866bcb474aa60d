package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.InfoLevel},
		{1, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf})
	log.Infow("Running 01_eda.ipynb", FieldStage, "01_eda.ipynb")
	require.NoError(t, log.Sync())

	line := buf.String()
	assert.Contains(t, line, " — INFO — Running 01_eda.ipynb")
	assert.Contains(t, line, `"stage": "01_eda.ipynb"`)
}

func TestNew_DebugHiddenByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf})
	log.Debug("executor args")
	assert.Empty(t, buf.String())

	buf.Reset()
	log = New(Options{Writer: &buf, Verbosity: 1})
	log.Debug("executor args")
	assert.Contains(t, buf.String(), "executor args")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{JSON: true, Writer: &buf})
	log.Named("pipeline").Errorw("FAILED at 02_preprocess_feature.ipynb", FieldError, "boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "pipeline", entry["logger"])
	assert.Equal(t, "boom", entry[FieldError])
	assert.NotEmpty(t, entry["time"])
}

func TestComponent_NilParent(t *testing.T) {
	log := Component(nil, "engine")
	require.NotNil(t, log)
	log.Info("discarded")
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	log := New(Options{Writer: &buf})
	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("hello")
	require.NoError(t, log.Sync())
	assert.Contains(t, buf.String(), "hello")
}
