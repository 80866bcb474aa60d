// Package logger builds the zap logger used by nbrun.
//
// There is no package-level logger: the root command builds one with New and
// passes it down (engine, controller, ledger) as a *zap.SugaredLogger.
package logger

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging.
const (
	FieldRunID      = "run_id"
	FieldStage      = "stage"
	FieldIndex      = "index"
	FieldInput      = "input"
	FieldOutput     = "output"
	FieldDurationMS = "duration_ms"
	FieldElapsed    = "elapsed"
	FieldError      = "error"
	FieldCount      = "count"
	FieldPath       = "path"
	FieldCommit     = "commit"
	FieldState      = "state"
	FieldComponent  = "component"
)

// Options control how the logger is built.
type Options struct {
	// JSON switches from the console encoder to JSON lines.
	JSON bool
	// Verbosity is the -v flag count.
	Verbosity int
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New returns a sugared logger writing to opts.Writer.
func New(opts Options) *zap.SugaredLogger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.ConsoleSeparator = " — "
		encCfg.CallerKey = zapcore.OmitKey
		encCfg.NameKey = zapcore.OmitKey
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), VerbosityToLevel(opts.Verbosity))
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Component returns a named child of parent, or a no-op logger when parent is nil.
func Component(parent *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if parent == nil {
		return Nop()
	}
	return parent.Named(name)
}

type loggerKey struct{}

// WithContext stores log in ctx.
func WithContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored by WithContext, or a no-op logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return Nop()
	}
	if log, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok && log != nil {
		return log
	}
	return Nop()
}
