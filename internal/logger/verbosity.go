package logger

import "go.uber.org/zap/zapcore"

// Verbosity levels for the -v flag count.
const (
	VerbosityDefault = 0 // stage start/finish and errors
	VerbosityDebug   = 1 // -v: + executor arguments, heartbeats, captured output sizes
)

// VerbosityToLevel maps the -v count to a zap level.
//
// Unlike most CLIs the default is Info: stage start and completion lines are
// part of the runner's normal output.
func VerbosityToLevel(verbosity int) zapcore.Level {
	if verbosity >= VerbosityDebug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
