// Package logging wraps zap with diffr's one piece of cross-cutting
// context: a run ID attached to every log line emitted during a single
// invocation, so multiple concurrent diffr processes (or repeated runs
// under --watch) can be told apart in aggregated log output.
package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.Logger pre-tagged with a run ID.
type Logger struct {
	*zap.Logger
	RunID string
}

// New builds a Logger at the given level ("debug", "info", "warn",
// "error"), writing structured logs to stderr so stdout stays reserved
// for the refined diff.
func New(level string) (*Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	base, err := config.Build()
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	return &Logger{
		Logger: base.With(zap.String("run_id", runID)),
		RunID:  runID,
	}, nil
}

// Nop returns a Logger that discards everything, for callers (tests,
// library embedders) that don't want diffr's own log output.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), RunID: "nop"}
}
