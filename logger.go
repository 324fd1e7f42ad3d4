package flann

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with flann-specific context: structured
// logging with consistent field names across build, search, and
// autotuning operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil,
// uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output. This is the
// default unless WithLogger or WithLogLevel is supplied.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithAlgorithm adds an algorithm field to the logger.
func (l *Logger) WithAlgorithm(alg string) *Logger {
	return &Logger{Logger: l.Logger.With("algorithm", alg)}
}

// WithSessionID adds a session_id field to the logger, used to
// correlate one autotuning run's log lines.
func (l *Logger) WithSessionID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("session_id", id)}
}

// LogBuild logs a BuildIndex call.
func (l *Logger) LogBuild(alg string, n int, err error) {
	if err != nil {
		l.Error("build failed", "algorithm", alg, "points", n, "error", err)
		return
	}
	l.Info("build completed", "algorithm", alg, "points", n)
}

// LogSearch logs a FindNeighbors call.
func (l *Logger) LogSearch(alg string, k, found int, err error) {
	if err != nil {
		l.Error("search failed", "algorithm", alg, "k", k, "error", err)
		return
	}
	l.Debug("search completed", "algorithm", alg, "k", k, "found", found)
}

// LogAutotuneShortfall logs a nonzero autotuner precision shortfall.
// Per the Numeric error kind, this is a warning, not a failure.
func (l *Logger) LogAutotuneShortfall(sessionID string, target, measured, shortfall float64) {
	l.Warn("autotune did not reach target precision within its grid",
		"session_id", sessionID, "target", target, "measured", measured, "shortfall", shortfall)
}
