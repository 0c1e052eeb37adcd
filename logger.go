package userstate

// Logger is the sink for slot and evaluator diagnostics. Args are alternating
// key/value pairs. *slog.Logger satisfies Logger without an adapter; see
// pkg/logging for the logrus-backed implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

func (noopLogger) Error(string, ...any) {}

func loggerOrNoop(logger Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}
