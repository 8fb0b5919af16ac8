package logger

// nopLogger discards everything. Used in tests and as a safe fallback.
type nopLogger struct{}

// NewNop creates a logger that does nothing.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(msg string, fields ...Field) {}
func (nopLogger) Info(msg string, fields ...Field)  {}
func (nopLogger) Warn(msg string, fields ...Field)  {}
func (nopLogger) Error(msg string, fields ...Field) {}

func (n nopLogger) With(fields ...Field) Logger { return n }

func (nopLogger) Sync() error { return nil }
