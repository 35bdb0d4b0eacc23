package output

// LoggerPort is structured logging with alternating key/value args:
// Info("File saved", "task", id, "path", p).
type LoggerPort interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// WithField and WithFields return a child logger; the parent is unchanged.
	WithField(key string, value any) LoggerPort
	WithFields(fields map[string]any) LoggerPort

	Close() error
}
