package diskbtree

// Logger receives the tree's lifecycle events: created, opened and saved at
// info, a repeated Close at warn, and failed flushes or write-backs at error.
// Arguments are alternating key/value pairs such as "root", 24. *slog.Logger
// satisfies it as is; package logger adapts zap and logrus.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// DiscardLogger drops everything. It is what a tree logs to unless
// WithLogger is given.
type DiscardLogger struct{}

func (DiscardLogger) Error(string, ...any) {}

func (DiscardLogger) Warn(string, ...any) {}

func (DiscardLogger) Info(string, ...any) {}
