package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/alexhholmes/diskbtree"
)

// Logrus forwards tree events to a logrus logger or entry. Arguments become
// fields; a key that is not a string, or a trailing key without a value, is
// dropped.
type Logrus struct {
	logger logrus.FieldLogger
}

// NewLogrus accepts a *logrus.Logger or a *logrus.Entry carrying fields that
// should tag every tree event, such as the index name.
func NewLogrus(logger logrus.FieldLogger) diskbtree.Logger {
	return &Logrus{logger: logger}
}

func (l *Logrus) Error(msg string, args ...any) {
	l.logger.WithFields(fields(args)).Error(msg)
}

func (l *Logrus) Warn(msg string, args ...any) {
	l.logger.WithFields(fields(args)).Warn(msg)
}

func (l *Logrus) Info(msg string, args ...any) {
	l.logger.WithFields(fields(args)).Info(msg)
}

func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			f[key] = args[i+1]
		}
	}
	return f
}
