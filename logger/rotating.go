package logger

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alexhholmes/diskbtree"
)

// RotateConfig describes a JSON log file rotated by size.
type RotateConfig struct {
	LogLevel    string
	FileLogName string
	MaxBackups  int
	MaxAge      int // days
	MaxSize     int // megabytes
	Compress    bool
}

// Rotating is a zap logger writing through a lumberjack rotating file.
type Rotating struct {
	*Zap
	sink *lumberjack.Logger
	base *zap.Logger
}

// NewRotating builds a zap JSON logger that writes to cfg.FileLogName. An
// empty level means info.
func NewRotating(cfg RotateConfig) (*Rotating, error) {
	if cfg.FileLogName == "" {
		return nil, errors.Wrap(diskbtree.ErrInvalidArgument, "log file name is required")
	}

	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return nil, errors.Wrapf(diskbtree.ErrInvalidArgument, "log level %q", cfg.LogLevel)
		}
	}

	sink := &lumberjack.Logger{
		Filename:   cfg.FileLogName,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(sink), level)
	base := zap.New(core)

	return &Rotating{
		Zap:  &Zap{logger: base.Named("diskbtree").Sugar()},
		sink: sink,
		base: base,
	}, nil
}

// Close flushes buffered entries and closes the current file. The file is
// closed even when the flush fails; the first error is returned.
func (r *Rotating) Close() error {
	syncErr := r.base.Sync()
	if err := r.sink.Close(); err != nil && syncErr == nil {
		return errors.Wrap(err, "close log file")
	}
	return errors.Wrap(syncErr, "sync log")
}
