package logger

import (
	"go.uber.org/zap"

	"github.com/alexhholmes/diskbtree"
)

// Zap forwards tree events to a sugared zap logger named "diskbtree".
type Zap struct {
	logger *zap.SugaredLogger
}

func NewZap(logger *zap.Logger) diskbtree.Logger {
	return &Zap{logger: logger.Named("diskbtree").Sugar()}
}

func (z *Zap) Error(msg string, args ...any) {
	z.logger.Errorw(msg, args...)
}

func (z *Zap) Warn(msg string, args ...any) {
	z.logger.Warnw(msg, args...)
}

func (z *Zap) Info(msg string, args ...any) {
	z.logger.Infow(msg, args...)
}
