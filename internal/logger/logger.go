// Package logger builds the zap logger shared by the whole program.
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a JSON logger.
// level is the global log level: Debug(-1), Info(0), Warn(1), Error(2), DPanic(3), Panic(4), Fatal(5).
// timeFormat is a Go time layout, e.g. 2006-01-02T15:04:05Z07:00; empty keeps zap's epoch timestamps.
func New(level int, timeFormat string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(level))
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	if timeFormat != "" {
		cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format(timeFormat))
		}
	}
	return cfg.Build()
}
