// Package dbg builds the process loggers.
package dbg

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the logger for an environment name, defaulting to the
// development configuration. Caller annotation is off; runs are traced by
// their run ID instead.
func NewLogger(env string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
