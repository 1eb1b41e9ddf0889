// Package logging configures the structured logger every pipeline phase
// attaches request-scoped fields to, the way the teacher's command
// package configures zap once at startup and lets callers build
// request-scoped children from it with .With(...).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide logger. debug selects a development
// encoder (human-readable, colorized level) over the production JSON
// encoder, mirroring the -debug flag the teacher's cmd/main.go exposes.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(zapcoreStdout())),
		zap.InfoLevel,
	)
	return zap.New(core), nil
}

// Code builds the "code" field a log site attaches for a stable
// phase/message code, kept as its own field rather than interpolated into
// the message so log aggregation can group on it directly.
func Code(code string) zap.Field {
	return zap.String("code", code)
}
