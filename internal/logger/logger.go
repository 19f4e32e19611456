package logger

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. env "prod" selects the JSON production encoder,
// anything else the human-readable development one.
func New(level, env string) (*zap.Logger, error) {
	var cfg zap.Config

	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Info logs msg at info level with the trace ids found in ctx.
func Info(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Info(msg, withTrace(ctx, fields)...)
}

// Warn logs msg at warn level with the trace ids found in ctx.
func Warn(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Warn(msg, withTrace(ctx, fields)...)
}

// Error logs msg at error level with the trace ids found in ctx.
func Error(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Error(msg, withTrace(ctx, fields)...)
}

// withTrace appends the New Relic trace and span IDs when ctx carries a transaction.
func withTrace(ctx context.Context, fields []zap.Field) []zap.Field {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return fields
	}

	md := txn.GetTraceMetadata()
	if md.TraceID == "" {
		return fields
	}

	return append(fields,
		zap.String("trace.id", md.TraceID),
		zap.String("span.id", md.SpanID),
	)
}
