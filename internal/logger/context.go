package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

type ctxKey struct{}

var defaultLogger atomic.Pointer[Logger]

// SetDefault installs the logger FromContext returns for contexts that
// carry none. Commands call it once the configured logger is built.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(&l)
}

// Default returns the logger installed by SetDefault, or a warn-level
// stderr logger before one is installed.
func Default() Logger {
	if l := defaultLogger.Load(); l != nil {
		return *l
	}
	stderr := stderrLogger()
	defaultLogger.CompareAndSwap(nil, &stderr)
	return *defaultLogger.Load()
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger stored by WithContext, else Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return Default()
}

func stderrLogger() Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return NewNop()
	}
	return &zapLogger{z: z}
}
