package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKeyType int

const loggerKey ctxKeyType = iota

// WithLogger attaches the given logger to the context. All log messages
// emitted for targets run with this context go through it.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func log(ctx context.Context) zerolog.Logger {
	logger, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		return zerolog.Nop()
	}

	return logger
}
