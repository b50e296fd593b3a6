package logging

import (
	"context"

	"github.com/charmbracelet/log"
)

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger. The HTTP server uses
// it to hand each request a logger tagged with its request id.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or Default.
func FromContext(ctx context.Context) *log.Logger {
	if logger, _ := ctx.Value(loggerKey{}).(*log.Logger); logger != nil {
		return logger
	}
	return Default()
}
