package infrastructure

import (
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID returns a new random trace id
func GenerateTraceID() string {
	return uuid.NewString()
}

// WithComponent tags logger with a component name, falling back to the
// default logger when nil
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", component))
}
