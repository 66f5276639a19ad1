package logging

import (
	"chathub/pkg/middleware"
	"context"
	"log/slog"
)

// FromContext returns the request-scoped logger injected by the logging
// middleware, or the process default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(middleware.LoggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
