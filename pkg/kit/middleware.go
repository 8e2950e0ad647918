package kit

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns a Middleware that logs every invocation of the named
// action with its transport, request ID, duration, and outcome.
func Logging(logger *slog.Logger, action string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)

			attrs := []any{
				"action", action,
				"transport", GetTransport(ctx),
				"elapsed", time.Since(start),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				logger.Warn("action failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("action done", attrs...)
			}
			return resp, err
		}
	}
}
