// Package obs holds small observability helpers shared by services and adapters.
package obs

import (
	"context"
	"log/slog"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Time logs the duration of an operation at debug level, or at warn level
// when it failed. Use it as
//
//	defer obs.Time(ctx, log, "service.HOSCalculator.Compute")(&err)
func Time(ctx context.Context, log *slog.Logger, op string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		attrs := []any{
			"op", op,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			attrs = append(attrs, "request_id", reqID)
		}
		if errp != nil && *errp != nil {
			log.WarnContext(ctx, "operation failed", append(attrs, "error", *errp)...)
			return
		}
		log.DebugContext(ctx, "operation finished", attrs...)
	}
}
