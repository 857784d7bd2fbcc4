package distance

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// FallbackEstimator bounds a primary estimator with a timeout and answers
// from the fallback when the primary fails or is too slow.
type FallbackEstimator struct {
	primary  Estimator
	fallback Estimator
	timeout  time.Duration
	log      *slog.Logger
}

// NewFallbackEstimator returns primary guarded by timeout, falling back to
// fallback. A nil primary always uses the fallback.
func NewFallbackEstimator(primary, fallback Estimator, timeout time.Duration, log *slog.Logger) *FallbackEstimator {
	return &FallbackEstimator{primary: primary, fallback: fallback, timeout: timeout, log: log}
}

func (f *FallbackEstimator) EstimateMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error) {
	if f.primary == nil {
		return f.fallback.EstimateMinutes(ctx, from, to)
	}

	pctx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	minutes, err := f.primary.EstimateMinutes(pctx, from, to)
	if err == nil {
		return minutes, nil
	}
	// The caller gave up; do not mask that with an estimate.
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	f.log.WarnContext(ctx, "drive time estimator unavailable, using great-circle fallback", "error", err)
	return f.fallback.EstimateMinutes(ctx, from, to)
}
