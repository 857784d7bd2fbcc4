// Package distance estimates drive times between coordinates. It offers a
// great-circle estimator, an OpenRouteService client, a redis-backed cache
// and a fallback wrapper that bounds the primary estimator with a timeout.
package distance

import (
	"context"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// Estimator returns the expected drive time in minutes between two points.
type Estimator interface {
	EstimateMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error)
}
