package distance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// CachedEstimator memoises another estimator's answers in redis. Cache
// failures are logged and bypassed; they never fail an estimate.
type CachedEstimator struct {
	next Estimator
	rdb  redis.Cmdable
	ttl  time.Duration
	log  *slog.Logger
}

// NewCachedEstimator wraps next with a redis cache whose entries live for ttl.
func NewCachedEstimator(next Estimator, rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) *CachedEstimator {
	return &CachedEstimator{next: next, rdb: rdb, ttl: ttl, log: log}
}

// cacheKey rounds to 5 decimals (about a metre) so repeat lookups for the
// same stop share an entry.
func cacheKey(from, to domain.Coordinates) string {
	return fmt.Sprintf("drive_time:%.5f,%.5f:%.5f,%.5f", from.Lat, from.Lon, to.Lat, to.Lon)
}

func (c *CachedEstimator) EstimateMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error) {
	key := cacheKey(from, to)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if minutes, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return minutes, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "drive time cache read failed", "key", key, "error", err)
	}

	minutes, err := c.next.EstimateMinutes(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if err := c.rdb.Set(ctx, key, strconv.FormatFloat(minutes, 'f', -1, 64), c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "drive time cache write failed", "key", key, "error", err)
	}
	return minutes, nil
}
