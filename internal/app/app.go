// Package app wires stores, estimators and services from configuration.
// cmd/api and cmd/hosctl share it so both run the same engine.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/fleet-hos/internal/config"
	"github.com/pkordes/fleet-hos/internal/distance"
	"github.com/pkordes/fleet-hos/internal/repo"
	"github.com/pkordes/fleet-hos/internal/service"
)

// App holds the open connections and the services built on them.
type App struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client // nil when REDIS_URL is unset or unreachable

	HOS         *service.HOSCalculator
	Conflicts   *service.ConflictDetector
	Suggestions *service.SuggestionScorer
	Fleet       *service.FleetAggregator
	Export      *service.ExportService
}

// New connects to Postgres (and redis when configured) and builds every
// service. Postgres must be reachable; redis is optional and skipped with a
// warning when it is not.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	// pgxpool.New does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("app.New: create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("app.New: connect to database: %w", err)
	}

	a := &App{Pool: pool}
	if cfg.RedisURL != "" {
		a.Redis = connectRedis(ctx, cfg.RedisURL, log)
	}

	var rdb redis.Cmdable
	if a.Redis != nil {
		rdb = a.Redis
	}
	estimator, err := Estimator(cfg, rdb, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}

	if err := a.buildServices(cfg, estimator, log); err != nil {
		a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	return a, nil
}

func connectRedis(ctx context.Context, url string, log *slog.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, drive time cache disabled", "error", err)
		return nil
	}
	rdb := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		log.Warn("redis unreachable, drive time cache disabled", "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Estimator builds the drive-time chain: OpenRouteService when an API key
// is configured, cached in redis when rdb is non-nil, always guarded by a
// great-circle fallback.
func Estimator(cfg config.Config, rdb redis.Cmdable, log *slog.Logger) (service.DriveTimeEstimator, error) {
	haversine := distance.NewHaversineEstimator(cfg.HOS.AverageSpeedMPH)

	var primary distance.Estimator
	if cfg.ORS.APIKey != "" {
		ors, err := distance.NewORSClient(cfg.ORS.APIKey, cfg.ORS.BaseURL, cfg.ORS.Profile)
		if err != nil {
			return nil, fmt.Errorf("app.Estimator: %w", err)
		}
		primary = ors
		if rdb != nil {
			primary = distance.NewCachedEstimator(ors, rdb, cfg.EstimateCacheTTL, log)
		}
	}
	return distance.NewFallbackEstimator(primary, haversine, cfg.ORS.Timeout, log), nil
}

func (a *App) buildServices(cfg config.Config, estimator service.DriveTimeEstimator, log *slog.Logger) error {
	rule, err := service.ParseBreakRule(cfg.HOS.BreakRule)
	if err != nil {
		return err
	}
	policy, err := service.ParseFailurePolicy(cfg.HOS.FailurePolicy)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.HOS.Timezone, err)
	}

	jobs := repo.NewJobRepo(a.Pool)
	drivers := repo.NewDriverRepo(a.Pool)

	a.HOS = service.NewHOSCalculator(repo.NewDutyLogRepo(a.Pool), service.HOSOptions{
		BreakRule: rule,
		Location:  loc,
	}, log)
	a.Conflicts = service.NewConflictDetector(jobs, a.HOS, estimator, service.ConflictOptions{
		DefaultDriveTimeMinutes: cfg.HOS.DefaultDriveMinutes,
		WorkerLimit:             cfg.HOS.WorkerLimit,
		FailurePolicy:           policy,
	}, log)
	a.Suggestions = service.NewSuggestionScorer(service.SuggestDeps{
		Jobs:        jobs,
		Proximity:   repo.NewProximityRepo(a.Pool),
		Drivers:     drivers,
		Trucks:      repo.NewTruckRepo(a.Pool),
		Performance: repo.NewPerformanceRepo(a.Pool),
		Conflicts:   a.Conflicts,
		HOS:         a.HOS,
	}, service.SuggestConfig{
		ProximityTimeout: cfg.HOS.ProximityTimeout,
		WorkerLimit:      cfg.HOS.WorkerLimit,
		FailurePolicy:    policy,
	}, log)
	a.Fleet = service.NewFleetAggregator(drivers, repo.NewViolationRepo(a.Pool), a.HOS, service.FleetConfig{
		WorkerLimit:   cfg.HOS.WorkerLimit,
		FailurePolicy: policy,
	}, log)
	a.Export = service.NewExportService(a.Fleet)
	return nil
}

// Close releases the database pool and the redis client.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}
