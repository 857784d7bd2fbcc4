package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/distance"
	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/obs"
	"github.com/pkordes/fleet-hos/internal/repo"
)

const defaultPerformanceScore = 50.0

// standardEquipment are the types any truck without a recorded type can haul.
var standardEquipment = map[string]bool{
	"dry-van":  true,
	"van":      true,
	"standard": true,
}

// SuggestDeps are the collaborators of a SuggestionScorer. Performance may
// be nil; scores then default to 50.
type SuggestDeps struct {
	Jobs        repo.JobRepo
	Proximity   repo.ProximityRepo
	Drivers     repo.DriverRepo
	Trucks      repo.TruckRepo
	Performance repo.PerformanceRepo
	Conflicts   *ConflictDetector
	HOS         *HOSCalculator
}

// SuggestConfig holds runtime knobs. Zero values select defaults.
type SuggestConfig struct {
	ProximityTimeout time.Duration // 5s when zero
	WorkerLimit      int
	FailurePolicy    FailurePolicy
}

// SuggestionScorer ranks drivers for a load.
type SuggestionScorer struct {
	deps SuggestDeps
	cfg  SuggestConfig
	log  *slog.Logger
}

// NewSuggestionScorer constructs a SuggestionScorer.
func NewSuggestionScorer(deps SuggestDeps, cfg SuggestConfig, log *slog.Logger) *SuggestionScorer {
	if cfg.ProximityTimeout <= 0 {
		cfg.ProximityTimeout = 5 * time.Second
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailureSkip
	}
	return &SuggestionScorer{deps: deps, cfg: cfg, log: log}
}

// SuggestDrivers returns up to opts.MaxSuggestions drivers for the load,
// best first. Ties keep proximity order.
func (s *SuggestionScorer) SuggestDrivers(ctx context.Context, tenant domain.Tenant, loadID uuid.UUID, opts domain.SuggestOptions) (_ domain.SuggestionSet, err error) {
	defer obs.Time(ctx, s.log, "service.SuggestionScorer.SuggestDrivers")(&err)

	if err := tenant.Validate(); err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w", err)
	}
	if loadID == uuid.Nil {
		return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w: load_id is required", domain.ErrValidation)
	}
	opts = opts.WithDefaults()
	if err := domain.Validate(opts); err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w", err)
	}

	load, err := s.deps.Jobs.GetLoad(ctx, tenant.CompanyID, loadID)
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w",
			domain.AsDataAccess("repo.JobRepo.GetLoad", err))
	}
	estimateDegraded, err := s.deps.Conflicts.materialize(ctx, &load)
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w", err)
	}

	set := domain.SuggestionSet{
		LoadID:      loadID,
		Suggestions: []domain.DriverSuggestion{},
		Skipped:     []uuid.UUID{},
		Degraded:    []string{},
	}
	if estimateDegraded {
		set.Degraded = append(set.Degraded, domain.DegradedDriveTimeEstimation)
	}

	query := domain.ProximityQuery{
		MaxRadiusKm:    *opts.MaxDistanceMiles * distance.KmPerMile,
		MinDriveHours:  *opts.MinDriveHours,
		MinOnDutyHours: *opts.MinOnDutyHours,
		Limit:          opts.CandidateLimit,
	}
	candidates, err := s.nearby(ctx, tenant, load, query)
	if err != nil {
		if ctx.Err() != nil {
			return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w", ctx.Err())
		}
		s.log.WarnContext(ctx, "proximity search failed, using in-process fallback",
			"load_id", loadID, "error", err)
		set.Degraded = append(set.Degraded, domain.DegradedProximityFallback)

		var skipped []uuid.UUID
		candidates, skipped, err = s.fallbackNearby(ctx, tenant, load, query)
		if err != nil {
			return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w", err)
		}
		set.Skipped = append(set.Skipped, skipped...)
	}
	if len(candidates) == 0 {
		return set, nil
	}

	perf := domain.PerformanceScores{}
	if opts.ConsiderPerformance {
		var ok bool
		perf, ok = s.performance(ctx, tenant, candidates)
		if !ok {
			set.Degraded = append(set.Degraded, domain.DegradedPerformanceMissing)
		}
	}

	results := make([]*domain.DriverSuggestion, len(candidates))
	failed := make([]bool, len(candidates))
	err = forEach(ctx, s.cfg.WorkerLimit, len(candidates), func(ctx context.Context, i int) error {
		sg, err := s.evaluate(ctx, tenant, load, candidates[i], perf, opts)
		if err == nil {
			results[i] = &sg
			return nil
		}
		if s.cfg.FailurePolicy == FailureAbort || ctx.Err() != nil {
			return err
		}
		s.log.WarnContext(ctx, "skipping candidate", "driver_id", candidates[i].DriverID, "error", err)
		failed[i] = true
		return nil
	})
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("service.SuggestionScorer.SuggestDrivers: %w", err)
	}

	for i, r := range results {
		if failed[i] {
			set.Skipped = append(set.Skipped, candidates[i].DriverID)
			continue
		}
		set.Suggestions = append(set.Suggestions, *r)
	}
	sort.SliceStable(set.Suggestions, func(a, b int) bool {
		return set.Suggestions[a].Score > set.Suggestions[b].Score
	})
	if len(set.Suggestions) > opts.MaxSuggestions {
		set.Suggestions = set.Suggestions[:opts.MaxSuggestions]
	}
	return set, nil
}

func (s *SuggestionScorer) nearby(ctx context.Context, tenant domain.Tenant, load domain.ScheduledJob, q domain.ProximityQuery) ([]domain.NearbyDriver, error) {
	if s.deps.Proximity == nil {
		return nil, errors.New("no proximity search configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProximityTimeout)
	defer cancel()
	return s.deps.Proximity.FindNearbyDrivers(ctx, tenant.CompanyID, load.ID, q)
}

// fallbackNearby reproduces the proximity search in process: active drivers
// with a known location, great-circle distance to the load origin, today's
// HOS, the same thresholds and limit, nearest first.
func (s *SuggestionScorer) fallbackNearby(ctx context.Context, tenant domain.Tenant, load domain.ScheduledJob, q domain.ProximityQuery) ([]domain.NearbyDriver, []uuid.UUID, error) {
	if load.OriginCoords == nil {
		return nil, nil, nil
	}
	drivers, err := s.deps.Drivers.ListActive(ctx, tenant.CompanyID)
	if err != nil {
		return nil, nil, domain.AsDataAccess("repo.DriverRepo.ListActive", err)
	}

	maxMiles := q.MaxRadiusKm / distance.KmPerMile
	var inRange []domain.NearbyDriver
	for _, d := range drivers {
		if d.LastLocation == nil {
			continue
		}
		miles := distance.HaversineMiles(*d.LastLocation, *load.OriginCoords)
		if miles > maxMiles {
			continue
		}
		inRange = append(inRange, domain.NearbyDriver{
			DriverID:      d.ID,
			DriverName:    d.Name,
			DistanceMiles: math.Round(miles*100) / 100,
			CurrentStatus: d.Status,
			TruckID:       d.TruckID,
			TruckNumber:   d.TruckNumber,
		})
	}

	failed := make([]bool, len(inRange))
	keep := make([]bool, len(inRange))
	err = forEach(ctx, s.cfg.WorkerLimit, len(inRange), func(ctx context.Context, i int) error {
		snap, err := s.deps.HOS.Compute(ctx, tenant, inRange[i].DriverID, time.Time{})
		if err != nil {
			if s.cfg.FailurePolicy == FailureAbort || ctx.Err() != nil {
				return err
			}
			s.log.WarnContext(ctx, "skipping driver in fallback search", "driver_id", inRange[i].DriverID, "error", err)
			failed[i] = true
			return nil
		}
		inRange[i].RemainingDriveHours = snap.RemainingDriving
		inRange[i].RemainingOnDutyHours = snap.RemainingOnDuty
		keep[i] = snap.RemainingDriving >= q.MinDriveHours && snap.RemainingOnDuty >= q.MinOnDutyHours
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var out []domain.NearbyDriver
	var skipped []uuid.UUID
	for i, n := range inRange {
		switch {
		case failed[i]:
			skipped = append(skipped, n.DriverID)
		case keep[i]:
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DistanceMiles < out[b].DistanceMiles })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, skipped, nil
}

// performance looks up scores for the candidates. ok is false when no score
// source is usable; lookups never fail the suggestion request.
func (s *SuggestionScorer) performance(ctx context.Context, tenant domain.Tenant, candidates []domain.NearbyDriver) (domain.PerformanceScores, bool) {
	if s.deps.Performance == nil {
		return domain.PerformanceScores{}, false
	}
	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.DriverID
	}
	scores, err := s.deps.Performance.Scores(ctx, tenant.CompanyID, ids)
	if err != nil {
		s.log.WarnContext(ctx, "performance lookup failed, using default scores", "error", err)
		return domain.PerformanceScores{}, false
	}
	return scores, scores.Available
}

func (s *SuggestionScorer) evaluate(ctx context.Context, tenant domain.Tenant, load domain.ScheduledJob, c domain.NearbyDriver, perf domain.PerformanceScores, opts domain.SuggestOptions) (domain.DriverSuggestion, error) {
	check, err := s.deps.Conflicts.checkJob(ctx, tenant, c.DriverID, load)
	if err != nil {
		return domain.DriverSuggestion{}, err
	}

	var truck *domain.Truck
	if c.TruckID != nil {
		t, err := s.deps.Trucks.GetByID(ctx, tenant.CompanyID, *c.TruckID)
		switch {
		case err == nil:
			truck = &t
		case !errors.Is(err, domain.ErrNotFound):
			return domain.DriverSuggestion{}, domain.AsDataAccess("repo.TruckRepo.GetByID", err)
		}
	}

	in := ScoreInput{
		DistanceMiles:       c.DistanceMiles,
		RemainingDriveHours: c.RemainingDriveHours,
		EquipmentMatch:      EquipmentMatches(load.RequiredEquipment, truck),
		Urgent:              load.Priority == domain.PriorityUrgent,
		Conflicts:           check.Conflicts,
		HOSViolations:       check.HOSViolations,
	}
	if opts.ConsiderPerformance {
		p := perf.ScoreFor(c.DriverID, defaultPerformanceScore)
		in.Performance = &p
	}
	score, reasons := Score(in)

	return domain.DriverSuggestion{
		DriverID:             c.DriverID,
		DriverName:           c.DriverName,
		Score:                score,
		Reasons:              reasons,
		DistanceMiles:        c.DistanceMiles,
		RemainingDriveHours:  c.RemainingDriveHours,
		RemainingOnDutyHours: c.RemainingOnDutyHours,
		EquipmentMatch:       in.EquipmentMatch,
		CanComplete: len(check.Conflicts) == 0 && len(check.HOSViolations) == 0 &&
			c.RemainingDriveHours >= float64(load.DriveTimeMinutes)/60,
		Conflicts:     check.Conflicts,
		HOSViolations: check.HOSViolations,
		TruckID:       c.TruckID,
		TruckNumber:   c.TruckNumber,
	}, nil
}

// ScoreInput is everything the score depends on. Performance is nil when
// performance is not considered.
type ScoreInput struct {
	DistanceMiles       float64
	RemainingDriveHours float64
	Performance         *float64
	EquipmentMatch      bool
	Urgent              bool
	Conflicts           []string
	HOSViolations       []string
}

// Score computes a candidate's score in [0, 100] and its reasons in fixed
// order: distance, hours, performance, equipment, then warnings.
func Score(in ScoreInput) (float64, []string) {
	score := 50.0
	reasons := []string{}

	score += math.Max(0, 30-in.DistanceMiles/10)
	switch {
	case in.DistanceMiles < 10:
		reasons = append(reasons, fmt.Sprintf("Very close: %.1f miles away", in.DistanceMiles))
	case in.DistanceMiles < 25:
		reasons = append(reasons, fmt.Sprintf("Nearby: %.1f miles away", in.DistanceMiles))
	}

	score += math.Min(25, in.RemainingDriveHours/MaxDrivingHours*25)
	switch {
	case in.RemainingDriveHours >= 8:
		reasons = append(reasons, fmt.Sprintf("Plenty of drive time: %.1fh remaining", in.RemainingDriveHours))
	case in.RemainingDriveHours >= 4:
		reasons = append(reasons, fmt.Sprintf("Sufficient drive time: %.1fh remaining", in.RemainingDriveHours))
	}

	if in.Performance != nil {
		score += *in.Performance / 100 * 15
		if *in.Performance >= 80 {
			reasons = append(reasons, fmt.Sprintf("Strong performance score: %.0f", *in.Performance))
		}
	}

	if in.EquipmentMatch {
		score += 10
		reasons = append(reasons, "Equipment compatible")
	}

	if in.Urgent && in.RemainingDriveHours >= 8 {
		score += 10
	}

	if len(in.Conflicts) > 0 {
		score -= 20
		reasons = append(reasons, fmt.Sprintf("Warning: %d scheduling conflict(s)", len(in.Conflicts)))
	}
	if len(in.HOSViolations) > 0 {
		score -= 30
		for _, v := range in.HOSViolations {
			reasons = append(reasons, "Warning: HOS violation - "+v)
		}
	}

	score = math.Max(0, math.Min(100, score))
	return round2(score), reasons
}

// EquipmentMatches reports whether a truck can haul a load requiring
// required. A nil truck, or one with no type, matches only standard loads.
func EquipmentMatches(required string, truck *domain.Truck) bool {
	req := normalizeEquipment(required)
	if req == "" {
		return true
	}
	if truck == nil || normalizeEquipment(truck.EquipmentType) == "" {
		return standardEquipment[req]
	}
	return normalizeEquipment(truck.EquipmentType) == req
}

func normalizeEquipment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}
