package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/obs"
	"github.com/pkordes/fleet-hos/internal/repo"
)

// Alert thresholds in remaining drive hours.
const approachingLimitHours = 2.0

// FleetConfig holds runtime knobs for fleet-wide operations.
type FleetConfig struct {
	WorkerLimit   int
	FailurePolicy FailurePolicy
	Now           func() time.Time
}

// FleetAggregator computes company-wide compliance metrics from per-driver
// HOS snapshots.
type FleetAggregator struct {
	drivers    repo.DriverRepo
	violations repo.ViolationRepo
	hos        *HOSCalculator
	cfg        FleetConfig
	log        *slog.Logger
}

// NewFleetAggregator constructs a FleetAggregator.
func NewFleetAggregator(drivers repo.DriverRepo, violations repo.ViolationRepo, hos *HOSCalculator, cfg FleetConfig, log *slog.Logger) *FleetAggregator {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailureSkip
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FleetAggregator{drivers: drivers, violations: violations, hos: hos, cfg: cfg, log: log}
}

// GetFleetHealth summarises today's HOS state of every active driver.
func (f *FleetAggregator) GetFleetHealth(ctx context.Context, tenant domain.Tenant) (_ domain.FleetHealth, err error) {
	defer obs.Time(ctx, f.log, "service.FleetAggregator.GetFleetHealth")(&err)

	if err := tenant.Validate(); err != nil {
		return domain.FleetHealth{}, fmt.Errorf("service.FleetAggregator.GetFleetHealth: %w", err)
	}

	snaps, skipped, err := f.snapshots(ctx, tenant, time.Time{})
	if err != nil {
		return domain.FleetHealth{}, fmt.Errorf("service.FleetAggregator.GetFleetHealth: %w", err)
	}

	unresolved, err := f.violations.CountUnresolved(ctx, tenant.CompanyID)
	if err != nil {
		return domain.FleetHealth{}, fmt.Errorf("service.FleetAggregator.GetFleetHealth: %w",
			domain.AsDataAccess("repo.ViolationRepo.CountUnresolved", err))
	}

	h := domain.FleetHealth{
		TotalDrivers:         len(snaps) + len(skipped),
		UnresolvedViolations: unresolved,
		Skipped:              skipped,
		GeneratedAt:          f.cfg.Now().UTC(),
	}
	for _, ds := range snaps {
		if ds.snap.CanDrive {
			h.DriversAvailable++
		}
		if ds.snap.RemainingDriving < approachingLimitHours || ds.snap.NeedsBreak {
			h.DriversApproachingLimit++
		}
		if len(ds.snap.Violations) > 0 {
			h.DriversWithActiveViolations++
		}
	}
	h.ComplianceScore = ComplianceScore(unresolved, h.TotalDrivers)
	h.Status = ComplianceBand(h.ComplianceScore)
	return h, nil
}

// GetPredictiveAlerts lists drivers close to or past their limits. A driver
// can raise several alerts; they follow driver order, then kind order.
func (f *FleetAggregator) GetPredictiveAlerts(ctx context.Context, tenant domain.Tenant) (_ domain.AlertSet, err error) {
	defer obs.Time(ctx, f.log, "service.FleetAggregator.GetPredictiveAlerts")(&err)

	if err := tenant.Validate(); err != nil {
		return domain.AlertSet{}, fmt.Errorf("service.FleetAggregator.GetPredictiveAlerts: %w", err)
	}

	snaps, skipped, err := f.snapshots(ctx, tenant, time.Time{})
	if err != nil {
		return domain.AlertSet{}, fmt.Errorf("service.FleetAggregator.GetPredictiveAlerts: %w", err)
	}

	now := f.cfg.Now().UTC()
	set := domain.AlertSet{Alerts: []domain.Alert{}, Skipped: skipped}
	for _, ds := range snaps {
		set.Alerts = append(set.Alerts, alertsFor(ds.driver, ds.snap, now)...)
	}
	return set, nil
}

// RecordViolations persists the violations every active driver has on date
// (today when zero), one row per driver, day and kind. Re-running it later
// the same day refreshes the stored wording instead of adding rows. It
// returns the number of new rows and, under the skip policy, the drivers
// whose HOS could not be computed.
func (f *FleetAggregator) RecordViolations(ctx context.Context, tenant domain.Tenant, date time.Time) (_ int, _ []uuid.UUID, err error) {
	defer obs.Time(ctx, f.log, "service.FleetAggregator.RecordViolations")(&err)

	if err := tenant.Validate(); err != nil {
		return 0, nil, fmt.Errorf("service.FleetAggregator.RecordViolations: %w", err)
	}

	snaps, skipped, err := f.snapshots(ctx, tenant, date)
	if err != nil {
		return 0, nil, fmt.Errorf("service.FleetAggregator.RecordViolations: %w", err)
	}

	var vs []domain.Violation
	for _, ds := range snaps {
		for _, msg := range ds.snap.Violations {
			vs = append(vs, domain.Violation{
				DriverID: ds.driver.ID,
				Date:     ds.snap.Date,
				Kind:     ViolationKind(msg),
				Message:  msg,
			})
		}
	}
	if len(vs) == 0 {
		return 0, skipped, nil
	}

	n, err := f.violations.Record(ctx, tenant.CompanyID, vs)
	if err != nil {
		return n, skipped, fmt.Errorf("service.FleetAggregator.RecordViolations: %w",
			domain.AsDataAccess("repo.ViolationRepo.Record", err))
	}
	return n, skipped, nil
}

// ComplianceScore is 100 less 10 points per unresolved violation per driver,
// floored at 0. An empty fleet scores 100.
func ComplianceScore(unresolved, drivers int) float64 {
	if drivers == 0 {
		return 100
	}
	return round2(math.Max(0, 100-float64(unresolved)/float64(drivers)*10))
}

// ComplianceBand maps a score to its band.
func ComplianceBand(score float64) string {
	switch {
	case score >= 90:
		return domain.BandExcellent
	case score >= 70:
		return domain.BandGood
	case score >= 50:
		return domain.BandFair
	default:
		return domain.BandPoor
	}
}

func alertsFor(d domain.Driver, snap domain.HOSSnapshot, now time.Time) []domain.Alert {
	var out []domain.Alert
	add := func(sev domain.AlertSeverity, kind, msg string) {
		out = append(out, domain.Alert{
			DriverID:            d.ID,
			DriverName:          d.Name,
			Severity:            sev,
			Kind:                kind,
			Message:             msg,
			RemainingDriveHours: snap.RemainingDriving,
			CreatedAt:           now,
		})
	}

	rd := snap.RemainingDriving
	if rd > 0 && rd < approachingLimitHours {
		add(domain.SeverityWarning, domain.AlertLowDriveTime,
			fmt.Sprintf("%s has %.1fh of drive time remaining", d.Name, rd))
	}
	if snap.NeedsBreak {
		add(domain.SeverityCritical, domain.AlertBreakRequired,
			fmt.Sprintf("%s needs a 30-minute break before driving", d.Name))
	}
	if rd <= 0 {
		add(domain.SeverityCritical, domain.AlertDriveTimeExhausted,
			fmt.Sprintf("%s has no drive time remaining today", d.Name))
	}
	return out
}

type driverSnapshot struct {
	driver domain.Driver
	snap   domain.HOSSnapshot
}

// snapshots computes every active driver's HOS for date in driver order.
// Under the skip policy failed drivers are returned in skipped instead.
func (f *FleetAggregator) snapshots(ctx context.Context, tenant domain.Tenant, date time.Time) ([]driverSnapshot, []uuid.UUID, error) {
	drivers, err := f.drivers.ListActive(ctx, tenant.CompanyID)
	if err != nil {
		return nil, nil, domain.AsDataAccess("repo.DriverRepo.ListActive", err)
	}

	snaps := make([]domain.HOSSnapshot, len(drivers))
	failed := make([]bool, len(drivers))
	err = forEach(ctx, f.cfg.WorkerLimit, len(drivers), func(ctx context.Context, i int) error {
		snap, err := f.hos.Compute(ctx, tenant, drivers[i].ID, date)
		if err != nil {
			if f.cfg.FailurePolicy == FailureAbort || ctx.Err() != nil {
				return err
			}
			f.log.WarnContext(ctx, "skipping driver", "driver_id", drivers[i].ID, "error", err)
			failed[i] = true
			return nil
		}
		snaps[i] = snap
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := make([]driverSnapshot, 0, len(drivers))
	skipped := []uuid.UUID{}
	for i, d := range drivers {
		if failed[i] {
			skipped = append(skipped, d.ID)
			continue
		}
		out = append(out, driverSnapshot{driver: d, snap: snaps[i]})
	}
	return out, skipped, nil
}
