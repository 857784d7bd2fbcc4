// Package service holds the HOS compliance engine: the daily and weekly HOS
// calculator, the schedule conflict detector, the driver suggestion scorer
// and the fleet compliance aggregator. Services depend on repo interfaces
// and receive the tenant explicitly on every call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/obs"
	"github.com/pkordes/fleet-hos/internal/repo"
)

// Federal HOS limits for property-carrying drivers.
const (
	MaxDrivingHours  = 11.0
	MaxOnDutyHours   = 14.0
	MinOffDutyHours  = 10.0
	MinBreakHours    = 0.5
	MaxDrivingWeek7  = 60.0
	MaxDrivingWeek8  = 70.0
	BreakAfterHours  = 8.0
	weeklyWindowDays = 8
)

// Violation messages. Their order in HOSSnapshot.Violations is fixed:
// driving limit, on-duty limit, break.
const (
	msgDrivingLimit  = "Driving limit exceeded: %.2f hours (max 11)"
	msgOnDutyLimit   = "On-duty limit exceeded: %.2f hours (max 14)"
	MsgBreakRequired = "Break required: 30 minutes off-duty needed after 8 hours driving"
)

// violationKinds matches messages by prefix since the limit messages carry
// the hour total.
var violationKinds = []struct{ prefix, kind string }{
	{"Driving limit exceeded", domain.ViolationDrivingLimit},
	{"On-duty limit exceeded", domain.ViolationOnDutyLimit},
	{MsgBreakRequired, domain.ViolationBreakRequired},
}

// ViolationKind returns the stable kind of a snapshot violation message, or
// "" for a message no HOSCalculator produces.
func ViolationKind(msg string) string {
	for _, k := range violationKinds {
		if strings.HasPrefix(msg, k.prefix) {
			return k.kind
		}
	}
	return ""
}

// BreakRule selects how the 30-minute break requirement is evaluated.
type BreakRule string

const (
	// BreakRuleCumulative flags a break when the day has 8+ driving hours and
	// under 30 minutes of off-duty plus sleeper time in total, wherever it fell.
	BreakRuleCumulative BreakRule = "cumulative"

	// BreakRuleConsecutive only accepts 30 consecutive off-duty or sleeper
	// minutes, and only resets the clock if taken before 8 driving hours
	// accumulate since the previous qualifying break.
	BreakRuleConsecutive BreakRule = "consecutive"
)

// HOSOptions configures an HOSCalculator. Zero values select defaults.
type HOSOptions struct {
	BreakRule BreakRule
	Location  *time.Location   // day boundaries; UTC when nil
	Now       func() time.Time // clock; time.Now when nil
}

// HOSCalculator turns duty intervals into remaining legal hours and violations.
type HOSCalculator struct {
	logs repo.DutyLogRepo
	rule BreakRule
	loc  *time.Location
	now  func() time.Time
	log  *slog.Logger
}

// NewHOSCalculator constructs an HOSCalculator reading from logs.
func NewHOSCalculator(logs repo.DutyLogRepo, opts HOSOptions, log *slog.Logger) *HOSCalculator {
	c := &HOSCalculator{logs: logs, rule: opts.BreakRule, loc: opts.Location, now: opts.Now, log: log}
	if c.rule == "" {
		c.rule = BreakRuleCumulative
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Today returns midnight of the current day in the calculator's zone.
func (c *HOSCalculator) Today() time.Time {
	return c.day(time.Time{})
}

// day truncates t to midnight in the calculator's zone; zero t means today.
func (c *HOSCalculator) day(t time.Time) time.Time {
	if t.IsZero() {
		t = c.now()
	}
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// Compute returns the driver's HOS snapshot for date (today when zero).
// A driver with no logs gets an all-zero snapshot that can drive.
func (c *HOSCalculator) Compute(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, date time.Time) (_ domain.HOSSnapshot, err error) {
	defer obs.Time(ctx, c.log, "service.HOSCalculator.Compute")(&err)

	if err := tenant.Validate(); err != nil {
		return domain.HOSSnapshot{}, fmt.Errorf("service.HOSCalculator.Compute: %w", err)
	}
	if driverID == uuid.Nil {
		return domain.HOSSnapshot{}, fmt.Errorf("service.HOSCalculator.Compute: %w: driver_id is required", domain.ErrValidation)
	}

	day := c.day(date)
	intervals, err := c.logs.ListIntervals(ctx, tenant.CompanyID, driverID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return domain.HOSSnapshot{}, fmt.Errorf("service.HOSCalculator.Compute: %w",
			domain.AsDataAccess("repo.DutyLogRepo.ListIntervals", err))
	}

	snap := Summarize(intervals, c.now(), c.rule)
	snap.DriverID = driverID
	snap.Date = day
	return snap, nil
}

// ComputeWeekly sums driving and on-duty time over the 8 days ending on asOf
// (today when zero) against the 70-hour cycle.
func (c *HOSCalculator) ComputeWeekly(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, asOf time.Time) (_ domain.WeeklyHOS, err error) {
	defer obs.Time(ctx, c.log, "service.HOSCalculator.ComputeWeekly")(&err)

	if err := tenant.Validate(); err != nil {
		return domain.WeeklyHOS{}, fmt.Errorf("service.HOSCalculator.ComputeWeekly: %w", err)
	}
	if driverID == uuid.Nil {
		return domain.WeeklyHOS{}, fmt.Errorf("service.HOSCalculator.ComputeWeekly: %w: driver_id is required", domain.ErrValidation)
	}

	end := c.day(asOf).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -weeklyWindowDays)
	intervals, err := c.logs.ListIntervals(ctx, tenant.CompanyID, driverID, start, end)
	if err != nil {
		return domain.WeeklyHOS{}, fmt.Errorf("service.HOSCalculator.ComputeWeekly: %w",
			domain.AsDataAccess("repo.DutyLogRepo.ListIntervals", err))
	}

	now := c.now()
	var minutes float64
	for _, iv := range intervals {
		if iv.Status == domain.DutyDriving || iv.Status == domain.DutyOnDuty {
			minutes += iv.Minutes(now)
		}
	}
	hours := minutes / 60

	return domain.WeeklyHOS{
		DriverID:             driverID,
		WindowStart:          start,
		WindowEnd:            end.AddDate(0, 0, -1),
		WeeklyOnDutyHours:    round2(hours),
		RemainingWeeklyHours: round2(math.Max(0, MaxDrivingWeek8-hours)),
		CycleLimitHours:      MaxDrivingWeek8,
	}, nil
}

// Summarize is the pure HOS computation over one day's intervals, which must
// be ordered by start time. Minutes are accumulated at full precision and
// only the output is rounded.
func Summarize(intervals []domain.DutyInterval, now time.Time, rule BreakRule) domain.HOSSnapshot {
	var driving, onDuty, offDuty, sleeper float64
	for _, iv := range intervals {
		m := iv.Minutes(now)
		switch iv.Status {
		case domain.DutyDriving:
			driving += m
			onDuty += m
		case domain.DutyOnDuty:
			onDuty += m
		case domain.DutyOffDuty:
			offDuty += m
		case domain.DutySleeperBerth:
			sleeper += m
		}
	}

	drivingH := driving / 60
	onDutyH := onDuty / 60
	restH := (offDuty + sleeper) / 60

	remainingDriving := math.Max(0, MaxDrivingHours-drivingH)
	remainingOnDuty := math.Max(0, MaxOnDutyHours-onDutyH)

	var needsBreak, breakMissed bool
	switch rule {
	case BreakRuleConsecutive:
		needsBreak, breakMissed = consecutiveBreak(intervals, now)
	default:
		needsBreak = drivingH >= BreakAfterHours && restH < MinBreakHours
		breakMissed = needsBreak
	}

	violations := []string{}
	if drivingH > MaxDrivingHours {
		violations = append(violations, fmt.Sprintf(msgDrivingLimit, round2(drivingH)))
	}
	if onDutyH > MaxOnDutyHours {
		violations = append(violations, fmt.Sprintf(msgOnDutyLimit, round2(onDutyH)))
	}
	if breakMissed {
		violations = append(violations, MsgBreakRequired)
	}

	return domain.HOSSnapshot{
		DrivingHours:     round2(drivingH),
		OnDutyHours:      round2(onDutyH),
		OffDutyHours:     round2(offDuty / 60),
		SleeperHours:     round2(sleeper / 60),
		RemainingDriving: round2(remainingDriving),
		RemainingOnDuty:  round2(remainingOnDuty),
		NeedsBreak:       needsBreak,
		Violations:       violations,
		CanDrive:         remainingDriving > 0 && remainingOnDuty > 0 && !needsBreak,
	}
}

// consecutiveBreak walks the day in order. Driving accumulates since the last
// run of at least 30 consecutive resting minutes; other on-duty work ends a
// resting run. needsBreak reports the current state; missed is also set when
// driving went past 8 hours at any point without a qualifying break.
func consecutiveBreak(intervals []domain.DutyInterval, now time.Time) (needsBreak, missed bool) {
	const breakAfter = BreakAfterHours * 60
	const minBreak = MinBreakHours * 60

	var sinceBreak, restRun float64
	for _, iv := range intervals {
		m := iv.Minutes(now)
		switch {
		case iv.Status.Resting():
			restRun += m
			if restRun >= minBreak {
				sinceBreak = 0
			}
		case iv.Status == domain.DutyDriving:
			restRun = 0
			sinceBreak += m
			if sinceBreak > breakAfter {
				missed = true
			}
		default:
			restRun = 0
		}
	}
	needsBreak = sinceBreak >= breakAfter
	return needsBreak, missed || needsBreak
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
