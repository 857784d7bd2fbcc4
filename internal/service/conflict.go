package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/obs"
	"github.com/pkordes/fleet-hos/internal/repo"
)

// DriveTimeEstimator estimates drive minutes between two points.
// distance.FallbackEstimator is the production implementation.
type DriveTimeEstimator interface {
	EstimateMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error)
}

// ConflictOptions configures a ConflictDetector. Zero values select defaults.
type ConflictOptions struct {
	// DefaultDriveTimeMinutes is used when a job lacks coordinates. 480 when zero.
	DefaultDriveTimeMinutes int
	// WindowDays is the default timeline length. 7 when zero.
	WindowDays int
	// WorkerLimit bounds concurrent estimates and HOS lookups.
	WorkerLimit int
	// FailurePolicy decides whether one driver's failed HOS lookup fails a
	// timeline listing. FailureSkip when empty.
	FailurePolicy FailurePolicy
}

// openEndedLookback is the shortest span a job without a scheduled end is
// assumed to cover when looking for work carried into a window.
const openEndedLookback = 24 * time.Hour

// ConflictDetector builds driver timelines, finds overlapping jobs and checks
// whether the combined schedule fits the driver's remaining HOS.
type ConflictDetector struct {
	jobs      repo.JobRepo
	hos       *HOSCalculator
	estimator DriveTimeEstimator
	opts      ConflictOptions
	log       *slog.Logger
}

// NewConflictDetector constructs a ConflictDetector. estimator may be nil, in
// which case every job uses the default drive time.
func NewConflictDetector(jobs repo.JobRepo, hos *HOSCalculator, estimator DriveTimeEstimator, opts ConflictOptions, log *slog.Logger) *ConflictDetector {
	if opts.DefaultDriveTimeMinutes <= 0 {
		opts.DefaultDriveTimeMinutes = 480
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 7
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = FailureSkip
	}
	return &ConflictDetector{jobs: jobs, hos: hos, estimator: estimator, opts: opts, log: log}
}

// BuildDriverTimelines returns one timeline per driver with active jobs in
// the filter window (today plus 7 days by default). Unassigned jobs are left out.
// Under the skip policy a driver whose HOS lookup fails keeps a timeline with
// conflicts but no feasibility check, marked hos_unavailable.
func (c *ConflictDetector) BuildDriverTimelines(ctx context.Context, tenant domain.Tenant, f domain.TimelineFilter) (_ []domain.DriverTimeline, err error) {
	defer obs.Time(ctx, c.log, "service.ConflictDetector.BuildDriverTimelines")(&err)

	if err := tenant.Validate(); err != nil {
		return nil, fmt.Errorf("service.ConflictDetector.BuildDriverTimelines: %w", err)
	}

	from := f.StartDate
	if from.IsZero() {
		from = c.hos.Today()
	}
	to := f.EndDate
	if to.IsZero() {
		to = from.AddDate(0, 0, c.opts.WindowDays)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("service.ConflictDetector.BuildDriverTimelines: %w: end_date must be after start_date", domain.ErrValidation)
	}

	var driverID *uuid.UUID
	if f.DriverID != uuid.Nil {
		driverID = &f.DriverID
	}

	timelines, err := c.loadTimelines(ctx, tenant, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.ConflictDetector.BuildDriverTimelines: %w", err)
	}

	err = forEach(ctx, c.opts.WorkerLimit, len(timelines), func(ctx context.Context, i int) error {
		err := c.evaluate(ctx, tenant, &timelines[i])
		if err == nil {
			return nil
		}
		if c.opts.FailurePolicy == FailureAbort || ctx.Err() != nil {
			return err
		}
		c.log.WarnContext(ctx, "timeline without HOS check", "driver_id", timelines[i].DriverID, "error", err)
		timelines[i].Degraded = addMarker(timelines[i].Degraded, domain.DegradedHOSUnavailable)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.ConflictDetector.BuildDriverTimelines: %w", err)
	}
	return timelines, nil
}

// CheckAssignmentConflicts reports the conflicts and HOS violations the
// requested load or route would cause on the driver's schedule.
func (c *ConflictDetector) CheckAssignmentConflicts(ctx context.Context, tenant domain.Tenant, req domain.AssignmentRequest) (_ domain.AssignmentCheck, err error) {
	defer obs.Time(ctx, c.log, "service.ConflictDetector.CheckAssignmentConflicts")(&err)

	if err := tenant.Validate(); err != nil {
		return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w", err)
	}
	if req.DriverID == uuid.Nil {
		return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w: driver_id is required", domain.ErrValidation)
	}
	if req.LoadID == uuid.Nil && req.RouteID == uuid.Nil {
		return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w: load_id or route_id is required", domain.ErrValidation)
	}

	var job domain.ScheduledJob
	if req.LoadID != uuid.Nil {
		job, err = c.jobs.GetLoad(ctx, tenant.CompanyID, req.LoadID)
		err = domain.AsDataAccess("repo.JobRepo.GetLoad", err)
	} else {
		job, err = c.jobs.GetRoute(ctx, tenant.CompanyID, req.RouteID)
		err = domain.AsDataAccess("repo.JobRepo.GetRoute", err)
	}
	if err != nil {
		return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w", err)
	}

	degraded, err := c.materialize(ctx, &job)
	if err != nil {
		return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w", err)
	}

	check, err := c.checkJob(ctx, tenant, req.DriverID, job)
	if err != nil {
		return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w", err)
	}
	if degraded {
		check.Degraded = addMarker(check.Degraded, domain.DegradedDriveTimeEstimation)
	}
	return check, nil
}

// checkJob places an already materialised candidate on the driver's
// timeline, replacing any existing copy of the same job, and returns the
// candidate's own conflicts and violations. The window is the default one,
// widened to cover the candidate.
func (c *ConflictDetector) checkJob(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, candidate domain.ScheduledJob) (domain.AssignmentCheck, error) {
	from := c.hos.Today()
	if start := c.hos.day(candidate.ScheduledStart); start.Before(from) {
		from = start
	}
	to := from.AddDate(0, 0, c.opts.WindowDays)
	if end := candidate.End(); !end.Before(to) {
		to = c.hos.day(end).AddDate(0, 0, 1)
	}

	timelines, err := c.loadTimelines(ctx, tenant, &driverID, from, to)
	if err != nil {
		return domain.AssignmentCheck{}, err
	}

	tl := domain.DriverTimeline{DriverID: driverID}
	if len(timelines) > 0 {
		tl = timelines[0]
	}

	jobs := make([]domain.ScheduledJob, 0, len(tl.Jobs)+1)
	for _, j := range tl.Jobs {
		if !j.SameJob(candidate) {
			jobs = append(jobs, j)
		}
	}
	candidate.DriverID = driverID
	candidate.DriverName = tl.DriverName
	tl.Jobs = append(jobs, candidate)

	if err := c.evaluate(ctx, tenant, &tl); err != nil {
		return domain.AssignmentCheck{}, err
	}

	check := domain.AssignmentCheck{Conflicts: []string{}, HOSViolations: []string{}, Degraded: tl.Degraded}
	for _, j := range tl.Jobs {
		if !j.SameJob(candidate) {
			continue
		}
		check.Conflicts = append(check.Conflicts, j.Conflicts...)
		if j.HOSViolation {
			check.HOSViolations = append(check.HOSViolations, tl.Violations...)
		}
		break
	}
	check.CanAssign = len(check.Conflicts) == 0 && len(check.HOSViolations) == 0
	return check, nil
}

// loadTimelines fetches and materialises the jobs that start before to and
// are still running at from, grouping them per driver in order of each
// driver's first job. The timelines are not yet evaluated.
func (c *ConflictDetector) loadTimelines(ctx context.Context, tenant domain.Tenant, driverID *uuid.UUID, from, to time.Time) ([]domain.DriverTimeline, error) {
	openEnded := time.Duration(c.opts.DefaultDriveTimeMinutes) * time.Minute
	if openEnded < openEndedLookback {
		openEnded = openEndedLookback
	}
	jobs, err := c.jobs.ListJobs(ctx, tenant.CompanyID, repo.JobFilter{
		DriverID:  driverID,
		From:      from,
		To:        to,
		OpenEnded: openEnded,
		Statuses:  domain.ActiveJobStatuses,
	})
	if err != nil {
		return nil, domain.AsDataAccess("repo.JobRepo.ListJobs", err)
	}

	degraded := make([]bool, len(jobs))
	err = forEach(ctx, c.opts.WorkerLimit, len(jobs), func(ctx context.Context, i int) error {
		var err error
		degraded[i], err = c.materialize(ctx, &jobs[i])
		return err
	})
	if err != nil {
		return nil, err
	}

	var timelines []domain.DriverTimeline
	index := make(map[uuid.UUID]int)
	for k, j := range jobs {
		if j.DriverID == uuid.Nil || !inWindow(j, from, to) {
			continue
		}
		i, ok := index[j.DriverID]
		if !ok {
			i = len(timelines)
			index[j.DriverID] = i
			timelines = append(timelines, domain.DriverTimeline{DriverID: j.DriverID, DriverName: j.DriverName})
		}
		timelines[i].Jobs = append(timelines[i].Jobs, j)
		if degraded[k] {
			timelines[i].Degraded = addMarker(timelines[i].Degraded, domain.DegradedDriveTimeEstimation)
		}
	}
	return timelines, nil
}

// inWindow reports whether a materialised job starts before to and is still
// running at from. A job ending exactly at from is over.
func inWindow(j domain.ScheduledJob, from, to time.Time) bool {
	if !j.ScheduledStart.Before(to) {
		return false
	}
	return !j.ScheduledStart.Before(from) || j.End().After(from)
}

func addMarker(markers []string, m string) []string {
	for _, have := range markers {
		if have == m {
			return markers
		}
	}
	return append(markers, m)
}

// materialize fills drive time, end and duration for a raw job and clears
// its computed fields. Estimator failures fall back to the default drive
// time and report degraded; only cancellation is returned as an error.
func (c *ConflictDetector) materialize(ctx context.Context, j *domain.ScheduledJob) (degraded bool, err error) {
	drive := float64(c.opts.DefaultDriveTimeMinutes)
	if c.estimator != nil && j.OriginCoords != nil && j.DestinationCoords != nil {
		minutes, err := c.estimator.EstimateMinutes(ctx, *j.OriginCoords, *j.DestinationCoords)
		switch {
		case err == nil:
			drive = minutes
		case ctx.Err() != nil:
			return false, ctx.Err()
		default:
			c.log.WarnContext(ctx, "drive time estimate failed, using default",
				"job_id", j.ID, "default_minutes", c.opts.DefaultDriveTimeMinutes, "error", err)
			degraded = true
		}
	}

	j.DriveTimeMinutes = int(math.Round(drive))
	if j.ScheduledEnd == nil || j.ScheduledEnd.Before(j.ScheduledStart) {
		end := j.ScheduledStart.Add(time.Duration(j.DriveTimeMinutes) * time.Minute)
		j.ScheduledEnd = &end
	}
	j.EstimatedDurationMinutes = int(math.Round(j.ScheduledEnd.Sub(j.ScheduledStart).Minutes()))
	j.Conflicts = []string{}
	j.HOSViolation = false
	return degraded, nil
}

// evaluate sorts the timeline, runs pairwise conflict detection and the HOS
// feasibility check against the driver's snapshot for today.
func (c *ConflictDetector) evaluate(ctx context.Context, tenant domain.Tenant, tl *domain.DriverTimeline) error {
	sort.SliceStable(tl.Jobs, func(a, b int) bool {
		return tl.Jobs[a].ScheduledStart.Before(tl.Jobs[b].ScheduledStart)
	})

	tl.TotalDriveTimeMinutes, tl.TotalDurationMinutes = 0, 0
	for i := range tl.Jobs {
		tl.Jobs[i].Conflicts = []string{}
		tl.Jobs[i].HOSViolation = false
		tl.TotalDriveTimeMinutes += tl.Jobs[i].DriveTimeMinutes
		tl.TotalDurationMinutes += tl.Jobs[i].EstimatedDurationMinutes
	}
	tl.Conflicts = DetectConflicts(tl.Jobs)
	tl.Violations = []string{}
	tl.HOSViolations = 0

	snap, err := c.hos.Compute(ctx, tenant, tl.DriverID, time.Time{})
	if err != nil {
		return err
	}
	tl.Violations = Feasibility(tl.TotalDriveTimeMinutes, tl.TotalDurationMinutes, snap)
	tl.HOSViolations = len(tl.Violations)
	if tl.HOSViolations > 0 {
		for i := range tl.Jobs {
			tl.Jobs[i].HOSViolation = true
		}
	}
	return nil
}

// DetectConflicts compares every unordered pair of jobs with half-open
// [start, end) semantics. Both jobs of a conflicting pair record the other's
// display id. It returns the number of conflicting pairs.
func DetectConflicts(jobs []domain.ScheduledJob) int {
	pairs := 0
	for i := 0; i < len(jobs); i++ {
		for k := i + 1; k < len(jobs); k++ {
			if !Overlaps(jobs[i], jobs[k]) {
				continue
			}
			jobs[i].Conflicts = append(jobs[i].Conflicts, jobs[k].DisplayID())
			jobs[k].Conflicts = append(jobs[k].Conflicts, jobs[i].DisplayID())
			pairs++
		}
	}
	return pairs
}

// Overlaps reports whether a and b share any instant of their half-open windows.
func Overlaps(a, b domain.ScheduledJob) bool {
	aStart, aEnd := a.ScheduledStart, a.End()
	bStart, bEnd := b.ScheduledStart, b.End()
	return (!bStart.Before(aStart) && bStart.Before(aEnd)) ||
		(!aStart.Before(bStart) && aStart.Before(bEnd))
}

// Feasibility compares a schedule's total drive and duration minutes with the
// snapshot's remaining hours and describes each shortfall.
func Feasibility(driveMinutes, durationMinutes int, snap domain.HOSSnapshot) []string {
	violations := []string{}
	driveH := float64(driveMinutes) / 60
	durationH := float64(durationMinutes) / 60
	if driveH > snap.RemainingDriving {
		violations = append(violations, fmt.Sprintf("Insufficient drive time: requires %.1fh, %.1fh available", round1(driveH), snap.RemainingDriving))
	}
	if durationH > snap.RemainingOnDuty {
		violations = append(violations, fmt.Sprintf("Insufficient on-duty time: requires %.1fh, %.1fh available", round1(durationH), snap.RemainingOnDuty))
	}
	return violations
}
