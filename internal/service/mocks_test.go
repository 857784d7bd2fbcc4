package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/repo"
	"github.com/pkordes/fleet-hos/internal/service"
)

// ---- mock repos -------------------------------------------------------------
// Each mock is a hand-written double with one function field per method.
// Set only the ones a test needs; calling an unset one panics, which is the
// failure we want when a service touches a store it should not.

type mockDutyLogRepo struct {
	listIntervals func(ctx context.Context, companyID, driverID uuid.UUID, from, to time.Time) ([]domain.DutyInterval, error)
	appendFn      func(ctx context.Context, companyID uuid.UUID, iv domain.DutyInterval) (domain.DutyInterval, error)
}

func (m *mockDutyLogRepo) ListIntervals(ctx context.Context, companyID, driverID uuid.UUID, from, to time.Time) ([]domain.DutyInterval, error) {
	return m.listIntervals(ctx, companyID, driverID, from, to)
}
func (m *mockDutyLogRepo) Append(ctx context.Context, companyID uuid.UUID, iv domain.DutyInterval) (domain.DutyInterval, error) {
	return m.appendFn(ctx, companyID, iv)
}

var _ repo.DutyLogRepo = (*mockDutyLogRepo)(nil)

type mockJobRepo struct {
	listJobs func(ctx context.Context, companyID uuid.UUID, f repo.JobFilter) ([]domain.ScheduledJob, error)
	getLoad  func(ctx context.Context, companyID, loadID uuid.UUID) (domain.ScheduledJob, error)
	getRoute func(ctx context.Context, companyID, routeID uuid.UUID) (domain.ScheduledJob, error)
}

func (m *mockJobRepo) ListJobs(ctx context.Context, companyID uuid.UUID, f repo.JobFilter) ([]domain.ScheduledJob, error) {
	return m.listJobs(ctx, companyID, f)
}
func (m *mockJobRepo) GetLoad(ctx context.Context, companyID, loadID uuid.UUID) (domain.ScheduledJob, error) {
	return m.getLoad(ctx, companyID, loadID)
}
func (m *mockJobRepo) GetRoute(ctx context.Context, companyID, routeID uuid.UUID) (domain.ScheduledJob, error) {
	return m.getRoute(ctx, companyID, routeID)
}

var _ repo.JobRepo = (*mockJobRepo)(nil)

type mockDriverRepo struct {
	listActive func(ctx context.Context, companyID uuid.UUID) ([]domain.Driver, error)
	getByID    func(ctx context.Context, companyID, driverID uuid.UUID) (domain.Driver, error)
}

func (m *mockDriverRepo) ListActive(ctx context.Context, companyID uuid.UUID) ([]domain.Driver, error) {
	return m.listActive(ctx, companyID)
}
func (m *mockDriverRepo) GetByID(ctx context.Context, companyID, driverID uuid.UUID) (domain.Driver, error) {
	return m.getByID(ctx, companyID, driverID)
}

var _ repo.DriverRepo = (*mockDriverRepo)(nil)

type mockTruckRepo struct {
	getByID func(ctx context.Context, companyID, truckID uuid.UUID) (domain.Truck, error)
}

func (m *mockTruckRepo) GetByID(ctx context.Context, companyID, truckID uuid.UUID) (domain.Truck, error) {
	return m.getByID(ctx, companyID, truckID)
}

var _ repo.TruckRepo = (*mockTruckRepo)(nil)

type mockProximityRepo struct {
	findNearby func(ctx context.Context, companyID, loadID uuid.UUID, q domain.ProximityQuery) ([]domain.NearbyDriver, error)
}

func (m *mockProximityRepo) FindNearbyDrivers(ctx context.Context, companyID, loadID uuid.UUID, q domain.ProximityQuery) ([]domain.NearbyDriver, error) {
	return m.findNearby(ctx, companyID, loadID, q)
}

var _ repo.ProximityRepo = (*mockProximityRepo)(nil)

type mockPerformanceRepo struct {
	scores func(ctx context.Context, companyID uuid.UUID, driverIDs []uuid.UUID) (domain.PerformanceScores, error)
}

func (m *mockPerformanceRepo) Scores(ctx context.Context, companyID uuid.UUID, driverIDs []uuid.UUID) (domain.PerformanceScores, error) {
	return m.scores(ctx, companyID, driverIDs)
}

var _ repo.PerformanceRepo = (*mockPerformanceRepo)(nil)

type mockViolationRepo struct {
	countUnresolved func(ctx context.Context, companyID uuid.UUID) (int, error)
	record          func(ctx context.Context, companyID uuid.UUID, vs []domain.Violation) (int, error)
}

func (m *mockViolationRepo) CountUnresolved(ctx context.Context, companyID uuid.UUID) (int, error) {
	return m.countUnresolved(ctx, companyID)
}
func (m *mockViolationRepo) Record(ctx context.Context, companyID uuid.UUID, vs []domain.Violation) (int, error) {
	return m.record(ctx, companyID, vs)
}

var _ repo.ViolationRepo = (*mockViolationRepo)(nil)

// stubEstimator answers every estimate with minutes, or err when set.
type stubEstimator struct {
	minutes float64
	err     error
}

func (s stubEstimator) EstimateMinutes(context.Context, domain.Coordinates, domain.Coordinates) (float64, error) {
	return s.minutes, s.err
}

var _ service.DriveTimeEstimator = stubEstimator{}

// ---- helpers ---------------------------------------------------------------

// now is 15:00 UTC on 2025-06-10; "today" for every service under test.
var now = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

var today = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func testTenant() domain.Tenant {
	return domain.Tenant{CompanyID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// interval builds a closed interval starting at start and lasting minutes.
func interval(status domain.DutyStatus, start time.Time, minutes int) domain.DutyInterval {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return domain.DutyInterval{
		ID:              uuid.New(),
		Status:          status,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &minutes,
	}
}

// dayOf lays out consecutive intervals from 05:00 on today.
func dayOf(spans ...span) []domain.DutyInterval {
	at := today.Add(5 * time.Hour)
	out := make([]domain.DutyInterval, 0, len(spans))
	for _, s := range spans {
		out = append(out, interval(s.status, at, s.minutes))
		at = at.Add(time.Duration(s.minutes) * time.Minute)
	}
	return out
}

type span struct {
	status  domain.DutyStatus
	minutes int
}

func drive(m int) span   { return span{domain.DutyDriving, m} }
func work(m int) span    { return span{domain.DutyOnDuty, m} }
func rest(m int) span    { return span{domain.DutyOffDuty, m} }
func sleeper(m int) span { return span{domain.DutySleeperBerth, m} }

// logsByDriver serves each driver's intervals from a map; unknown drivers
// have no logs.
func logsByDriver(logs map[uuid.UUID][]domain.DutyInterval) *mockDutyLogRepo {
	return &mockDutyLogRepo{
		listIntervals: func(_ context.Context, _, driverID uuid.UUID, _, _ time.Time) ([]domain.DutyInterval, error) {
			return logs[driverID], nil
		},
	}
}

func newHOS(logs repo.DutyLogRepo, rule service.BreakRule) *service.HOSCalculator {
	return service.NewHOSCalculator(logs, service.HOSOptions{BreakRule: rule, Now: clock}, discardLogger())
}

func coords(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lon: lon}
}

func at(hour, minute int) time.Time {
	return today.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// job builds an assigned load for driverID between start and end.
func job(ref string, driverID uuid.UUID, start, end time.Time) domain.ScheduledJob {
	return domain.ScheduledJob{
		ID:             uuid.New(),
		Type:           domain.JobLoad,
		Reference:      ref,
		DriverID:       driverID,
		DriverName:     "Driver " + ref,
		ScheduledStart: start,
		ScheduledEnd:   &end,
		Status:         "assigned",
	}
}
