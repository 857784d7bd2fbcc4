package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/repo"
)

func TestDriverRepo_ListActive(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)
	truck := insertTruck(t, tx, company, "T-7", "reefer")
	insertDriver(t, tx, company, "Zed", nil, nil, nil)
	insertDriver(t, tx, company, "Ana", &truck, f64(32.7), f64(-96.8))
	_, err := tx.Exec(ctx, `INSERT INTO drivers (company_id, name, status) VALUES ($1, 'Gone', 'inactive')`, company)
	require.NoError(t, err)

	got, err := repo.NewDriverRepo(tx).ListActive(ctx, company)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana", got[0].Name)
	assert.Equal(t, "T-7", got[0].TruckNumber)
	require.NotNil(t, got[0].LastLocation)
	assert.Nil(t, got[1].LastLocation)
}

func TestDriverRepo_GetByID_NotFound(t *testing.T) {
	tx := newTestTx(t)
	company := insertCompany(t, tx)

	_, err := repo.NewDriverRepo(tx).GetByID(context.Background(), company, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTruckRepo_GetByID(t *testing.T) {
	tx := newTestTx(t)
	company := insertCompany(t, tx)
	truck := insertTruck(t, tx, company, "T-1", "Dry_Van")

	got, err := repo.NewTruckRepo(tx).GetByID(context.Background(), company, truck)

	require.NoError(t, err)
	assert.Equal(t, "Dry_Van", got.EquipmentType)
}

func TestProximityRepo_FindNearbyDrivers(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)

	near := insertDriver(t, tx, company, "Near", nil, f64(32.78), f64(-96.80))
	tired := insertDriver(t, tx, company, "Tired", nil, f64(32.78), f64(-96.81))
	insertDriver(t, tx, company, "Far", nil, f64(40.71), f64(-74.00))
	insertDriver(t, tx, company, "Lost", nil, nil, nil)

	_, err := tx.Exec(ctx, `
		INSERT INTO eld_logs (company_id, driver_id, log_date, status, start_time, end_time, duration_minutes)
		VALUES ($1, $2, CURRENT_DATE, 'driving', now() - interval '9 hours', now(), 540)`, company, tired)
	require.NoError(t, err)
	load := insertLoad(t, tx, company, "SH-1", nil, time.Now(), 32.7767, -96.7970)

	got, err := repo.NewProximityRepo(tx).FindNearbyDrivers(ctx, company, load, domain.ProximityQuery{
		MaxRadiusKm:    100 * 1.60934,
		MinDriveHours:  4,
		MinOnDutyHours: 6,
		Limit:          20,
	})

	require.NoError(t, err)
	require.Len(t, got, 1, "far, unlocated and low-hours drivers are filtered out")
	assert.Equal(t, near, got[0].DriverID)
	assert.Less(t, got[0].DistanceMiles, 1.0)
	assert.InDelta(t, 11.0, got[0].RemainingDriveHours, 1e-9)
	assert.Equal(t, "off_duty", got[0].CurrentStatus)
}

func TestPerformanceRepo_Scores(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)
	rated := insertDriver(t, tx, company, "Rated", nil, nil, nil)
	unrated := insertDriver(t, tx, company, "Unrated", nil, nil, nil)
	_, err := tx.Exec(ctx, `INSERT INTO driver_performance (driver_id, company_id, score) VALUES ($1, $2, 87.5)`, rated, company)
	require.NoError(t, err)

	got, err := repo.NewPerformanceRepo(tx).Scores(ctx, company, []uuid.UUID{rated, unrated})

	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Equal(t, 87.5, got.Scores[rated])
	_, ok := got.Scores[unrated]
	assert.False(t, ok)
}

func TestPerformanceRepo_Scores_MissingTableIsUnavailable(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)
	_, err := tx.Exec(ctx, `DROP TABLE driver_performance`)
	require.NoError(t, err)

	got, err := repo.NewPerformanceRepo(tx).Scores(ctx, company, []uuid.UUID{uuid.New()})

	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestViolationRepo_RecordAndCount(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	company := insertCompany(t, tx)
	driver := insertDriver(t, tx, company, "Ana", nil, nil, nil)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	r := repo.NewViolationRepo(tx)
	vs := []domain.Violation{
		{DriverID: driver, Date: day, Kind: domain.ViolationDrivingLimit, Message: "Driving limit exceeded: 11.50 hours (max 11)"},
		{DriverID: driver, Date: day, Kind: domain.ViolationBreakRequired, Message: "Break required: 30 minutes off-duty needed after 8 hours driving"},
	}
	n, err := r.Record(ctx, company, vs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.Record(ctx, company, vs)
	require.NoError(t, err)
	assert.Zero(t, n, "re-recording the same day is idempotent")

	count, err := r.CountUnresolved(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
