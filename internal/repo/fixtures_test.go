package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-hos/testutil"
)

// newTestTx opens a transaction that is rolled back when the test finishes.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	return testutil.NewTx(t)
}

func insertCompany(t *testing.T, tx pgx.Tx) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := tx.QueryRow(context.Background(),
		`INSERT INTO companies (name) VALUES ('Acme Freight') RETURNING id`).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertTruck(t *testing.T, tx pgx.Tx, companyID uuid.UUID, number, equipment string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := tx.QueryRow(context.Background(),
		`INSERT INTO trucks (company_id, truck_number, equipment_type) VALUES ($1, $2, $3) RETURNING id`,
		companyID, number, equipment).Scan(&id)
	require.NoError(t, err)
	return id
}

// insertDriver adds an active driver. lat/lon may be nil for "no location".
func insertDriver(t *testing.T, tx pgx.Tx, companyID uuid.UUID, name string, truckID *uuid.UUID, lat, lon *float64) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := tx.QueryRow(context.Background(), `
		INSERT INTO drivers (company_id, name, truck_id, last_latitude, last_longitude, last_located_at)
		VALUES ($1, $2, $3, $4, $5, now()) RETURNING id`,
		companyID, name, truckID, lat, lon).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertLoad(t *testing.T, tx pgx.Tx, companyID uuid.UUID, number string, driverID *uuid.UUID, pickup time.Time, originLat, originLon float64) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := tx.QueryRow(context.Background(), `
		INSERT INTO loads (company_id, shipment_number, driver_id, origin, destination,
		                   origin_lat, origin_lon, pickup_time, delivery_time, status, priority, required_equipment)
		VALUES ($1, $2, $3, 'Dallas, TX', 'Austin, TX', $4, $5, $6, $7, 'assigned', 'urgent', 'reefer')
		RETURNING id`,
		companyID, number, driverID, originLat, originLon, pickup, pickup.Add(4*time.Hour)).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertLog(t *testing.T, tx pgx.Tx, companyID, driverID uuid.UUID, status string, start time.Time, minutes int) {
	t.Helper()
	end := start.Add(time.Duration(minutes) * time.Minute)
	_, err := tx.Exec(context.Background(), `
		INSERT INTO eld_logs (company_id, driver_id, log_date, status, start_time, end_time, duration_minutes)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7)`,
		companyID, driverID, start, status, start, end, minutes)
	require.NoError(t, err)
}

func f64(v float64) *float64 { return &v }
