package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// ProximityRepo finds drivers near a load's origin via the
// find_nearby_drivers SQL function.
type ProximityRepo interface {
	FindNearbyDrivers(ctx context.Context, companyID, loadID uuid.UUID, q domain.ProximityQuery) ([]domain.NearbyDriver, error)
}

type pgProximityRepo struct {
	db db
}

// NewProximityRepo constructs a ProximityRepo backed by the provided db connection.
func NewProximityRepo(db db) ProximityRepo {
	return &pgProximityRepo{db: db}
}

func (r *pgProximityRepo) FindNearbyDrivers(ctx context.Context, companyID, loadID uuid.UUID, pq domain.ProximityQuery) ([]domain.NearbyDriver, error) {
	const q = `
		SELECT driver_id, driver_name, distance_miles, remaining_drive_hours,
		       remaining_on_duty_hours, current_status, truck_id, COALESCE(truck_number, '')
		FROM find_nearby_drivers(@company_id, @load_id, @radius_km, @min_drive, @min_on_duty, @limit)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"company_id":  companyID,
		"load_id":     loadID,
		"radius_km":   pq.MaxRadiusKm,
		"min_drive":   pq.MinDriveHours,
		"min_on_duty": pq.MinOnDutyHours,
		"limit":       pq.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.ProximityRepo.FindNearbyDrivers: %w", err)
	}
	defer rows.Close()

	var out []domain.NearbyDriver
	for rows.Next() {
		var (
			n       domain.NearbyDriver
			id      pgtype.UUID
			truckID pgtype.UUID
		)
		if err := rows.Scan(&id, &n.DriverName, &n.DistanceMiles, &n.RemainingDriveHours,
			&n.RemainingOnDutyHours, &n.CurrentStatus, &truckID, &n.TruckNumber); err != nil {
			return nil, fmt.Errorf("repo.ProximityRepo.FindNearbyDrivers: scan: %w", err)
		}
		n.DriverID = uuid.UUID(id.Bytes)
		n.TruckID = uuidPtr(truckID)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ProximityRepo.FindNearbyDrivers: rows: %w", err)
	}
	return out, nil
}
