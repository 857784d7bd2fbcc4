package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// JobFilter selects loads and routes for timeline building. A job matches
// when it starts before To and is still running at From, so overnight work
// carried into the window is included.
type JobFilter struct {
	DriverID *uuid.UUID // nil selects every driver
	From     time.Time
	To       time.Time // exclusive, compared against the scheduled start
	// OpenEnded is how long a job without a scheduled end is assumed to
	// run when deciding whether it reaches From.
	OpenEnded time.Duration
	Statuses  []string
}

// JobRepo materialises loads and routes as ScheduledJobs.
type JobRepo interface {
	// ListJobs returns loads and routes matching f, ordered by scheduled start.
	ListJobs(ctx context.Context, companyID uuid.UUID, f JobFilter) ([]domain.ScheduledJob, error)

	// GetLoad returns a single load. Returns domain.ErrNotFound if absent.
	GetLoad(ctx context.Context, companyID, loadID uuid.UUID) (domain.ScheduledJob, error)

	// GetRoute returns a single route. Returns domain.ErrNotFound if absent.
	GetRoute(ctx context.Context, companyID, routeID uuid.UUID) (domain.ScheduledJob, error)
}

type pgJobRepo struct {
	db db
}

// NewJobRepo constructs a JobRepo backed by the provided db connection.
func NewJobRepo(db db) JobRepo {
	return &pgJobRepo{db: db}
}

// Both selects project the same column list so scanJob serves either.
const (
	loadSelect = `
		SELECT 'load', l.id, l.shipment_number, l.driver_id, COALESCE(d.name, ''),
		       l.truck_id, COALESCE(t.truck_number, ''), l.origin, l.destination,
		       l.origin_lat, l.origin_lon, l.destination_lat, l.destination_lon,
		       l.pickup_time, l.delivery_time, l.status, l.priority, l.required_equipment
		FROM loads l
		LEFT JOIN drivers d ON d.id = l.driver_id
		LEFT JOIN trucks t  ON t.id = l.truck_id`

	routeSelect = `
		SELECT 'route', r.id, r.name, r.driver_id, COALESCE(d.name, ''),
		       r.truck_id, COALESCE(t.truck_number, ''), r.origin, r.destination,
		       r.origin_lat, r.origin_lon, r.destination_lat, r.destination_lon,
		       r.scheduled_start, r.scheduled_end, r.status, r.priority, ''
		FROM routes r
		LEFT JOIN drivers d ON d.id = r.driver_id
		LEFT JOIN trucks t  ON t.id = r.truck_id`
)

func (r *pgJobRepo) ListJobs(ctx context.Context, companyID uuid.UUID, f JobFilter) ([]domain.ScheduledJob, error) {
	q := loadSelect + `
		WHERE l.company_id = @company_id
		  AND l.pickup_time < @to
		  AND (l.pickup_time >= @from
		       OR COALESCE(l.delivery_time, l.pickup_time + make_interval(mins => @open_minutes::int)) > @from)
		  AND l.status = ANY(@statuses::text[])
		  AND (@driver_id::uuid IS NULL OR l.driver_id = @driver_id::uuid)
		UNION ALL` + routeSelect + `
		WHERE r.company_id = @company_id
		  AND r.scheduled_start < @to
		  AND (r.scheduled_start >= @from
		       OR COALESCE(r.scheduled_end, r.scheduled_start + make_interval(mins => @open_minutes::int)) > @from)
		  AND r.status = ANY(@statuses::text[])
		  AND (@driver_id::uuid IS NULL OR r.driver_id = @driver_id::uuid)
		ORDER BY 14 ASC, 2 ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"company_id":   companyID,
		"from":         f.From,
		"to":           f.To,
		"open_minutes": int(f.OpenEnded.Minutes()),
		"statuses":     f.Statuses,
		"driver_id":    f.DriverID,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.JobRepo.ListJobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.JobRepo.ListJobs: scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.JobRepo.ListJobs: rows: %w", err)
	}
	return jobs, nil
}

func (r *pgJobRepo) GetLoad(ctx context.Context, companyID, loadID uuid.UUID) (domain.ScheduledJob, error) {
	q := loadSelect + ` WHERE l.company_id = @company_id AND l.id = @id`

	j, err := scanJob(r.db.QueryRow(ctx, q, pgx.NamedArgs{"company_id": companyID, "id": loadID}))
	if err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("repo.JobRepo.GetLoad: %w", err)
	}
	return j, nil
}

func (r *pgJobRepo) GetRoute(ctx context.Context, companyID, routeID uuid.UUID) (domain.ScheduledJob, error) {
	q := routeSelect + ` WHERE r.company_id = @company_id AND r.id = @id`

	j, err := scanJob(r.db.QueryRow(ctx, q, pgx.NamedArgs{"company_id": companyID, "id": routeID}))
	if err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("repo.JobRepo.GetRoute: %w", err)
	}
	return j, nil
}

func scanJob(s scanner) (domain.ScheduledJob, error) {
	var (
		j                      domain.ScheduledJob
		jobType                string
		id, driverID, truckID  pgtype.UUID
		oLat, oLon, dLat, dLon pgtype.Float8
		end                    pgtype.Timestamptz
	)
	err := s.Scan(&jobType, &id, &j.Reference, &driverID, &j.DriverName,
		&truckID, &j.TruckNumber, &j.Origin, &j.Destination,
		&oLat, &oLon, &dLat, &dLon,
		&j.ScheduledStart, &end, &j.Status, &j.Priority, &j.RequiredEquipment)
	if err != nil {
		return domain.ScheduledJob{}, mapNoRows(err)
	}

	j.Type = domain.JobType(jobType)
	j.ID = uuid.UUID(id.Bytes)
	if driverID.Valid {
		j.DriverID = uuid.UUID(driverID.Bytes)
	}
	j.TruckID = uuidPtr(truckID)
	j.OriginCoords = coords(oLat, oLon)
	j.DestinationCoords = coords(dLat, dLon)
	j.ScheduledEnd = timePtr(end)
	return j, nil
}
