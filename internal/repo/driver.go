package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// DriverRepo reads the drivers of a company.
type DriverRepo interface {
	// ListActive returns every active driver ordered by name, with their
	// truck and last known location.
	ListActive(ctx context.Context, companyID uuid.UUID) ([]domain.Driver, error)

	// GetByID returns one driver. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, companyID, driverID uuid.UUID) (domain.Driver, error)
}

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

const driverSelect = `
	SELECT d.id, d.name, d.status, d.truck_id, COALESCE(t.truck_number, ''),
	       d.last_latitude, d.last_longitude, d.last_located_at
	FROM drivers d
	LEFT JOIN trucks t ON t.id = d.truck_id`

func (r *pgDriverRepo) ListActive(ctx context.Context, companyID uuid.UUID) ([]domain.Driver, error) {
	q := driverSelect + `
		WHERE d.company_id = @company_id AND d.status = 'active'
		ORDER BY d.name, d.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"company_id": companyID})
	if err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.ListActive: %w", err)
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DriverRepo.ListActive: scan: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.ListActive: rows: %w", err)
	}
	return drivers, nil
}

func (r *pgDriverRepo) GetByID(ctx context.Context, companyID, driverID uuid.UUID) (domain.Driver, error) {
	q := driverSelect + ` WHERE d.company_id = @company_id AND d.id = @id`

	d, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"company_id": companyID, "id": driverID}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return d, nil
}

func scanDriver(s scanner) (domain.Driver, error) {
	var (
		d         domain.Driver
		id        pgtype.UUID
		truckID   pgtype.UUID
		lat, lon  pgtype.Float8
		locatedAt pgtype.Timestamptz
	)
	if err := s.Scan(&id, &d.Name, &d.Status, &truckID, &d.TruckNumber, &lat, &lon, &locatedAt); err != nil {
		return domain.Driver{}, mapNoRows(err)
	}
	d.ID = uuid.UUID(id.Bytes)
	d.TruckID = uuidPtr(truckID)
	d.LastLocation = coords(lat, lon)
	d.LocatedAt = timePtr(locatedAt)
	return d, nil
}

// TruckRepo reads truck equipment for load matching.
type TruckRepo interface {
	// GetByID returns one truck. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, companyID, truckID uuid.UUID) (domain.Truck, error)
}

type pgTruckRepo struct {
	db db
}

// NewTruckRepo constructs a TruckRepo backed by the provided db connection.
func NewTruckRepo(db db) TruckRepo {
	return &pgTruckRepo{db: db}
}

func (r *pgTruckRepo) GetByID(ctx context.Context, companyID, truckID uuid.UUID) (domain.Truck, error) {
	const q = `
		SELECT id, truck_number, equipment_type
		FROM trucks
		WHERE company_id = @company_id AND id = @id`

	var (
		t  domain.Truck
		id pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"company_id": companyID, "id": truckID}).
		Scan(&id, &t.Number, &t.EquipmentType)
	if err != nil {
		return domain.Truck{}, fmt.Errorf("repo.TruckRepo.GetByID: %w", mapNoRows(err))
	}
	t.ID = uuid.UUID(id.Bytes)
	return t, nil
}
