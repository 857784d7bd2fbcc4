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

// DutyLogRepo supplies ELD duty intervals. It is the DutyLogStore the HOS
// calculator reads from.
type DutyLogRepo interface {
	// ListIntervals returns the driver's intervals whose log date falls in
	// [from, to), ordered by start_time ascending.
	ListIntervals(ctx context.Context, companyID, driverID uuid.UUID, from, to time.Time) ([]domain.DutyInterval, error)

	// Append inserts a new interval. Intervals are never updated.
	Append(ctx context.Context, companyID uuid.UUID, iv domain.DutyInterval) (domain.DutyInterval, error)
}

type pgDutyLogRepo struct {
	db db
}

// NewDutyLogRepo constructs a DutyLogRepo backed by the provided db connection.
func NewDutyLogRepo(db db) DutyLogRepo {
	return &pgDutyLogRepo{db: db}
}

func (r *pgDutyLogRepo) ListIntervals(ctx context.Context, companyID, driverID uuid.UUID, from, to time.Time) ([]domain.DutyInterval, error) {
	const q = `
		SELECT id, driver_id, log_date, status, start_time, end_time, duration_minutes
		FROM eld_logs
		WHERE company_id = @company_id
		  AND driver_id  = @driver_id
		  AND log_date  >= @from::date
		  AND log_date   < @to::date
		ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"company_id": companyID,
		"driver_id":  driverID,
		"from":       from,
		"to":         to,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.DutyLogRepo.ListIntervals: %w", err)
	}
	defer rows.Close()

	var out []domain.DutyInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DutyLogRepo.ListIntervals: scan: %w", err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DutyLogRepo.ListIntervals: rows: %w", err)
	}
	return out, nil
}

func (r *pgDutyLogRepo) Append(ctx context.Context, companyID uuid.UUID, iv domain.DutyInterval) (domain.DutyInterval, error) {
	if err := domain.Validate(iv); err != nil {
		return domain.DutyInterval{}, fmt.Errorf("repo.DutyLogRepo.Append: %w", err)
	}

	const q = `
		INSERT INTO eld_logs (company_id, driver_id, log_date, status, start_time, end_time, duration_minutes)
		VALUES (@company_id, @driver_id, @log_date::date, @status, @start_time, @end_time, @duration_minutes)
		RETURNING id, driver_id, log_date, status, start_time, end_time, duration_minutes`

	logDate := iv.Date
	if logDate.IsZero() {
		logDate = iv.StartTime
	}

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"company_id":       companyID,
		"driver_id":        iv.DriverID,
		"log_date":         logDate,
		"status":           string(iv.Status),
		"start_time":       iv.StartTime,
		"end_time":         iv.EndTime,
		"duration_minutes": iv.DurationMinutes,
	})
	out, err := scanInterval(row)
	if err != nil {
		return domain.DutyInterval{}, fmt.Errorf("repo.DutyLogRepo.Append: %w", err)
	}
	return out, nil
}

func scanInterval(s scanner) (domain.DutyInterval, error) {
	var (
		iv       domain.DutyInterval
		id       pgtype.UUID
		driverID pgtype.UUID
		logDate  pgtype.Date
		status   string
		end      pgtype.Timestamptz
		duration pgtype.Int4
	)
	if err := s.Scan(&id, &driverID, &logDate, &status, &iv.StartTime, &end, &duration); err != nil {
		return domain.DutyInterval{}, mapNoRows(err)
	}

	iv.ID = uuid.UUID(id.Bytes)
	iv.DriverID = uuid.UUID(driverID.Bytes)
	iv.Date = logDate.Time
	iv.Status = domain.DutyStatus(status)
	iv.EndTime = timePtr(end)
	if duration.Valid {
		d := int(duration.Int32)
		iv.DurationMinutes = &d
	}
	if err := domain.Validate(iv); err != nil {
		return domain.DutyInterval{}, err
	}
	return iv, nil
}
