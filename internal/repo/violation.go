package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// ViolationRepo stores recorded HOS violations.
type ViolationRepo interface {
	// CountUnresolved returns the number of unresolved violation rows.
	CountUnresolved(ctx context.Context, companyID uuid.UUID) (int, error)

	// Record upserts violations keyed by driver, date and kind. A changed
	// message replaces the stored one. It returns the number of new rows.
	Record(ctx context.Context, companyID uuid.UUID, vs []domain.Violation) (int, error)
}

type pgViolationRepo struct {
	db db
}

// NewViolationRepo constructs a ViolationRepo backed by the provided db connection.
func NewViolationRepo(db db) ViolationRepo {
	return &pgViolationRepo{db: db}
}

func (r *pgViolationRepo) CountUnresolved(ctx context.Context, companyID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM eld_violations WHERE company_id = @company_id AND NOT resolved`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"company_id": companyID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ViolationRepo.CountUnresolved: %w", err)
	}
	return int(n), nil
}

func (r *pgViolationRepo) Record(ctx context.Context, companyID uuid.UUID, vs []domain.Violation) (int, error) {
	const q = `
		INSERT INTO eld_violations (company_id, driver_id, violation_date, kind, message)
		VALUES (@company_id, @driver_id, @violation_date::date, @kind, @message)
		ON CONFLICT (driver_id, violation_date, kind) DO UPDATE
		    SET message = EXCLUDED.message, updated_at = now()
		    WHERE eld_violations.message <> EXCLUDED.message
		RETURNING (xmax = 0)`

	inserted := 0
	for _, v := range vs {
		if err := domain.Validate(v); err != nil {
			return inserted, fmt.Errorf("repo.ViolationRepo.Record: %w", err)
		}
		var isNew bool
		err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
			"company_id":     companyID,
			"driver_id":      v.DriverID,
			"violation_date": v.Date,
			"kind":           v.Kind,
			"message":        v.Message,
		}).Scan(&isNew)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// unchanged
		case err != nil:
			return inserted, fmt.Errorf("repo.ViolationRepo.Record: %w", err)
		case isNew:
			inserted++
		}
	}
	return inserted, nil
}
