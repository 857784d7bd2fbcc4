package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// PerformanceRepo looks up optional 0..100 driver performance scores.
type PerformanceRepo interface {
	// Scores returns the recorded scores for driverIDs. When the score table
	// does not exist the result has Available=false and a nil error.
	Scores(ctx context.Context, companyID uuid.UUID, driverIDs []uuid.UUID) (domain.PerformanceScores, error)
}

type pgPerformanceRepo struct {
	db db
}

// NewPerformanceRepo constructs a PerformanceRepo backed by the provided db connection.
func NewPerformanceRepo(db db) PerformanceRepo {
	return &pgPerformanceRepo{db: db}
}

func (r *pgPerformanceRepo) Scores(ctx context.Context, companyID uuid.UUID, driverIDs []uuid.UUID) (domain.PerformanceScores, error) {
	const q = `
		SELECT driver_id, score::double precision
		FROM driver_performance
		WHERE company_id = @company_id AND driver_id = ANY(@driver_ids::uuid[])`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"company_id": companyID, "driver_ids": driverIDs})
	if err != nil {
		if isUndefinedTable(err) {
			return domain.PerformanceScores{Available: false}, nil
		}
		return domain.PerformanceScores{}, fmt.Errorf("repo.PerformanceRepo.Scores: %w", err)
	}
	defer rows.Close()

	out := domain.PerformanceScores{Available: true, Scores: make(map[uuid.UUID]float64, len(driverIDs))}
	for rows.Next() {
		var (
			id    pgtype.UUID
			score float64
		)
		if err := rows.Scan(&id, &score); err != nil {
			return domain.PerformanceScores{}, fmt.Errorf("repo.PerformanceRepo.Scores: scan: %w", err)
		}
		out.Scores[uuid.UUID(id.Bytes)] = score
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return domain.PerformanceScores{Available: false}, nil
		}
		return domain.PerformanceScores{}, fmt.Errorf("repo.PerformanceRepo.Scores: rows: %w", err)
	}
	return out, nil
}
