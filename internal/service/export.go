package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/obs"
)

// ExportService assembles the flat daily HOS report for a company.
type ExportService struct {
	fleet *FleetAggregator
}

// NewExportService constructs an ExportService that reuses the fleet's
// per-driver snapshot fan-out and failure policy.
func NewExportService(fleet *FleetAggregator) *ExportService {
	return &ExportService{fleet: fleet}
}

// Export returns one ReportRow per active driver for date (today when zero),
// in driver order. Drivers skipped by the failure policy are left out.
func (s *ExportService) Export(ctx context.Context, tenant domain.Tenant, date time.Time) (_ []domain.ReportRow, err error) {
	defer obs.Time(ctx, s.fleet.log, "service.ExportService.Export")(&err)

	if err := tenant.Validate(); err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	snaps, _, err := s.fleet.snapshots(ctx, tenant, date)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ReportRow, 0, len(snaps))
	for _, ds := range snaps {
		rows = append(rows, domain.ReportRow{
			DriverID:         ds.driver.ID.String(),
			DriverName:       ds.driver.Name,
			Status:           ds.driver.Status,
			Truck:            ds.driver.TruckNumber,
			Date:             ds.snap.Date.Format(time.DateOnly),
			DrivingHours:     ds.snap.DrivingHours,
			OnDutyHours:      ds.snap.OnDutyHours,
			RemainingDriving: ds.snap.RemainingDriving,
			RemainingOnDuty:  ds.snap.RemainingOnDuty,
			NeedsBreak:       ds.snap.NeedsBreak,
			CanDrive:         ds.snap.CanDrive,
			Violations:       ds.snap.Violations,
		})
	}
	return rows, nil
}
