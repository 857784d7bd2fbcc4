package domain

import (
	"time"

	"github.com/google/uuid"
)

// Compliance bands for FleetHealth.Status.
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
	BandPoor      = "poor"
)

// FleetHealth is the aggregate compliance picture of a company.
type FleetHealth struct {
	TotalDrivers                int         `json:"total_drivers"`
	DriversAvailable            int         `json:"drivers_available"`
	DriversApproachingLimit     int         `json:"drivers_approaching_limit"`
	DriversWithActiveViolations int         `json:"drivers_with_active_violations"`
	UnresolvedViolations        int         `json:"unresolved_violations"`
	ComplianceScore             float64     `json:"compliance_score"`
	Status                      string      `json:"status"`
	Skipped                     []uuid.UUID `json:"skipped"`
	GeneratedAt                 time.Time   `json:"generated_at"`
}

// AlertSeverity is warning or critical.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert kinds.
const (
	AlertLowDriveTime       = "low_drive_time"
	AlertBreakRequired      = "break_required"
	AlertDriveTimeExhausted = "drive_time_exhausted"
)

// Alert is a predictive compliance alert for one driver.
type Alert struct {
	DriverID            uuid.UUID     `json:"driver_id"`
	DriverName          string        `json:"driver_name"`
	Severity            AlertSeverity `json:"severity"`
	Kind                string        `json:"kind"`
	Message             string        `json:"message"`
	RemainingDriveHours float64       `json:"remaining_drive_hours"`
	CreatedAt           time.Time     `json:"created_at"`
}

// AlertSet is the alert list plus drivers skipped under the skip policy.
type AlertSet struct {
	Alerts  []Alert     `json:"alerts"`
	Skipped []uuid.UUID `json:"skipped"`
}
