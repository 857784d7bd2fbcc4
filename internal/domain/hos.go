package domain

import (
	"time"

	"github.com/google/uuid"
)

// HOSSnapshot is the computed hours-of-service state of a driver for one day.
// It is never persisted. Hour values are rounded to 2 decimals.
type HOSSnapshot struct {
	DriverID         uuid.UUID `json:"driver_id"`
	Date             time.Time `json:"date"`
	DrivingHours     float64   `json:"driving_hours"`
	OnDutyHours      float64   `json:"on_duty_hours"`
	OffDutyHours     float64   `json:"off_duty_hours"`
	SleeperHours     float64   `json:"sleeper_berth_hours"`
	RemainingDriving float64   `json:"remaining_driving"`
	RemainingOnDuty  float64   `json:"remaining_on_duty"`
	NeedsBreak       bool      `json:"needs_break"`
	Violations       []string  `json:"violations"`
	CanDrive         bool      `json:"can_drive"`
}

// WeeklyHOS is the 70-hour/8-day cycle summary. It is computed separately
// from the daily snapshot because it scans eight days of logs.
type WeeklyHOS struct {
	DriverID             uuid.UUID `json:"driver_id"`
	WindowStart          time.Time `json:"window_start"`
	WindowEnd            time.Time `json:"window_end"`
	WeeklyOnDutyHours    float64   `json:"weekly_on_duty_hours"`
	RemainingWeeklyHours float64   `json:"remaining_weekly_hours"`
	CycleLimitHours      float64   `json:"cycle_limit_hours"`
}

// Violation kinds. A driver has at most one recorded violation of each kind
// per day.
const (
	ViolationDrivingLimit  = "driving_limit"
	ViolationOnDutyLimit   = "on_duty_limit"
	ViolationBreakRequired = "break_required"
)

// Violation is a persisted HOS violation row. Message is the latest wording
// for its kind.
type Violation struct {
	ID       uuid.UUID `json:"id"`
	DriverID uuid.UUID `json:"driver_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Kind     string    `json:"kind" validate:"required,oneof=driving_limit on_duty_limit break_required"`
	Message  string    `json:"message" validate:"required"`
	Resolved bool      `json:"resolved"`
}
