// Package domain contains the core data types for the fleet HOS engine.
// It is imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DutyStatus is the ELD duty-status category of an interval.
type DutyStatus string

const (
	DutyDriving      DutyStatus = "driving"
	DutyOnDuty       DutyStatus = "on_duty"
	DutyOffDuty      DutyStatus = "off_duty"
	DutySleeperBerth DutyStatus = "sleeper_berth"
)

// Valid reports whether s is one of the four known statuses.
func (s DutyStatus) Valid() bool {
	switch s {
	case DutyDriving, DutyOnDuty, DutyOffDuty, DutySleeperBerth:
		return true
	}
	return false
}

// Resting reports whether s counts toward a break (off-duty or sleeper berth).
func (s DutyStatus) Resting() bool {
	return s == DutyOffDuty || s == DutySleeperBerth
}

// DutyInterval is one contiguous span of a duty status for a driver.
// Intervals are immutable once written; corrections are new records.
type DutyInterval struct {
	ID              uuid.UUID  `json:"id"`
	DriverID        uuid.UUID  `json:"driver_id" validate:"required"`
	Date            time.Time  `json:"date"`
	Status          DutyStatus `json:"status" validate:"required,oneof=driving on_duty off_duty sleeper_berth"`
	StartTime       time.Time  `json:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time,omitempty"` // nil while the interval is ongoing
	DurationMinutes *int       `json:"duration_minutes,omitempty" validate:"omitempty,gte=0"`
}

// Minutes returns the interval length in minutes. A recorded duration wins;
// otherwise it is derived from the end time, or from now for an ongoing
// interval. The result is never negative.
func (d DutyInterval) Minutes(now time.Time) float64 {
	if d.DurationMinutes != nil {
		return max(0, float64(*d.DurationMinutes))
	}
	end := now
	if d.EndTime != nil {
		end = *d.EndTime
	}
	return max(0, end.Sub(d.StartTime).Minutes())
}
