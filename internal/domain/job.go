package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobType distinguishes loads from routes on a driver's timeline.
type JobType string

const (
	JobLoad  JobType = "load"
	JobRoute JobType = "route"
)

// PriorityUrgent is the load priority that earns the urgent-load bonus.
const PriorityUrgent = "urgent"

// ActiveJobStatuses are the load and route statuses that occupy a driver's
// schedule. Completed and cancelled work is never placed on a timeline.
var ActiveJobStatuses = []string{"pending", "scheduled", "assigned", "dispatched", "in_progress", "in_transit"}

// ScheduledJob is a load or route assigned, or proposed, to a driver.
// Conflicts and HOSViolation are computed at read time and never stored.
type ScheduledJob struct {
	ID                       uuid.UUID    `json:"id"`
	Type                     JobType      `json:"type"`
	Reference                string       `json:"reference"` // shipment number or route name
	DriverID                 uuid.UUID    `json:"driver_id"`
	DriverName               string       `json:"driver_name,omitempty"`
	TruckID                  *uuid.UUID   `json:"truck_id,omitempty"`
	TruckNumber              string       `json:"truck_number,omitempty"`
	Origin                   string       `json:"origin"`
	Destination              string       `json:"destination"`
	OriginCoords             *Coordinates `json:"origin_coords,omitempty"`
	DestinationCoords        *Coordinates `json:"destination_coords,omitempty"`
	ScheduledStart           time.Time    `json:"scheduled_start"`
	ScheduledEnd             *time.Time   `json:"scheduled_end,omitempty"`
	EstimatedDurationMinutes int          `json:"estimated_duration_minutes"`
	DriveTimeMinutes         int          `json:"drive_time_minutes"`
	Status                   string       `json:"status"`
	Priority                 string       `json:"priority"`
	RequiredEquipment        string       `json:"required_equipment,omitempty"`
	Conflicts                []string     `json:"conflicts"`
	HOSViolation             bool         `json:"hos_violation"`
}

// DisplayID is the identifier other jobs record when they conflict with j.
func (j ScheduledJob) DisplayID() string {
	if j.Reference != "" {
		return j.Reference
	}
	return j.ID.String()
}

// End returns the scheduled end. Callers materialise jobs before use so a
// nil end only shows up on raw store records; it is then treated as start.
func (j ScheduledJob) End() time.Time {
	if j.ScheduledEnd != nil {
		return *j.ScheduledEnd
	}
	return j.ScheduledStart
}

// SameJob reports whether j and other refer to the same load or route.
func (j ScheduledJob) SameJob(other ScheduledJob) bool {
	return j.ID == other.ID && j.Type == other.Type
}

// DriverTimeline is every scheduled job for one driver in a window.
type DriverTimeline struct {
	DriverID              uuid.UUID      `json:"driver_id"`
	DriverName            string         `json:"driver_name"`
	Jobs                  []ScheduledJob `json:"jobs"`
	TotalDriveTimeMinutes int            `json:"total_drive_time_minutes"`
	TotalDurationMinutes  int            `json:"total_duration_minutes"`
	Conflicts             int            `json:"conflicts"`
	HOSViolations         int            `json:"hos_violations"`
	Violations            []string       `json:"violations"`
	Degraded              []string       `json:"degraded,omitempty"`
}

// TimelineFilter narrows BuildDriverTimelines. Zero values select defaults.
type TimelineFilter struct {
	DriverID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

// AssignmentRequest names a driver and exactly one candidate load or route.
type AssignmentRequest struct {
	DriverID uuid.UUID `json:"driver_id"`
	LoadID   uuid.UUID `json:"load_id"`
	RouteID  uuid.UUID `json:"route_id"`
}

// AssignmentCheck is the conflict/feasibility verdict for one candidate job.
type AssignmentCheck struct {
	Conflicts     []string `json:"conflicts"`
	HOSViolations []string `json:"hos_violations"`
	CanAssign     bool     `json:"can_assign"`
	Degraded      []string `json:"degraded,omitempty"`
}
