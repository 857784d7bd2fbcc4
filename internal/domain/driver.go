package domain

import (
	"time"

	"github.com/google/uuid"
)

// Driver is an active driver in a company's fleet.
type Driver struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Status       string       `json:"status"`
	TruckID      *uuid.UUID   `json:"truck_id,omitempty"`
	TruckNumber  string       `json:"truck_number,omitempty"`
	LastLocation *Coordinates `json:"last_location,omitempty"`
	LocatedAt    *time.Time   `json:"located_at,omitempty"`
}

// Truck carries the equipment type used for load matching.
type Truck struct {
	ID            uuid.UUID `json:"id"`
	Number        string    `json:"truck_number"`
	EquipmentType string    `json:"equipment_type"`
}

// NearbyDriver is one row of a proximity search.
type NearbyDriver struct {
	DriverID             uuid.UUID  `json:"driver_id"`
	DriverName           string     `json:"driver_name"`
	DistanceMiles        float64    `json:"distance_miles"`
	RemainingDriveHours  float64    `json:"remaining_drive_hours"`
	RemainingOnDutyHours float64    `json:"remaining_on_duty_hours"`
	CurrentStatus        string     `json:"current_status"`
	TruckID              *uuid.UUID `json:"truck_id,omitempty"`
	TruckNumber          string     `json:"truck_number,omitempty"`
}

// ProximityQuery bounds a nearby-driver search. Radius is in kilometres.
type ProximityQuery struct {
	MaxRadiusKm    float64
	MinDriveHours  float64
	MinOnDutyHours float64
	Limit          int
}

// PerformanceScores is the optional performance lookup result. Available is
// false when the score source does not exist; that is not an error.
type PerformanceScores struct {
	Available bool
	Scores    map[uuid.UUID]float64
}

// ScoreFor returns the driver's score or def when none is recorded.
func (p PerformanceScores) ScoreFor(id uuid.UUID, def float64) float64 {
	if s, ok := p.Scores[id]; ok {
		return s
	}
	return def
}
