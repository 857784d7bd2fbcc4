package domain

import "github.com/google/uuid"

// SuggestOptions tunes DriverSuggestionScorer. Nil or zero values take
// defaults; the pointer fields keep an explicit zero.
type SuggestOptions struct {
	MaxSuggestions      int      `json:"max_suggestions" validate:"gte=0,lte=50"`
	MaxDistanceMiles    *float64 `json:"max_distance_miles,omitempty" validate:"omitempty,gt=0,lte=3000"`
	MinDriveHours       *float64 `json:"min_drive_hours,omitempty" validate:"omitempty,gte=0,lte=11"`
	MinOnDutyHours      *float64 `json:"min_on_duty_hours,omitempty" validate:"omitempty,gte=0,lte=14"`
	ConsiderPerformance bool     `json:"consider_performance"`
	CandidateLimit      int      `json:"candidate_limit" validate:"gte=0,lte=200"`
}

// WithDefaults fills unset options: 5 suggestions, 100 miles, 4 drive hours,
// 6 on-duty hours and 20 candidates.
func (o SuggestOptions) WithDefaults() SuggestOptions {
	if o.MaxSuggestions == 0 {
		o.MaxSuggestions = 5
	}
	if o.MaxDistanceMiles == nil {
		o.MaxDistanceMiles = Float(100)
	}
	if o.MinDriveHours == nil {
		o.MinDriveHours = Float(4)
	}
	if o.MinOnDutyHours == nil {
		o.MinOnDutyHours = Float(6)
	}
	if o.CandidateLimit == 0 {
		o.CandidateLimit = 20
	}
	return o
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// DriverSuggestion is one ranked candidate for a load.
type DriverSuggestion struct {
	DriverID             uuid.UUID  `json:"driver_id"`
	DriverName           string     `json:"driver_name"`
	Score                float64    `json:"score"`
	Reasons              []string   `json:"reasons"`
	DistanceMiles        float64    `json:"distance_miles"`
	RemainingDriveHours  float64    `json:"remaining_drive_hours"`
	RemainingOnDutyHours float64    `json:"remaining_on_duty_hours"`
	EquipmentMatch       bool       `json:"equipment_match"`
	CanComplete          bool       `json:"can_complete"`
	Conflicts            []string   `json:"conflicts"`
	HOSViolations        []string   `json:"hos_violations"`
	TruckID              *uuid.UUID `json:"truck_id,omitempty"`
	TruckNumber          string     `json:"truck_number,omitempty"`
}

// SuggestionSet is the ranked result plus any candidates dropped by the
// skip policy and the fallbacks that were used.
type SuggestionSet struct {
	LoadID      uuid.UUID          `json:"load_id"`
	Suggestions []DriverSuggestion `json:"suggestions"`
	Skipped     []uuid.UUID        `json:"skipped"`
	Degraded    []string           `json:"degraded"`
}
