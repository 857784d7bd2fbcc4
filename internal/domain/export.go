package domain

// ReportRow is one row of the daily HOS report: a flat view of a driver's
// snapshot, suitable for CSV. Drivers with no logs still get a row with
// zero hours.
//
// Violations keeps the snapshot order. CSV writers join it with "; ".
type ReportRow struct {
	DriverID   string
	DriverName string
	Status     string
	Truck      string
	Date       string // "2006-01-02"

	DrivingHours     float64
	OnDutyHours      float64
	RemainingDriving float64
	RemainingOnDuty  float64
	NeedsBreak       bool
	CanDrive         bool

	Violations []string
}
