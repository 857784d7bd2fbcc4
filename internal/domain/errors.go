package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// load, route or driver does not exist in the tenant's scope.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a required identifier is missing or an
// option is out of range. It is always raised before any store access.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when no tenant scope could be resolved.
// Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// DataAccessError wraps a failure of the underlying store.
// Error returns the store's message unchanged so callers see it verbatim.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string { return e.Err.Error() }

func (e *DataAccessError) Unwrap() error { return e.Err }

// AsDataAccess classifies a store error. Not-found and validation errors keep
// their sentinel identity; context cancellation passes through untouched;
// anything else becomes a *DataAccessError tagged with op.
func AsDataAccess(op string, err error) error {
	if err == nil {
		return nil
	}
	var dae *DataAccessError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.As(err, &dae):
		return err
	}
	return &DataAccessError{Op: op, Err: err}
}

// Degraded markers reported in SuggestionSet, DriverTimeline and
// AssignmentCheck when a documented fallback was used instead of the
// primary collaborator.
const (
	DegradedProximityFallback   = "proximity_fallback"
	DegradedPerformanceMissing  = "performance_scores_unavailable"
	DegradedDriveTimeEstimation = "drive_time_default"
	DegradedHOSUnavailable      = "hos_unavailable"
)
