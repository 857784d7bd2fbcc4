package handler

import (
	"net/http"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// SuggestDrivers handles GET /loads/{id}/suggestions.
// Zero or absent options take the service defaults.
func (s *Server) SuggestDrivers(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	loadID, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	opts, err := suggestOptions(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	set, err := s.suggestions.SuggestDrivers(r.Context(), t, loadID, opts)
	if err != nil {
		s.serviceError(w, r, err, "load not found")
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func suggestOptions(r *http.Request) (domain.SuggestOptions, error) {
	var (
		opts domain.SuggestOptions
		err  error
	)
	maxSuggestions, err := queryInt(r, "max_suggestions")
	if err != nil {
		return opts, err
	}
	if maxSuggestions != nil {
		opts.MaxSuggestions = *maxSuggestions
	}
	if opts.MaxDistanceMiles, err = queryFloat(r, "max_distance_miles"); err != nil {
		return opts, err
	}
	if opts.MinDriveHours, err = queryFloat(r, "min_drive_hours"); err != nil {
		return opts, err
	}
	if opts.MinOnDutyHours, err = queryFloat(r, "min_on_duty_hours"); err != nil {
		return opts, err
	}
	if opts.ConsiderPerformance, err = queryBool(r, "consider_performance"); err != nil {
		return opts, err
	}
	return opts, nil
}
