package handler

import "net/http"

// GetDriverHOS handles GET /drivers/{id}/hos.
// ?date=YYYY-MM-DD selects the day; default is today in the fleet timezone.
func (s *Server) GetDriverHOS(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	driverID, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		requestError(w, err.Error())
		return
	}

	snap, err := s.hos.Compute(r.Context(), t, driverID, date)
	if err != nil {
		s.serviceError(w, r, err, "driver not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetDriverWeeklyHOS handles GET /drivers/{id}/hos/weekly.
func (s *Server) GetDriverWeeklyHOS(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	driverID, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	asOf, err := queryDate(r, "date")
	if err != nil {
		requestError(w, err.Error())
		return
	}

	weekly, err := s.hos.ComputeWeekly(r.Context(), t, driverID, asOf)
	if err != nil {
		s.serviceError(w, r, err, "driver not found")
		return
	}
	writeJSON(w, http.StatusOK, weekly)
}
