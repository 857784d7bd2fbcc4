package handler

import "net/http"

// GetFleetHealth handles GET /fleet/health.
func (s *Server) GetFleetHealth(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	health, err := s.fleet.GetFleetHealth(r.Context(), t)
	if err != nil {
		s.serviceError(w, r, err, "fleet not found")
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// GetFleetAlerts handles GET /fleet/alerts.
func (s *Server) GetFleetAlerts(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	alerts, err := s.fleet.GetPredictiveAlerts(r.Context(), t)
	if err != nil {
		s.serviceError(w, r, err, "fleet not found")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}
