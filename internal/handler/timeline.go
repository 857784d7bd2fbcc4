package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TimelineList is the body of GET /timelines.
type TimelineList struct {
	Data       []domain.DriverTimeline `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

// ListTimelines handles GET /timelines.
// Supports ?driver_id=, ?start_date=, ?end_date= and ?page=/?limit=
// (defaults: page=1, limit=20, max=100). Pages are taken over drivers.
func (s *Server) ListTimelines(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var (
		f   domain.TimelineFilter
		err error
	)
	if f.DriverID, err = queryUUID(r, "driver_id"); err != nil {
		requestError(w, err.Error())
		return
	}
	if f.StartDate, err = queryDate(r, "start_date"); err != nil {
		requestError(w, err.Error())
		return
	}
	if f.EndDate, err = queryDate(r, "end_date"); err != nil {
		requestError(w, err.Error())
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	params := domain.NewPaginationParams(page, limit)

	timelines, err := s.timelines.BuildDriverTimelines(r.Context(), t, f)
	if err != nil {
		s.serviceError(w, r, err, "driver not found")
		return
	}

	lo, hi := params.Bounds(len(timelines))
	writeJSON(w, http.StatusOK, TimelineList{
		Data: timelines[lo:hi],
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: len(timelines),
		},
	})
}

// CheckAssignment handles POST /assignments/check.
// The body names a driver and exactly one of load_id or route_id; load_id
// wins when both are set.
func (s *Server) CheckAssignment(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var req domain.AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			requestError(w, "request body is required")
			return
		}
		requestError(w, "request body is not valid JSON: "+err.Error())
		return
	}

	check, err := s.timelines.CheckAssignmentConflicts(r.Context(), t, req)
	if err != nil {
		s.serviceError(w, r, err, "load or route not found")
		return
	}
	writeJSON(w, http.StatusOK, check)
}
