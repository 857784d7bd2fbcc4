package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/handler"
)

func timelines(n int) []domain.DriverTimeline {
	out := make([]domain.DriverTimeline, n)
	for i := range out {
		out[i] = domain.DriverTimeline{
			DriverID:   uuid.New(),
			DriverName: fmt.Sprintf("Driver %d", i),
			Jobs:       []domain.ScheduledJob{},
			Violations: []string{},
		}
	}
	return out
}

// ---- GET /timelines --------------------------------------------------------

func TestListTimelines_PassesFilter(t *testing.T) {
	driverID := uuid.New()
	var got domain.TimelineFilter
	svc := &mockTimelineServicer{
		build: func(_ context.Context, _ domain.Tenant, f domain.TimelineFilter) ([]domain.DriverTimeline, error) {
			got = f
			return timelines(1), nil
		},
	}
	h := newHTTPHandler(handler.Services{Timelines: svc})

	rec := serve(h, http.MethodGet,
		"/timelines?driver_id="+driverID.String()+"&start_date=2025-06-10&end_date=2025-06-12", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, driverID, got.DriverID)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), got.StartDate)
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), got.EndDate)

	var body handler.TimelineList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, handler.Pagination{Page: 1, Limit: 20, Total: 1}, body.Pagination)
}

func TestListTimelines_Paginates(t *testing.T) {
	all := timelines(5)
	svc := &mockTimelineServicer{
		build: func(context.Context, domain.Tenant, domain.TimelineFilter) ([]domain.DriverTimeline, error) {
			return all, nil
		},
	}
	h := newHTTPHandler(handler.Services{Timelines: svc})

	cases := []struct {
		query string
		names []string
		page  handler.Pagination
	}{
		{"?page=1&limit=2", []string{"Driver 0", "Driver 1"}, handler.Pagination{Page: 1, Limit: 2, Total: 5}},
		{"?page=3&limit=2", []string{"Driver 4"}, handler.Pagination{Page: 3, Limit: 2, Total: 5}},
		{"?page=4&limit=2", []string{}, handler.Pagination{Page: 4, Limit: 2, Total: 5}},
		{"?limit=500", []string{"Driver 0", "Driver 1", "Driver 2", "Driver 3", "Driver 4"}, handler.Pagination{Page: 1, Limit: 100, Total: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/timelines"+tc.query, "")

			require.Equal(t, http.StatusOK, rec.Code)
			var body handler.TimelineList
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			names := make([]string, 0, len(body.Data))
			for _, tl := range body.Data {
				names = append(names, tl.DriverName)
			}
			assert.Equal(t, tc.names, names)
			assert.Equal(t, tc.page, body.Pagination)
		})
	}
}

func TestListTimelines_BadQuery_Returns422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Timelines: &mockTimelineServicer{}})

	for _, q := range []string{"?driver_id=abc", "?start_date=tomorrow", "?end_date=2025-13-01", "?page=one"} {
		t.Run(q, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/timelines"+q, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestListTimelines_InvertedRange_Returns422(t *testing.T) {
	svc := &mockTimelineServicer{
		build: func(context.Context, domain.Tenant, domain.TimelineFilter) ([]domain.DriverTimeline, error) {
			return nil, fmt.Errorf("service.ConflictDetector.BuildDriverTimelines: %w: end_date must be after start_date", domain.ErrValidation)
		},
	}
	h := newHTTPHandler(handler.Services{Timelines: svc})

	rec := serve(h, http.MethodGet, "/timelines?start_date=2025-06-12&end_date=2025-06-10", "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "end_date must be after start_date", body.Error.Message)
}

// ---- POST /assignments/check -----------------------------------------------

func TestCheckAssignment_OK(t *testing.T) {
	driverID, loadID := uuid.New(), uuid.New()
	var got domain.AssignmentRequest
	svc := &mockTimelineServicer{
		check: func(_ context.Context, _ domain.Tenant, req domain.AssignmentRequest) (domain.AssignmentCheck, error) {
			got = req
			return domain.AssignmentCheck{
				Conflicts:     []string{"Overlaps with LD-7"},
				HOSViolations: []string{},
				CanAssign:     false,
			}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Timelines: svc})

	body := fmt.Sprintf(`{"driver_id":%q,"load_id":%q}`, driverID, loadID)
	rec := serve(h, http.MethodPost, "/assignments/check", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.AssignmentRequest{DriverID: driverID, LoadID: loadID}, got)

	var check domain.AssignmentCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&check))
	assert.False(t, check.CanAssign)
	assert.Equal(t, []string{"Overlaps with LD-7"}, check.Conflicts)
	assert.Empty(t, check.HOSViolations)
}

func TestCheckAssignment_BadBody_Returns422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Timelines: &mockTimelineServicer{}})

	for name, body := range map[string]string{
		"empty":     "",
		"malformed": "{",
		"bad uuid":  `{"driver_id":"nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, http.MethodPost, "/assignments/check", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestCheckAssignment_NotFound_Returns404(t *testing.T) {
	svc := &mockTimelineServicer{
		check: func(context.Context, domain.Tenant, domain.AssignmentRequest) (domain.AssignmentCheck, error) {
			return domain.AssignmentCheck{}, fmt.Errorf("service.ConflictDetector.CheckAssignmentConflicts: %w", domain.ErrNotFound)
		},
	}
	h := newHTTPHandler(handler.Services{Timelines: svc})

	body := fmt.Sprintf(`{"driver_id":%q,"route_id":%q}`, uuid.New(), uuid.New())
	rec := serve(h, http.MethodPost, "/assignments/check", body)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "load or route not found", resp.Error.Message)
}
