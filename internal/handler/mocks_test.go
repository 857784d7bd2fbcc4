package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/handler"
	"github.com/pkordes/fleet-hos/internal/middleware"
)

// ---- mock HOSServicer ------------------------------------------------------

type mockHOSServicer struct {
	compute       func(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, date time.Time) (domain.HOSSnapshot, error)
	computeWeekly func(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, asOf time.Time) (domain.WeeklyHOS, error)
}

func (m *mockHOSServicer) Compute(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, date time.Time) (domain.HOSSnapshot, error) {
	return m.compute(ctx, tenant, driverID, date)
}

func (m *mockHOSServicer) ComputeWeekly(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, asOf time.Time) (domain.WeeklyHOS, error) {
	return m.computeWeekly(ctx, tenant, driverID, asOf)
}

var _ handler.HOSServicer = (*mockHOSServicer)(nil)

// ---- mock TimelineServicer -------------------------------------------------

type mockTimelineServicer struct {
	build func(ctx context.Context, tenant domain.Tenant, f domain.TimelineFilter) ([]domain.DriverTimeline, error)
	check func(ctx context.Context, tenant domain.Tenant, req domain.AssignmentRequest) (domain.AssignmentCheck, error)
}

func (m *mockTimelineServicer) BuildDriverTimelines(ctx context.Context, tenant domain.Tenant, f domain.TimelineFilter) ([]domain.DriverTimeline, error) {
	return m.build(ctx, tenant, f)
}

func (m *mockTimelineServicer) CheckAssignmentConflicts(ctx context.Context, tenant domain.Tenant, req domain.AssignmentRequest) (domain.AssignmentCheck, error) {
	return m.check(ctx, tenant, req)
}

var _ handler.TimelineServicer = (*mockTimelineServicer)(nil)

// ---- mock SuggestServicer --------------------------------------------------

type mockSuggestServicer struct {
	suggest func(ctx context.Context, tenant domain.Tenant, loadID uuid.UUID, opts domain.SuggestOptions) (domain.SuggestionSet, error)
}

func (m *mockSuggestServicer) SuggestDrivers(ctx context.Context, tenant domain.Tenant, loadID uuid.UUID, opts domain.SuggestOptions) (domain.SuggestionSet, error) {
	return m.suggest(ctx, tenant, loadID, opts)
}

var _ handler.SuggestServicer = (*mockSuggestServicer)(nil)

// ---- mock FleetServicer ----------------------------------------------------

type mockFleetServicer struct {
	health func(ctx context.Context, tenant domain.Tenant) (domain.FleetHealth, error)
	alerts func(ctx context.Context, tenant domain.Tenant) (domain.AlertSet, error)
}

func (m *mockFleetServicer) GetFleetHealth(ctx context.Context, tenant domain.Tenant) (domain.FleetHealth, error) {
	return m.health(ctx, tenant)
}

func (m *mockFleetServicer) GetPredictiveAlerts(ctx context.Context, tenant domain.Tenant) (domain.AlertSet, error) {
	return m.alerts(ctx, tenant)
}

var _ handler.FleetServicer = (*mockFleetServicer)(nil)

// ---- mock ExportServicer ---------------------------------------------------

type mockExportServicer struct {
	export func(ctx context.Context, tenant domain.Tenant, date time.Time) ([]domain.ReportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, tenant domain.Tenant, date time.Time) ([]domain.ReportRow, error) {
	return m.export(ctx, tenant, date)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

// ---- helpers ---------------------------------------------------------------

var testTenant = domain.Tenant{
	CompanyID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	UserID:    uuid.MustParse("22222222-2222-2222-2222-222222222222"),
}

// fakeAuth stands in for the JWT middleware and scopes every request to
// testTenant.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithTenant(r.Context(), testTenant)))
	})
}

// noAuth lets requests through without a tenant.
func noAuth(next http.Handler) http.Handler { return next }

func newHTTPHandler(svc handler.Services) http.Handler {
	return newHTTPHandlerWithAuth(svc, fakeAuth)
}

func newHTTPHandlerWithAuth(svc handler.Services, auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	handler.NewServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes(r, auth)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
