// Package handler implements the HTTP handlers for the fleet HOS API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (hos.go, timeline.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// HOSServicer computes per-driver hours of service.
// Interfaces are defined here, in the consumer package, so handler tests can
// inject mocks without touching the database or the service layer.
type HOSServicer interface {
	Compute(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, date time.Time) (domain.HOSSnapshot, error)
	ComputeWeekly(ctx context.Context, tenant domain.Tenant, driverID uuid.UUID, asOf time.Time) (domain.WeeklyHOS, error)
}

// TimelineServicer builds driver timelines and checks proposed assignments.
type TimelineServicer interface {
	BuildDriverTimelines(ctx context.Context, tenant domain.Tenant, f domain.TimelineFilter) ([]domain.DriverTimeline, error)
	CheckAssignmentConflicts(ctx context.Context, tenant domain.Tenant, req domain.AssignmentRequest) (domain.AssignmentCheck, error)
}

// SuggestServicer ranks drivers for a load.
type SuggestServicer interface {
	SuggestDrivers(ctx context.Context, tenant domain.Tenant, loadID uuid.UUID, opts domain.SuggestOptions) (domain.SuggestionSet, error)
}

// FleetServicer reports fleet-wide compliance.
type FleetServicer interface {
	GetFleetHealth(ctx context.Context, tenant domain.Tenant) (domain.FleetHealth, error)
	GetPredictiveAlerts(ctx context.Context, tenant domain.Tenant) (domain.AlertSet, error)
}

// ExportServicer produces the daily HOS report.
type ExportServicer interface {
	Export(ctx context.Context, tenant domain.Tenant, date time.Time) ([]domain.ReportRow, error)
}

// Services groups the handler dependencies.
type Services struct {
	HOS         HOSServicer
	Timelines   TimelineServicer
	Suggestions SuggestServicer
	Fleet       FleetServicer
	Export      ExportServicer
}

// Server holds the services every handler method shares.
type Server struct {
	hos         HOSServicer
	timelines   TimelineServicer
	suggestions SuggestServicer
	fleet       FleetServicer
	export      ExportServicer
	log         *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	return &Server{
		hos:         svc.HOS,
		timelines:   svc.Timelines,
		suggestions: svc.Suggestions,
		fleet:       svc.Fleet,
		export:      svc.Export,
		log:         log,
	}
}

// Routes registers every endpoint on r. Health and the API document are
// public; everything else runs behind auth, which must place a
// domain.Tenant in the request context.
func (s *Server) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Get("/drivers/{id}/hos", s.GetDriverHOS)
		r.Get("/drivers/{id}/hos/weekly", s.GetDriverWeeklyHOS)
		r.Get("/timelines", s.ListTimelines)
		r.Post("/assignments/check", s.CheckAssignment)
		r.Get("/loads/{id}/suggestions", s.SuggestDrivers)
		r.Get("/fleet/health", s.GetFleetHealth)
		r.Get("/fleet/alerts", s.GetFleetAlerts)
		r.Get("/fleet/hos", s.GetFleetReport)
	})
}
