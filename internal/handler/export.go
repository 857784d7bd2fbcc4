package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkordes/fleet-hos/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"driver_id", "driver_name", "status", "truck", "date",
	"driving_hours", "on_duty_hours", "remaining_driving", "remaining_on_duty",
	"needs_break", "can_drive", "violations",
}

// ReportRow is the JSON form of one report line.
type ReportRow struct {
	DriverID         string   `json:"driver_id"`
	DriverName       string   `json:"driver_name"`
	Status           string   `json:"status"`
	Truck            *string  `json:"truck,omitempty"`
	Date             string   `json:"date"`
	DrivingHours     float64  `json:"driving_hours"`
	OnDutyHours      float64  `json:"on_duty_hours"`
	RemainingDriving float64  `json:"remaining_driving"`
	RemainingOnDuty  float64  `json:"remaining_on_duty"`
	NeedsBreak       bool     `json:"needs_break"`
	CanDrive         bool     `json:"can_drive"`
	Violations       []string `json:"violations"`
}

// GetFleetReport implements GET /fleet/hos.
// ?date=YYYY-MM-DD selects the day. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetFleetReport(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		requestError(w, "format must be csv or json")
		return
	}

	rows, err := s.export.Export(r.Context(), t, date)
	if err != nil {
		s.serviceError(w, r, err, "report not found")
		return
	}

	if format == "csv" {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, buildJSONRows(rows))
}

func buildJSONRows(rows []domain.ReportRow) []ReportRow {
	out := make([]ReportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRowToResponse(r))
	}
	return out
}

// writeCSV encodes rows as CSV. Violations within a row are joined with "; "
// to keep each driver on a single CSV line.
func writeCSV(w http.ResponseWriter, rows []domain.ReportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="hos-report.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// domainRowToResponse maps a domain.ReportRow to its JSON shape.
// An empty truck becomes a nil pointer (omitted in JSON).
func domainRowToResponse(r domain.ReportRow) ReportRow {
	row := ReportRow{
		DriverID:         r.DriverID,
		DriverName:       r.DriverName,
		Status:           r.Status,
		Date:             r.Date,
		DrivingHours:     r.DrivingHours,
		OnDutyHours:      r.OnDutyHours,
		RemainingDriving: r.RemainingDriving,
		RemainingOnDuty:  r.RemainingOnDuty,
		NeedsBreak:       r.NeedsBreak,
		CanDrive:         r.CanDrive,
		Violations:       r.Violations,
	}
	if r.Truck != "" {
		row.Truck = &r.Truck
	}
	if row.Violations == nil {
		row.Violations = []string{}
	}
	return row
}

func domainRowToCSVRecord(r domain.ReportRow) []string {
	return []string{
		r.DriverID,
		r.DriverName,
		r.Status,
		r.Truck,
		r.Date,
		formatHours(r.DrivingHours),
		formatHours(r.OnDutyHours),
		formatHours(r.RemainingDriving),
		formatHours(r.RemainingOnDuty),
		strconv.FormatBool(r.NeedsBreak),
		strconv.FormatBool(r.CanDrive),
		strings.Join(r.Violations, "; "),
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
