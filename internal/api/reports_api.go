package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"coworking/internal/metrics"
	"coworking/internal/models"
	"coworking/internal/report"
	"coworking/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AvailabilityResponse struct {
	Date  string                     `json:"date"`
	Types []service.TypeAvailability `json:"types"`
}

type BookingsReportResponse struct {
	Period struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
	Reservations []service.ReservationView `json:"reservations"`
}

// handleAvailability reports free and busy types for one day, today by default.
// GET /api/availability?date=YYYY-MM-DD
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	date := s.engine.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		date = d
	}

	types, err := s.engine.DayAvailability(r.Context(), date)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute availability")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Date: models.FormatDate(date), Types: types})
}

// handleBookingsReport lists reservations in a range, the last week by default.
// GET /api/reports/bookings?start_date=&end_date=&format=xlsx
func (s *HTTPServer) handleBookingsReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_report")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	q := r.URL.Query()
	start, end, err := parseReportRange(q.Get("start_date"), q.Get("end_date"), s.engine.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.engine.ReservationsBetween(r.Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build bookings report")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if q.Get("format") == "xlsx" {
		var buf bytes.Buffer
		if err := report.WriteReservations(&buf, views); err != nil {
			s.logger.Error().Err(err).Msg("Failed to render xlsx report")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		filename := fmt.Sprintf("reservations_%s_%s.xlsx", models.FormatDate(start), models.FormatDate(end))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	var resp BookingsReportResponse
	resp.Period.Start = models.FormatDate(start)
	resp.Period.End = models.FormatDate(end)
	resp.Reservations = views
	writeJSON(w, http.StatusOK, resp)
}

func parseReportRange(rawStart, rawEnd string, today time.Time) (start, end time.Time, err error) {
	end = today
	start = today.AddDate(0, 0, -service.DefaultReportDays)

	if rawStart != "" {
		if start, err = models.ParseDate(rawStart); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format; expected YYYY-MM-DD")
		}
	}
	if rawEnd != "" {
		if end, err = models.ParseDate(rawEnd); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format; expected YYYY-MM-DD")
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before or equal to end_date")
	}
	return start, end, nil
}

// handleSummary returns reservation counters.
// GET /api/reports/summary
func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("summary")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	summary, err := s.engine.Summary(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build summary")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
