package api

import (
	"encoding/json"
	"net/http"

	"coworking/internal/metrics"
	"coworking/internal/models"
	"coworking/internal/service"
)

// CreateBookingRequest is the body of POST /api/bookings. The user comes
// from the X-User-ID header.
type CreateBookingRequest struct {
	ResourceType  string `json:"resource_type"`
	StartDate     string `json:"start_date"`
	DurationUnit  string `json:"duration_unit"`
	DurationValue int    `json:"duration_value"`
}

type BookingResponse struct {
	Success        bool   `json:"success"`
	ReservationID  int64  `json:"reservation_id,omitempty"`
	ResourceType   string `json:"resource_type,omitempty"`
	InstanceID     int64  `json:"instance_id,omitempty"`
	EquipmentClass string `json:"equipment_class,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`

	Reason               string `json:"reason,omitempty"`
	Class                string `json:"class,omitempty"`
	AlternativeDate      string `json:"alternative_date,omitempty"`
	AlternativeType      string `json:"alternative_type,omitempty"`
	AlternativeTypeLabel string `json:"alternative_type_label,omitempty"`
}

type ResourceTypesResponse struct {
	Types []models.ResourceType `json:"types"`
}

type UserReservationsResponse struct {
	Reservations []service.ReservationView `json:"reservations"`
}

// handleResourceTypes lists the catalog.
// GET /api/resource-types
func (s *HTTPServer) handleResourceTypes(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("resource_types")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	writeJSON(w, http.StatusOK, ResourceTypesResponse{Types: s.engine.Catalog().ListTypes()})
}

// handleBookings creates a booking or lists the caller's bookings.
// POST /api/bookings, GET /api/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateBooking(w, r)
	case http.MethodGet:
		s.handleListBookings(w, r)
	default:
		metrics.IncHTTP("bookings")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET or POST")
	}
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	userID := userIDFromContext(r.Context())

	if !s.limiter.Allow(userID) {
		writeError(w, http.StatusTooManyRequests, "too many booking attempts; try again later")
		return
	}

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.engine.Book(r.Context(), models.BookingRequest{
		UserID:        userID,
		ResourceType:  req.ResourceType,
		StartDate:     req.StartDate,
		DurationUnit:  req.DurationUnit,
		DurationValue: req.DurationValue,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("Booking failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, bookingStatus(result), s.bookingResponse(result))
}

func (s *HTTPServer) bookingResponse(result *service.BookingResult) BookingResponse {
	if result.Success {
		res := result.Reservation
		resp := BookingResponse{
			Success:       true,
			ReservationID: res.ID,
			ResourceType:  res.ResourceType,
			InstanceID:    res.InstanceID,
			StartDate:     models.FormatDate(res.StartDate),
			EndDate:       models.FormatDate(res.EndDate()),
		}
		if rt, ok := s.engine.Catalog().Type(res.ResourceType); ok {
			if inst, ok := rt.Instance(res.InstanceID); ok {
				resp.EquipmentClass = inst.EquipmentClass
			}
		}
		return resp
	}

	resp := BookingResponse{
		Reason:               string(result.Reason),
		Class:                string(result.Reason.Class()),
		AlternativeType:      result.AlternativeType,
		AlternativeTypeLabel: result.AlternativeTypeLabel,
	}
	if result.AlternativeDate != nil {
		resp.AlternativeDate = models.FormatDate(*result.AlternativeDate)
	}
	return resp
}

func bookingStatus(result *service.BookingResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Reason.Class() {
	case models.ClassContention:
		return http.StatusConflict
	case models.ClassPolicy:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	views, err := s.engine.UserReservations(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list reservations")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, UserReservationsResponse{Reservations: views})
}
