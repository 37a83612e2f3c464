package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coworking/internal/catalog"
	"coworking/internal/policy"
	"coworking/internal/repository"
	"coworking/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testAPIKey = "valid-key"

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T, opts Options) *HTTPServer {
	t.Helper()
	logger := zerolog.Nop()
	engine := service.NewEngine(
		repository.NewMemoryStore(),
		catalog.NewHolder(catalog.Default()),
		policy.New(policy.FixedClock{At: testNow}, 30),
		nil, nil, &logger,
	)
	if opts.APIKey == "" {
		opts.APIKey = testAPIKey
	}
	return NewHTTPServer(opts, engine, &logger)
}

func doRequest(t *testing.T, srv *HTTPServer, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, testAPIKey)
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func booking(typeKey, start, unit string, value int) CreateBookingRequest {
	return CreateBookingRequest{ResourceType: typeKey, StartDate: start, DurationUnit: unit, DurationValue: value}
}

func decodeBooking(t *testing.T, w *httptest.ResponseRecorder) BookingResponse {
	t.Helper()
	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAPIKeyRequired(t *testing.T) {
	srv := setupTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/resource-types", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid api key")
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestHandleResourceTypes(t *testing.T) {
	srv := setupTestServer(t, Options{})

	w := doRequest(t, srv, http.MethodGet, "/api/resource-types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResourceTypesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Types, 4)
	assert.Equal(t, "workspace_open", resp.Types[0].Key)

	w = doRequest(t, srv, http.MethodPost, "/api/resource-types", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleBookings_Validation(t *testing.T) {
	srv := setupTestServer(t, Options{})

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantReason string
		wantError  string
	}{
		{
			name:       "invalid JSON",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON body",
		},
		{
			name:       "unknown resource type",
			body:       booking("sauna", "2026-03-05", "days", 1),
			wantStatus: http.StatusBadRequest,
			wantReason: "unknown_resource_type",
		},
		{
			name:       "invalid unit",
			body:       booking("office_light", "2026-03-05", "weeks", 1),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalid_duration_unit",
		},
		{
			name:       "zero duration",
			body:       booking("office_light", "2026-03-05", "days", 0),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalid_duration_value",
		},
		{
			name:       "duration overflows the calendar",
			body:       booking("office_light", "2026-03-05", "days", math.MaxInt),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalid_duration_value",
		},
		{
			name:       "malformed date",
			body:       booking("office_light", "05.03.2026", "days", 1),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalid_start_date",
		},
		{
			name:       "in the past",
			body:       booking("office_light", "2026-02-28", "days", 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "outside_booking_window",
		},
		{
			name:       "beyond horizon",
			body:       booking("office_light", "2026-04-01", "days", 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "outside_booking_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantError != "" {
				var resp errorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp.Error)
				return
			}
			resp := decodeBooking(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Empty(t, resp.AlternativeDate)
		})
	}
}

func TestHandleBookings_RequiresUser(t *testing.T) {
	srv := setupTestServer(t, Options{})

	w := doRequest(t, srv, http.MethodPost, "/api/bookings", "", booking("office_light", "2026-03-05", "days", 1))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "X-User-ID header is required")
}

func TestHandleBookings_ConflictWithSuggestions(t *testing.T) {
	srv := setupTestServer(t, Options{})

	w := doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", booking("office_light", "2026-03-10", "days", 2))
	require.Equal(t, http.StatusOK, w.Code)
	accepted := decodeBooking(t, w)
	assert.True(t, accepted.Success)
	assert.Equal(t, int64(3), accepted.InstanceID)
	assert.Equal(t, "Light", accepted.EquipmentClass)
	assert.Equal(t, "2026-03-10", accepted.StartDate)
	assert.Equal(t, "2026-03-11", accepted.EndDate)

	w = doRequest(t, srv, http.MethodPost, "/api/bookings", "bob", booking("office_light", "2026-03-10", "days", 2))
	require.Equal(t, http.StatusConflict, w.Code)
	rejected := decodeBooking(t, w)
	assert.False(t, rejected.Success)
	assert.Equal(t, "other_overlap", rejected.Reason)
	assert.Equal(t, "contention_rejection", rejected.Class)
	assert.Equal(t, "2026-03-12", rejected.AlternativeDate)
	assert.NotEmpty(t, rejected.AlternativeType)
	assert.NotEqual(t, "office_light", rejected.AlternativeType)
	assert.NotEmpty(t, rejected.AlternativeTypeLabel)

	w = doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", booking("office_light", "2026-03-11", "hours", 3))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "self_overlap", decodeBooking(t, w).Reason)

	w = doRequest(t, srv, http.MethodGet, "/api/bookings", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list UserReservationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Reservations, 1)
	assert.Equal(t, "office_light", list.Reservations[0].ResourceType)
}

func TestHandleBookings_RateLimited(t *testing.T) {
	srv := setupTestServer(t, Options{RateLimitPerMinute: 1})

	w := doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", booking("office_light", "2026-03-05", "days", 1))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", booking("office_premium", "2026-03-05", "days", 1))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/bookings", "bob", booking("office_premium", "2026-03-05", "days", 1))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleAvailability(t *testing.T) {
	srv := setupTestServer(t, Options{})

	w := doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", booking("office_light", "2026-03-05", "days", 1))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/availability?date=2026-03-05", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-05", resp.Date)
	require.Len(t, resp.Types, 4)
	for _, ta := range resp.Types {
		if ta.ResourceType == "office_light" {
			assert.False(t, ta.Free)
		} else {
			assert.True(t, ta.Free, ta.ResourceType)
		}
	}

	w = doRequest(t, srv, http.MethodGet, "/api/availability", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-01", resp.Date)

	w = doRequest(t, srv, http.MethodGet, "/api/availability?date=03/05/2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid date format; expected YYYY-MM-DD")
}

func TestHandleBookingsReport(t *testing.T) {
	srv := setupTestServer(t, Options{})

	for _, b := range []CreateBookingRequest{
		booking("office_light", "2026-03-02", "days", 1),
		booking("meeting_room", "2026-03-20", "hours", 2),
	} {
		w := doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", b)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			query     string
			wantError string
		}{
			{"?start_date=02-03-2026", "invalid start_date format; expected YYYY-MM-DD"},
			{"?end_date=2026/03/05", "invalid end_date format; expected YYYY-MM-DD"},
			{"?start_date=2026-03-10&end_date=2026-03-01", "start_date must be before or equal to end_date"},
		}
		for _, tt := range tests {
			w := doRequest(t, srv, http.MethodGet, "/api/reports/bookings"+tt.query, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, tt.query)
			assert.Contains(t, w.Body.String(), tt.wantError)
		}
	})

	t.Run("json", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/reports/bookings?start_date=2026-03-01&end_date=2026-03-10", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp BookingsReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2026-03-01", resp.Period.Start)
		assert.Equal(t, "2026-03-10", resp.Period.End)
		require.Len(t, resp.Reservations, 1)
		assert.Equal(t, "office_light", resp.Reservations[0].ResourceType)
	})

	t.Run("xlsx", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/reports/bookings?start_date=2026-03-01&end_date=2026-03-31&format=xlsx", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "reservations_2026-03-01_2026-03-31.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Reservations")
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}

func TestHandleSummary(t *testing.T) {
	srv := setupTestServer(t, Options{})

	w := doRequest(t, srv, http.MethodPost, "/api/bookings", "alice", booking("workspace_open", "2026-03-01", "days", 1))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/reports/summary", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-01", resp.Date)
	assert.Equal(t, 1, resp.TotalReservations)
	assert.Equal(t, 1, resp.StartingToday)
}
