package models

import "time"

// DurationUnit is the unit a booking duration is expressed in.
type DurationUnit string

const (
	UnitDays  DurationUnit = "days"
	UnitHours DurationUnit = "hours"
)

// Valid reports whether the unit is one of the supported units.
func (u DurationUnit) Valid() bool {
	return u == UnitDays || u == UnitHours
}

// StatusAccepted is the only reservation status; there is no cancel or modify path.
const StatusAccepted = "accepted"

// Reservation is one accepted booking.
type Reservation struct {
	ID            int64        `json:"id"`
	ResourceType  string       `json:"resource_type"`
	InstanceID    int64        `json:"instance_id,omitempty"` // 0 when the type is tracked as a whole
	StartDate     time.Time    `json:"start_date"`
	DurationUnit  DurationUnit `json:"duration_unit"`
	DurationValue int          `json:"duration_value"`
	UserID        string       `json:"user_id"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Window returns the occupied window of the reservation.
func (r *Reservation) Window() Window {
	return OccupiedWindow(r.StartDate, r.DurationUnit, r.DurationValue)
}

// EndDate returns the last occupied date.
func (r *Reservation) EndDate() time.Time {
	return r.Window().End
}

// IsAccepted reports whether the reservation blocks its resource.
func (r *Reservation) IsAccepted() bool {
	return r.Status == StatusAccepted
}

// OverlapsWith checks whether two reservations occupy a common date.
// Resource identity is not compared; callers filter by type or instance.
func (r *Reservation) OverlapsWith(other *Reservation) bool {
	return r.Window().Overlaps(other.Window())
}

// ContainsDate checks if the reservation occupies a specific date.
func (r *Reservation) ContainsDate(date time.Time) bool {
	return r.Window().Contains(date)
}

// BookingRequest is the inbound booking contract. UserID is an opaque,
// already-authenticated identifier supplied by the request layer.
type BookingRequest struct {
	UserID        string `json:"user_id"`
	ResourceType  string `json:"resource_type"`
	StartDate     string `json:"start_date"`
	DurationUnit  string `json:"duration_unit"`
	DurationValue int    `json:"duration_value"`
}

// ReservationAccepted is the payload of the reservation.accepted event.
type ReservationAccepted struct {
	Reservation    Reservation `json:"reservation"`
	TypeLabel      string      `json:"type_label"`
	EquipmentClass string      `json:"equipment_class,omitempty"`
}
