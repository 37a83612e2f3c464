package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"coworking/internal/availability"
	"coworking/internal/catalog"
	"coworking/internal/models"
)

// DefaultReportDays is the span of the bookings report when no range is given.
const DefaultReportDays = 7

var ErrInvalidRange = errors.New("start date is after end date")

// ReservationView is a reservation enriched with catalog labels for display.
type ReservationView struct {
	ID             int64               `json:"id"`
	ResourceType   string              `json:"resource_type"`
	TypeLabel      string              `json:"type_label"`
	InstanceID     int64               `json:"instance_id,omitempty"`
	EquipmentClass string              `json:"equipment_class,omitempty"`
	UserID         string              `json:"user_id"`
	StartDate      string              `json:"start_date"`
	EndDate        string              `json:"end_date"`
	DurationUnit   models.DurationUnit `json:"duration_unit"`
	DurationValue  int                 `json:"duration_value"`
	Status         string              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
}

// TypeAvailability describes one resource type on one day.
type TypeAvailability struct {
	ResourceType string `json:"resource_type"`
	Label        string `json:"label"`
	Free         bool   `json:"free"`
	FreeUnits    int    `json:"free_units"`
	TotalUnits   int    `json:"total_units"`
}

type Summary struct {
	Date              string `json:"date"`
	TotalReservations int    `json:"total_reservations"`
	StartingToday     int    `json:"starting_today"`
}

func newView(cat *catalog.Catalog, r *models.Reservation) ReservationView {
	v := ReservationView{
		ID:            r.ID,
		ResourceType:  r.ResourceType,
		TypeLabel:     cat.Label(r.ResourceType),
		InstanceID:    r.InstanceID,
		UserID:        r.UserID,
		StartDate:     models.FormatDate(r.StartDate),
		EndDate:       models.FormatDate(r.EndDate()),
		DurationUnit:  r.DurationUnit,
		DurationValue: r.DurationValue,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}
	if rt, ok := cat.Type(r.ResourceType); ok {
		if inst, ok := rt.Instance(r.InstanceID); ok {
			v.EquipmentClass = inst.EquipmentClass
		}
	}
	return v
}

// UserReservations lists the user's reservations, latest start date first.
func (e *Engine) UserReservations(ctx context.Context, userID string) ([]ReservationView, error) {
	reservations, err := e.store.GetReservationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load reservations of user %s: %w", userID, err)
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return a.ID > b.ID
	})

	cat := e.catalogs.Current()
	views := make([]ReservationView, 0, len(reservations))
	for _, r := range reservations {
		views = append(views, newView(cat, r))
	}
	return views, nil
}

// ReservationsBetween lists reservations occupying any date in [from, to].
// A zero from defaults to DefaultReportDays before today, a zero to to today.
func (e *Engine) ReservationsBetween(ctx context.Context, from, to time.Time) ([]ReservationView, error) {
	today := e.policy.Today()
	if to.IsZero() {
		to = today
	}
	if from.IsZero() {
		from = today.AddDate(0, 0, -DefaultReportDays)
	}
	from, to = models.DateOf(from), models.DateOf(to)
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	reservations, err := e.store.GetReservationsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations between %s and %s: %w",
			models.FormatDate(from), models.FormatDate(to), err)
	}

	cat := e.catalogs.Current()
	views := make([]ReservationView, 0, len(reservations))
	for _, r := range reservations {
		views = append(views, newView(cat, r))
	}
	return views, nil
}

// DayAvailability reports every type in catalog order for a single date.
func (e *Engine) DayAvailability(ctx context.Context, date time.Time) ([]TypeAvailability, error) {
	cat := e.catalogs.Current()
	w := models.Window{Start: models.DateOf(date), End: models.DateOf(date)}

	out := make([]TypeAvailability, 0)
	for _, rt := range cat.ListTypes() {
		reservations, err := e.store.GetReservationsByType(ctx, rt.Key)
		if err != nil {
			return nil, fmt.Errorf("load reservations of type %s: %w", rt.Key, err)
		}
		total := len(rt.Instances)
		if total == 0 {
			total = 1
		}
		free := availability.CountFree(reservations, rt, w)
		out = append(out, TypeAvailability{
			ResourceType: rt.Key,
			Label:        rt.Label,
			Free:         free > 0,
			FreeUnits:    free,
			TotalUnits:   total,
		})
	}
	return out, nil
}

func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	today := e.policy.Today()

	total, err := e.store.CountReservations(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count reservations: %w", err)
	}

	active, err := e.store.GetReservationsByDateRange(ctx, today, today)
	if err != nil {
		return Summary{}, fmt.Errorf("load reservations of today: %w", err)
	}
	starting := 0
	for _, r := range active {
		if r.StartDate.Equal(today) {
			starting++
		}
	}

	return Summary{
		Date:              models.FormatDate(today),
		TotalReservations: total,
		StartingToday:     starting,
	}, nil
}
