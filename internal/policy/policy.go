// Package policy decides whether a booking request may be accepted.
package policy

import (
	"context"
	"fmt"
	"time"

	"coworking/internal/availability"
	"coworking/internal/catalog"
	"coworking/internal/models"
)

// DefaultMaxAdvanceDays is the booking horizon: start dates from today to today+30.
const DefaultMaxAdvanceDays = 30

// DefaultMaxDurationDays bounds day-based bookings.
const DefaultMaxDurationDays = 365

// Reader is the read side of the reservation store used for conflict checks.
type Reader interface {
	GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error)
	GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error)
}

// Candidate is a request that passed input and window validation.
type Candidate struct {
	UserID        string
	Type          models.ResourceType
	StartDate     time.Time
	DurationUnit  models.DurationUnit
	DurationValue int
	Window        models.Window
}

// At returns the same request moved to another start date.
func (c Candidate) At(start time.Time) Candidate {
	c.StartDate = models.DateOf(start)
	c.Window = models.OccupiedWindow(c.StartDate, c.DurationUnit, c.DurationValue)
	return c
}

// WithType returns the same request for another resource type.
func (c Candidate) WithType(rt models.ResourceType) Candidate {
	c.Type = rt
	return c
}

// Decision is the outcome of evaluating a request. Selector is set only when accepted.
type Decision struct {
	Outcome  models.Outcome
	Reason   models.Reason
	Selector availability.Selector
}

func (d Decision) Accepted() bool {
	return d.Outcome == models.OutcomeAccepted
}

func reject(outcome models.Outcome, reason models.Reason) Decision {
	return Decision{Outcome: outcome, Reason: reason}
}

type Policy struct {
	clock           Clock
	maxAdvanceDays  int
	maxDurationDays int
}

func New(clock Clock, maxAdvanceDays int) *Policy {
	if clock == nil {
		clock = RealClock{}
	}
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = DefaultMaxAdvanceDays
	}
	return &Policy{clock: clock, maxAdvanceDays: maxAdvanceDays, maxDurationDays: DefaultMaxDurationDays}
}

// WithMaxDurationDays sets the longest accepted day-based booking.
// Non-positive values keep the default.
func (p *Policy) WithMaxDurationDays(days int) *Policy {
	if days > 0 {
		p.maxDurationDays = days
	}
	return p
}

func (p *Policy) MaxDurationDays() int {
	return p.maxDurationDays
}

// Today is read from the clock on every call.
func (p *Policy) Today() time.Time {
	return models.DateOf(p.clock.Now())
}

// Horizon is the last date a booking may start on.
func (p *Policy) Horizon() time.Time {
	return p.Today().AddDate(0, 0, p.maxAdvanceDays)
}

func (p *Policy) MaxAdvanceDays() int {
	return p.maxAdvanceDays
}

// InWindow reports whether today <= date <= today+maxAdvanceDays.
func (p *Policy) InWindow(date time.Time) bool {
	d := models.DateOf(date)
	today := p.Today()
	return !d.Before(today) && !d.After(today.AddDate(0, 0, p.maxAdvanceDays))
}

// Validate runs the input and booking window checks in order, stopping at the
// first failure. ok is false when the returned decision is a rejection.
func (p *Policy) Validate(cat *catalog.Catalog, req models.BookingRequest) (Candidate, Decision, bool) {
	rt, found := cat.Type(req.ResourceType)
	if !found {
		return Candidate{}, reject(models.OutcomeRejectedInvalidInput, models.ReasonUnknownType), false
	}

	unit := models.DurationUnit(req.DurationUnit)
	if !unit.Valid() {
		return Candidate{}, reject(models.OutcomeRejectedInvalidInput, models.ReasonInvalidUnit), false
	}

	if req.DurationValue <= 0 || (unit == models.UnitDays && req.DurationValue > p.maxDurationDays) {
		return Candidate{}, reject(models.OutcomeRejectedInvalidInput, models.ReasonInvalidDuration), false
	}

	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return Candidate{}, reject(models.OutcomeRejectedInvalidInput, models.ReasonInvalidDate), false
	}

	if !p.InWindow(start) {
		return Candidate{}, reject(models.OutcomeRejectedWindow, models.ReasonOutsideWindow), false
	}

	window := models.OccupiedWindow(start, unit, req.DurationValue)
	if !window.Valid() {
		return Candidate{}, reject(models.OutcomeRejectedInvalidInput, models.ReasonInvalidDuration), false
	}

	cand := Candidate{
		UserID:        req.UserID,
		Type:          rt,
		StartDate:     start,
		DurationUnit:  unit,
		DurationValue: req.DurationValue,
		Window:        window,
	}
	return cand, Decision{}, true
}

// CheckContention runs the self-overlap and other-overlap checks for a
// validated candidate. Overlap with the user's reservations of other types
// is allowed. Store errors are returned as is.
func CheckContention(ctx context.Context, reader Reader, cand Candidate) (Decision, error) {
	own, err := reader.GetReservationsByUser(ctx, cand.UserID)
	if err != nil {
		return Decision{}, fmt.Errorf("load reservations of user %s: %w", cand.UserID, err)
	}
	if HasSelfOverlap(own, cand) {
		return reject(models.OutcomeRejectedSelfOverlap, models.ReasonSelfOverlap), nil
	}

	existing, err := reader.GetReservationsByType(ctx, cand.Type.Key)
	if err != nil {
		return Decision{}, fmt.Errorf("load reservations of type %s: %w", cand.Type.Key, err)
	}
	sel, ok := availability.FirstFree(existing, cand.Type, cand.Window)
	if !ok {
		return reject(models.OutcomeRejectedOtherOverlap, models.ReasonOtherOverlap), nil
	}

	return Decision{Outcome: models.OutcomeAccepted, Selector: sel}, nil
}

// HasSelfOverlap reports whether one of own, of the candidate's type, overlaps its window.
func HasSelfOverlap(own []*models.Reservation, cand Candidate) bool {
	for _, r := range own {
		if r.IsAccepted() && r.ResourceType == cand.Type.Key && r.Window().Overlaps(cand.Window) {
			return true
		}
	}
	return false
}

// Evaluate runs every check in order. The returned candidate is only
// meaningful when the request passed validation.
func (p *Policy) Evaluate(ctx context.Context, cat *catalog.Catalog, reader Reader, req models.BookingRequest) (Candidate, Decision, error) {
	cand, decision, ok := p.Validate(cat, req)
	if !ok {
		return cand, decision, nil
	}
	decision, err := CheckContention(ctx, reader, cand)
	return cand, decision, err
}
