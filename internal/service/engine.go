package service

import (
	"context"
	"fmt"
	"time"

	"coworking/internal/availability"
	"coworking/internal/catalog"
	"coworking/internal/events"
	"coworking/internal/metrics"
	"coworking/internal/models"
	"coworking/internal/policy"
	"coworking/internal/suggest"
	"github.com/rs/zerolog"
)

// Store is the reservation store the engine owns the write path of.
type Store interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error)
	GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	CountReservations(ctx context.Context) (int, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SnapshotInvalidator drops cached reads after a new reservation.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, typeKey, userID string) error
}

// BookingResult is either a success carrying the stored reservation or a
// rejection with its reason and optional alternatives.
type BookingResult struct {
	Success     bool
	Reservation *models.Reservation
	Selector    availability.Selector

	Outcome              models.Outcome
	Reason               models.Reason
	AlternativeDate      *time.Time
	AlternativeType      string
	AlternativeTypeLabel string
}

// Engine is the single write path to the store. Check-then-insert runs
// under a per-type lock; suggestions are computed after it is released.
type Engine struct {
	store       Store
	catalogs    *catalog.Holder
	policy      *policy.Policy
	finder      *suggest.Finder
	events      EventPublisher
	invalidator SnapshotInvalidator
	locks       *keyedMutex
	logger      *zerolog.Logger
}

func NewEngine(store Store, catalogs *catalog.Holder, p *policy.Policy, finder *suggest.Finder, bus EventPublisher, logger *zerolog.Logger) *Engine {
	l := logger.With().Str("component", "engine").Logger()
	if finder == nil {
		finder = suggest.NewFinder(store, p, logger)
	}
	return &Engine{
		store:    store,
		catalogs: catalogs,
		policy:   p,
		finder:   finder,
		events:   bus,
		locks:    newKeyedMutex(),
		logger:   &l,
	}
}

// UseSnapshotInvalidator configures the cache dropped after each accepted booking.
func (e *Engine) UseSnapshotInvalidator(inv SnapshotInvalidator) {
	e.invalidator = inv
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalogs.Current()
}

func (e *Engine) Today() time.Time {
	return e.policy.Today()
}

// Book evaluates the request and stores it when accepted. Rejections are
// returned as results; an error means the store failed and nothing was written.
func (e *Engine) Book(ctx context.Context, req models.BookingRequest) (*BookingResult, error) {
	started := time.Now()
	defer func() { metrics.ObserveBookingDuration(time.Since(started)) }()

	cat := e.catalogs.Current()
	logger := e.logger.With().
		Str("user_id", req.UserID).
		Str("resource_type", req.ResourceType).
		Str("start_date", req.StartDate).
		Logger()

	cand, decision, ok := e.policy.Validate(cat, req)
	if !ok {
		logger.Debug().Str("reason", string(decision.Reason)).Msg("Booking rejected")
		metrics.IncBooking(string(decision.Outcome))
		return rejection(decision), nil
	}

	decision, reservation, err := e.commit(ctx, cand)
	if err != nil {
		logger.Error().Err(err).Msg("Booking failed")
		metrics.IncBooking("error")
		return nil, err
	}
	metrics.IncBooking(string(decision.Outcome))

	if !decision.Accepted() {
		logger.Debug().Str("reason", string(decision.Reason)).Msg("Booking rejected")
		result := rejection(decision)
		e.attachSuggestions(ctx, cat, cand, result)
		return result, nil
	}

	logger.Info().
		Int64("reservation_id", reservation.ID).
		Str("selector", decision.Selector.String()).
		Msg("Booking accepted")

	e.afterAccept(ctx, cat, reservation)

	return &BookingResult{
		Success:     true,
		Reservation: reservation,
		Selector:    decision.Selector,
		Outcome:     models.OutcomeAccepted,
	}, nil
}

// commit runs the contention checks and the insert for one resource type
// under that type's lock.
func (e *Engine) commit(ctx context.Context, cand policy.Candidate) (policy.Decision, *models.Reservation, error) {
	unlock := e.locks.Lock(cand.Type.Key)
	defer unlock()

	decision, err := policy.CheckContention(ctx, e.store, cand)
	if err != nil {
		return policy.Decision{}, nil, err
	}
	if !decision.Accepted() {
		return decision, nil, nil
	}

	r := &models.Reservation{
		ResourceType:  cand.Type.Key,
		InstanceID:    decision.Selector.InstanceID,
		StartDate:     cand.StartDate,
		DurationUnit:  cand.DurationUnit,
		DurationValue: cand.DurationValue,
		UserID:        cand.UserID,
		Status:        models.StatusAccepted,
	}
	if err := e.store.CreateReservation(ctx, r); err != nil {
		return policy.Decision{}, nil, fmt.Errorf("store reservation: %w", err)
	}
	return decision, r, nil
}

func (e *Engine) attachSuggestions(ctx context.Context, cat *catalog.Catalog, cand policy.Candidate, result *BookingResult) {
	s := e.finder.Suggest(ctx, cat, cand)
	metrics.IncSuggestion("date", s.Date != nil)
	metrics.IncSuggestion("type", s.Type != nil)

	result.AlternativeDate = s.Date
	if s.Type != nil {
		result.AlternativeType = s.Type.Key
		result.AlternativeTypeLabel = s.Type.Label
	}
}

// afterAccept runs side effects that never change the outcome.
func (e *Engine) afterAccept(ctx context.Context, cat *catalog.Catalog, r *models.Reservation) {
	if e.invalidator != nil {
		if err := e.invalidator.Invalidate(ctx, r.ResourceType, r.UserID); err != nil {
			e.logger.Warn().Err(err).Int64("reservation_id", r.ID).Msg("Snapshot invalidation failed")
		}
	}

	if e.events == nil {
		return
	}
	payload := models.ReservationAccepted{
		Reservation: *r,
		TypeLabel:   cat.Label(r.ResourceType),
	}
	if rt, ok := cat.Type(r.ResourceType); ok {
		if inst, ok := rt.Instance(r.InstanceID); ok {
			payload.EquipmentClass = inst.EquipmentClass
		}
	}
	if err := e.events.PublishJSON(events.ReservationAccepted, payload); err != nil {
		e.logger.Warn().Err(err).Int64("reservation_id", r.ID).Msg("Failed to publish event")
	}
}

func rejection(d policy.Decision) *BookingResult {
	return &BookingResult{
		Outcome: d.Outcome,
		Reason:  d.Reason,
	}
}
