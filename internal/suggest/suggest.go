// Package suggest looks for alternatives after a contention rejection.
package suggest

import (
	"context"
	"time"

	"coworking/internal/availability"
	"coworking/internal/catalog"
	"coworking/internal/models"
	"coworking/internal/policy"
	"github.com/rs/zerolog"
)

// Suggestion holds at most one alternative date and one alternative type.
type Suggestion struct {
	Date *time.Time
	Type *models.ResourceType
}

func (s Suggestion) Empty() bool {
	return s.Date == nil && s.Type == nil
}

// Finder searches a possibly stale snapshot of reservations. Its results are
// hints only; a retry is validated again in full.
type Finder struct {
	reader policy.Reader
	policy *policy.Policy
	logger *zerolog.Logger
}

func NewFinder(reader policy.Reader, p *policy.Policy, logger *zerolog.Logger) *Finder {
	l := logger.With().Str("component", "suggest").Logger()
	return &Finder{reader: reader, policy: p, logger: &l}
}

// Suggest runs both searches. Read errors end a search with nothing found.
func (f *Finder) Suggest(ctx context.Context, cat *catalog.Catalog, cand policy.Candidate) Suggestion {
	var s Suggestion
	if d, ok := f.NearestDate(ctx, cand); ok {
		s.Date = &d
	}
	if rt, ok := f.AlternativeType(ctx, cat, cand); ok {
		s.Type = &rt
	}
	return s
}

// NearestDate scans start dates desired+1 .. desired+maxAdvanceDays in order
// and returns the first with the whole window free. The scan never passes
// the booking horizon.
func (f *Finder) NearestDate(ctx context.Context, cand policy.Candidate) (time.Time, bool) {
	own, existing, err := f.load(ctx, cand.UserID, cand.Type.Key)
	if err != nil {
		f.logger.Warn().Err(err).Str("resource_type", cand.Type.Key).Msg("Nearest date search skipped")
		return time.Time{}, false
	}

	horizon := f.policy.Horizon()
	for i := 1; i <= f.policy.MaxAdvanceDays(); i++ {
		next := cand.At(cand.StartDate.AddDate(0, 0, i))
		if next.StartDate.After(horizon) {
			break
		}
		if fits(own, existing, next) {
			return next.StartDate, true
		}
	}
	return time.Time{}, false
}

// AlternativeType returns the first other type in catalog order that is free
// for the same window.
func (f *Finder) AlternativeType(ctx context.Context, cat *catalog.Catalog, cand policy.Candidate) (models.ResourceType, bool) {
	for _, rt := range cat.ListTypes() {
		if rt.Key == cand.Type.Key {
			continue
		}
		own, existing, err := f.load(ctx, cand.UserID, rt.Key)
		if err != nil {
			f.logger.Warn().Err(err).Str("resource_type", rt.Key).Msg("Alternative type search skipped")
			return models.ResourceType{}, false
		}
		if fits(own, existing, cand.WithType(rt)) {
			return rt, true
		}
	}
	return models.ResourceType{}, false
}

func (f *Finder) load(ctx context.Context, userID, typeKey string) (own, existing []*models.Reservation, err error) {
	own, err = f.reader.GetReservationsByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	existing, err = f.reader.GetReservationsByType(ctx, typeKey)
	if err != nil {
		return nil, nil, err
	}
	return own, existing, nil
}

// fits applies the same contention rules as a booking, so a suggestion is
// never one the user would be rejected on with the data at hand.
func fits(own, existing []*models.Reservation, cand policy.Candidate) bool {
	if policy.HasSelfOverlap(own, cand) {
		return false
	}
	_, ok := availability.FirstFree(existing, cand.Type, cand.Window)
	return ok
}
