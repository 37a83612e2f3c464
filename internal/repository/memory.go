package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"coworking/internal/models"
)

var ErrInvalidReservation = errors.New("invalid reservation")

// MemoryStore keeps reservations for the lifetime of the process.
// Reads return copies, so callers never share records with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations []models.Reservation
	nextID       int64
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

// CreateReservation appends the record and assigns its id.
func (s *MemoryStore) CreateReservation(_ context.Context, r *models.Reservation) error {
	if r == nil || r.ResourceType == "" || r.DurationValue <= 0 || !r.Window().Valid() {
		return ErrInvalidReservation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	if r.Status == "" {
		r.Status = models.StatusAccepted
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	r.StartDate = models.DateOf(r.StartDate)
	s.reservations = append(s.reservations, *r)
	return nil
}

func (s *MemoryStore) GetReservationsByType(_ context.Context, typeKey string) ([]*models.Reservation, error) {
	return s.filter(func(r *models.Reservation) bool { return r.ResourceType == typeKey }), nil
}

func (s *MemoryStore) GetReservationsByUser(_ context.Context, userID string) ([]*models.Reservation, error) {
	return s.filter(func(r *models.Reservation) bool { return r.UserID == userID }), nil
}

// GetReservationsByDateRange returns reservations whose occupied window
// intersects [start, end], ordered by start date.
func (s *MemoryStore) GetReservationsByDateRange(_ context.Context, start, end time.Time) ([]*models.Reservation, error) {
	w := models.Window{Start: models.DateOf(start), End: models.DateOf(end)}
	out := s.filter(func(r *models.Reservation) bool { return r.Window().Overlaps(w) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *MemoryStore) CountReservations(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reservations), nil
}

func (s *MemoryStore) PingContext(_ context.Context) error {
	return nil
}

func (s *MemoryStore) filter(keep func(*models.Reservation) bool) []*models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Reservation, 0)
	for i := range s.reservations {
		if keep(&s.reservations[i]) {
			r := s.reservations[i]
			out = append(out, &r)
		}
	}
	return out
}
