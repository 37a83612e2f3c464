package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"coworking/internal/models"
	"github.com/rs/zerolog"
)

const recheckInterval = time.Minute

// ReservationReader is the read side shared by the store and its snapshots.
type ReservationReader interface {
	GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error)
	GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error)
}

// FailoverReader reads from primary and falls back on error. After a
// failure the primary is skipped until recheckInterval has passed.
type FailoverReader struct {
	primary  ReservationReader
	fallback ReservationReader
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverReader(primary, fallback ReservationReader, logger *zerolog.Logger) *FailoverReader {
	return &FailoverReader{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverReader) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) < recheckInterval {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverReader) markDown(err error, op string) {
	if !r.isDown.Swap(true) {
		r.logger.Warn().Err(err).Str("op", op).Msg("Primary reader failed, switching to fallback")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverReader) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary reader recovered")
	}
}

func (r *FailoverReader) GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error) {
	if r.usePrimary() {
		res, err := r.primary.GetReservationsByType(ctx, typeKey)
		if err == nil {
			r.markUp()
			return res, nil
		}
		r.markDown(err, "GetReservationsByType")
	}
	return r.fallback.GetReservationsByType(ctx, typeKey)
}

func (r *FailoverReader) GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error) {
	if r.usePrimary() {
		res, err := r.primary.GetReservationsByUser(ctx, userID)
		if err == nil {
			r.markUp()
			return res, nil
		}
		r.markDown(err, "GetReservationsByUser")
	}
	return r.fallback.GetReservationsByUser(ctx, userID)
}
