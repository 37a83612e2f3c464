// Package cache keeps short-lived redis snapshots of reservation lists for
// advisory reads such as alternative suggestions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coworking/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	typeKeyPrefix = "coworking:reservations:type:"
	userKeyPrefix = "coworking:reservations:user:"
)

// Source is the authoritative store behind the snapshot.
type Source interface {
	GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error)
	GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error)
}

// SnapshotReader is a read-through cache over Source. Redis failures other
// than a miss are returned so the caller can fall back to Source.
type SnapshotReader struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewSnapshotReader(source Source, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *SnapshotReader {
	l := logger.With().Str("component", "snapshot_cache").Logger()
	return &SnapshotReader{
		source: source,
		redis:  client,
		ttl:    ttl,
		logger: &l,
	}
}

func (s *SnapshotReader) GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error) {
	return s.load(ctx, typeKeyPrefix+typeKey, func() ([]*models.Reservation, error) {
		return s.source.GetReservationsByType(ctx, typeKey)
	})
}

func (s *SnapshotReader) GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error) {
	return s.load(ctx, userKeyPrefix+userID, func() ([]*models.Reservation, error) {
		return s.source.GetReservationsByUser(ctx, userID)
	})
}

// Invalidate drops the snapshots touched by a new reservation.
func (s *SnapshotReader) Invalidate(ctx context.Context, typeKey, userID string) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, typeKeyPrefix+typeKey, userKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotReader) load(ctx context.Context, key string, fetch func() ([]*models.Reservation, error)) ([]*models.Reservation, error) {
	if s.redis == nil || s.ttl <= 0 {
		return fetch()
	}

	var cached []*models.Reservation
	hit, err := s.readCache(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached, nil
	}

	res, err := fetch()
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, res)
	return res, nil
}

func (s *SnapshotReader) readCache(ctx context.Context, key string, out any) (bool, error) {
	val, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dropping corrupt snapshot")
		return false, nil
	}
	return true, nil
}

func (s *SnapshotReader) writeCache(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("Snapshot write failed")
	}
}
