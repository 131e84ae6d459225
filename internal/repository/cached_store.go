package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiva/tripplanner/internal/model"
)

const (
	planKeyPrefix       = "plan:"
	DefaultPlanCacheTTL = 10 * time.Minute
)

// CachedStore is a read-through Redis cache of plans in front of another
// Store. Bookings always go to the underlying store. Redis failures are
// logged and never fail the call.
type CachedStore struct {
	next  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedStore wraps next. ttl <= 0 uses DefaultPlanCacheTTL.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultPlanCacheTTL
	}
	return &CachedStore{next: next, redis: client, ttl: ttl}
}

// SavePlan writes through to the underlying store, then refreshes the cache.
func (s *CachedStore) SavePlan(ctx context.Context, plan *model.TripPlan) error {
	if err := s.next.SavePlan(ctx, plan); err != nil {
		return err
	}
	s.cache(ctx, plan)
	return nil
}

// GetPlan serves from Redis when possible. On a miss the plan is loaded
// from the underlying store and cached.
func (s *CachedStore) GetPlan(ctx context.Context, tripID string) (*model.TripPlan, error) {
	// ── Fast path: Redis ────────────────────────────────
	raw, err := s.redis.Get(ctx, planKeyPrefix+tripID).Bytes()
	switch {
	case err == nil:
		var plan model.TripPlan
		if jerr := json.Unmarshal(raw, &plan); jerr == nil {
			return &plan, nil
		}
		log.Printf("[cache] dropping undecodable plan %s", tripID)
		_ = s.redis.Del(ctx, planKeyPrefix+tripID).Err()
	case !errors.Is(err, redis.Nil):
		log.Printf("[cache] get plan %s: %v", tripID, err)
	}

	// ── Slow path: underlying store ─────────────────────
	plan, err := s.next.GetPlan(ctx, tripID)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, plan)
	return plan, nil
}

func (s *CachedStore) cache(ctx context.Context, plan *model.TripPlan) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, planKeyPrefix+plan.TripID, raw, s.ttl).Err(); err != nil {
		log.Printf("[cache] set plan %s: %v", plan.TripID, err)
	}
}

func (s *CachedStore) SaveBooking(ctx context.Context, rec model.BookingRecord) error {
	return s.next.SaveBooking(ctx, rec)
}

func (s *CachedStore) SaveBookings(ctx context.Context, recs []model.BookingRecord) error {
	return s.next.SaveBookings(ctx, recs)
}

func (s *CachedStore) ListBookings(ctx context.Context, tripID string) ([]model.BookingRecord, error) {
	return s.next.ListBookings(ctx, tripID)
}
