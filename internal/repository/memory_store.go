package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/shiva/tripplanner/internal/model"
)

// MemoryStore keeps plans and bookings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	plans    map[string]*model.TripPlan
	bookings map[string][]model.BookingRecord // keyed by trip id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:    make(map[string]*model.TripPlan),
		bookings: make(map[string][]model.BookingRecord),
	}
}

// SavePlan inserts or replaces the plan with the same trip id.
func (s *MemoryStore) SavePlan(_ context.Context, plan *model.TripPlan) error {
	if plan == nil || plan.TripID == "" {
		return fmt.Errorf("save plan: missing trip id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.TripID] = plan.Clone()
	return nil
}

func (s *MemoryStore) GetPlan(_ context.Context, tripID string) (*model.TripPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[tripID]
	if !ok {
		return nil, fmt.Errorf("get plan %s: %w", tripID, ErrPlanNotFound)
	}
	return plan.Clone(), nil
}

func (s *MemoryStore) SaveBooking(ctx context.Context, rec model.BookingRecord) error {
	return s.SaveBookings(ctx, []model.BookingRecord{rec})
}

func (s *MemoryStore) SaveBookings(_ context.Context, recs []model.BookingRecord) error {
	for _, rec := range recs {
		if rec.BookingID == "" || rec.TripID == "" {
			return fmt.Errorf("save bookings: record without booking or trip id")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.bookings[rec.TripID] = append(s.bookings[rec.TripID], rec)
	}
	return nil
}

func (s *MemoryStore) ListBookings(_ context.Context, tripID string) ([]model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.BookingRecord{}, s.bookings[tripID]...), nil
}
