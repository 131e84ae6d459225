package service

import (
	"context"
	"fmt"
	"log"

	"github.com/shiva/tripplanner/internal/metrics"
	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/queue"
	"github.com/shiva/tripplanner/internal/repository"
)

// BookingService books stored plans through the simulator.
type BookingService struct {
	store     repository.Store
	simulator *BookingSimulator
	publisher queue.Publisher
}

// NewBookingService creates a booking service. A nil publisher disables
// event publishing.
func NewBookingService(store repository.Store, simulator *BookingSimulator, publisher queue.Publisher) *BookingService {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	return &BookingService{store: store, simulator: simulator, publisher: publisher}
}

// BookTrip simulates bookings for tripID and persists them as one batch.
//
// Flow:
//  1. Load the plan (repository.ErrPlanNotFound if absent).
//  2. Simulate flight, hotel and booking-required activity records.
//  3. Persist all records atomically; any failure fails the booking.
//  4. Publish a trip.booked event. Publish errors are only logged.
func (s *BookingService) BookTrip(ctx context.Context, tripID string, paymentAllowed bool) ([]model.BookingRecord, error) {
	plan, err := s.store.GetPlan(ctx, tripID)
	if err != nil {
		return nil, err
	}

	recs := s.simulator.Reserve(plan, paymentAllowed)
	if err := s.store.SaveBookings(ctx, recs); err != nil {
		return nil, fmt.Errorf("booking: persist %d records for trip %s: %w", len(recs), tripID, err)
	}

	for _, r := range recs {
		metrics.BookingsCreated.WithLabelValues(string(r.Type), string(r.Status)).Inc()
	}
	log.Printf("[booking] trip %s: %d record(s), payment allowed=%t", tripID, len(recs), paymentAllowed)

	ev := queue.NewTripBookedEvent(plan, recs, s.simulator.Now())
	if err := s.publisher.PublishTripBooked(ctx, ev); err != nil {
		log.Printf("[booking] event for trip %s not published: %v", tripID, err)
	}
	return recs, nil
}

// ListBookings returns the bookings of an existing trip.
func (s *BookingService) ListBookings(ctx context.Context, tripID string) ([]model.BookingRecord, error) {
	if _, err := s.store.GetPlan(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, tripID)
}
