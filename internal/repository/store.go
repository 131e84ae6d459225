// Package repository persists trip plans and booking records.
//
// MemoryStore is the default. PostgresStore keeps plans and bookings in
// PostgreSQL; CachedStore puts a Redis read-through cache of plans in front
// of either.
package repository

import (
	"context"
	"errors"

	"github.com/shiva/tripplanner/internal/model"
)

// ErrPlanNotFound is returned when no plan exists for a trip id.
// Handlers translate it into HTTP 404.
var ErrPlanNotFound = errors.New("plan not found")

// Store is the persistence contract shared by the planning and booking
// services. Saved values are copies; callers may keep using theirs.
type Store interface {
	SavePlan(ctx context.Context, plan *model.TripPlan) error
	GetPlan(ctx context.Context, tripID string) (*model.TripPlan, error)
	SaveBooking(ctx context.Context, rec model.BookingRecord) error
	// SaveBookings stores all records or none of them.
	SaveBookings(ctx context.Context, recs []model.BookingRecord) error
	// ListBookings returns the bookings of a trip in insertion order.
	ListBookings(ctx context.Context, tripID string) ([]model.BookingRecord, error)
}
