// Package queue publishes booking events to the message broker.
package queue

import (
	"time"

	"github.com/shiva/tripplanner/internal/model"
)

// DefaultQueue is the queue trip.booked events are published to.
const DefaultQueue = "trip.booked"

// TripBookedEvent is published once per booking batch. It carries enough
// for downstream consumers to notify or report without reading the store.
type TripBookedEvent struct {
	TripID      string   `json:"trip_id"`
	UserID      string   `json:"user_id"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	BookingIDs  []string `json:"booking_ids"`
	Confirmed   int      `json:"confirmed"`
	Failed      int      `json:"failed"`
	TotalPrice  float64  `json:"total_price"`
	BookedAt    string   `json:"booked_at"`
}

// NewTripBookedEvent summarises the records created for plan.
func NewTripBookedEvent(plan *model.TripPlan, recs []model.BookingRecord, at time.Time) TripBookedEvent {
	ev := TripBookedEvent{
		TripID:      plan.TripID,
		UserID:      plan.UserID,
		Destination: plan.Destination,
		StartDate:   plan.StartDate.String(),
		EndDate:     plan.EndDate.String(),
		BookingIDs:  make([]string, 0, len(recs)),
		BookedAt:    at.UTC().Format(time.RFC3339),
	}
	for _, r := range recs {
		ev.BookingIDs = append(ev.BookingIDs, r.BookingID)
		ev.TotalPrice += r.Price
		switch r.Status {
		case model.BookingConfirmed:
			ev.Confirmed++
		case model.BookingFailed:
			ev.Failed++
		}
	}
	return ev
}
