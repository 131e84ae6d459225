package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiva/tripplanner/internal/model"
)

// Simulated booking providers.
const (
	ProviderAir      = "mock-air"
	ProviderHotel    = "mock-hotel"
	ProviderActivity = "mock-activity"
)

// BookingSimulator turns a finished plan into booking records without
// contacting any provider.
type BookingSimulator struct {
	Now   func() time.Time
	NewID func() string
}

// NewBookingSimulator creates a simulator using the wall clock and random ids.
func NewBookingSimulator() *BookingSimulator {
	return &BookingSimulator{Now: time.Now, NewID: uuid.NewString}
}

// Reserve returns one flight and one hotel record priced from the budget
// breakdown, then one record per booking-required activity in day order.
// Every record is confirmed/authorized when paymentAllowed, else
// failed/failed.
func (s *BookingSimulator) Reserve(plan *model.TripPlan, paymentAllowed bool) []model.BookingRecord {
	status, payment := model.BookingConfirmed, model.PaymentAuthorized
	if !paymentAllowed {
		status, payment = model.BookingFailed, model.PaymentFailed
	}
	now := s.Now().UTC()

	newRecord := func(typ model.BookingType, provider string, price float64, ref *string) model.BookingRecord {
		return model.BookingRecord{
			BookingID:     s.NewID(),
			UserID:        plan.UserID,
			TripID:        plan.TripID,
			Type:          typ,
			Status:        status,
			Provider:      provider,
			Price:         price,
			CreatedAt:     now,
			PaymentStatus: payment,
			Reference:     ref,
		}
	}

	breakdown := plan.BudgetSummary.Breakdown
	recs := []model.BookingRecord{
		newRecord(model.BookingFlight, ProviderAir, breakdown[model.CategoryFlight], nil),
		newRecord(model.BookingHotel, ProviderHotel, breakdown[model.CategoryHotel], nil),
	}
	for _, day := range plan.Days {
		for _, a := range day.Activities {
			if !a.BookingRequired {
				continue
			}
			title := a.Title
			recs = append(recs, newRecord(model.BookingActivity, ProviderActivity, a.CostEstimate, &title))
		}
	}
	return recs
}
