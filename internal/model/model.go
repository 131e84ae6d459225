// Package model contains domain models for the vacation planning service.
// JSON field names mirror the public API (trip_id, start_date, budget_summary, ...).
package model

import "time"

// ─── Enums ──────────────────────────────────────────────────

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

type BookingType string

const (
	BookingFlight   BookingType = "flight"
	BookingHotel    BookingType = "hotel"
	BookingActivity BookingType = "activity"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingFailed    BookingStatus = "failed"
)

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentAuthorized  PaymentStatus = "authorized"
	PaymentCaptured    PaymentStatus = "captured"
	PaymentFailed      PaymentStatus = "failed"
)

// Budget breakdown categories.
const (
	CategoryFlight     = "flight"
	CategoryHotel      = "hotel"
	CategoryActivities = "activities"
)

// ─── Request ────────────────────────────────────────────────

// Preferences are the traveller's inputs for a single planning request.
// Destinations are in preference order.
type Preferences struct {
	Destinations    []string `json:"destination_preferences"`
	StartDate       *Date    `json:"start_date,omitempty"`
	EndDate         *Date    `json:"end_date,omitempty"`
	MinDurationDays int      `json:"min_duration_days"`
	MaxDurationDays int      `json:"max_duration_days"`
	BudgetMin       float64  `json:"budget_min"`
	BudgetMax       float64  `json:"budget_max"`
	TravelStyle     string   `json:"travel_style"`
	MaxFlightHours  *int     `json:"max_flight_hours,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// HasFixedDates reports whether both start and end dates were supplied.
func (p Preferences) HasFixedDates() bool {
	return p.StartDate != nil && p.EndDate != nil
}

// ─── Itinerary ──────────────────────────────────────────────

// Activity is a single slot in a day plan.
type Activity struct {
	TimeOfDay       TimeOfDay `json:"time_of_day"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CostEstimate    float64   `json:"cost_estimate"`
	BookingRequired bool      `json:"booking_required"`
}

// DayPlan holds the activities scheduled on one calendar day.
type DayPlan struct {
	Date       Date       `json:"date"`
	Activities []Activity `json:"activities"`
}

// BudgetSummary is the reported trip cost. Total equals the sum of the
// breakdown only after post-processing.
type BudgetSummary struct {
	TotalEstimated float64            `json:"total_estimated"`
	Breakdown      map[string]float64 `json:"breakdown"`
}

// TripPlan is a complete itinerary. Days cover StartDate..EndDate, one
// entry per calendar day.
type TripPlan struct {
	TripID        string        `json:"trip_id"`
	UserID        string        `json:"user_id"`
	Destination   string        `json:"destination"`
	StartDate     Date          `json:"start_date"`
	EndDate       Date          `json:"end_date"`
	Days          []DayPlan     `json:"days"`
	BudgetSummary BudgetSummary `json:"budget_summary"`
}

// DayCount returns the inclusive number of days between start and end.
func (p *TripPlan) DayCount() int {
	return p.StartDate.DaysUntil(p.EndDate) + 1
}

// Clone returns a deep copy so callers can transform a plan without
// touching the original.
func (p *TripPlan) Clone() *TripPlan {
	out := *p
	out.Days = make([]DayPlan, len(p.Days))
	for i, d := range p.Days {
		out.Days[i] = DayPlan{Date: d.Date, Activities: append([]Activity(nil), d.Activities...)}
	}
	out.BudgetSummary.Breakdown = make(map[string]float64, len(p.BudgetSummary.Breakdown))
	for k, v := range p.BudgetSummary.Breakdown {
		out.BudgetSummary.Breakdown[k] = v
	}
	return &out
}

// ─── Booking ────────────────────────────────────────────────

// BookingRecord is a simulated reservation. Never mutated after creation.
type BookingRecord struct {
	BookingID     string        `json:"booking_id"`
	UserID        string        `json:"user_id"`
	TripID        string        `json:"trip_id"`
	Type          BookingType   `json:"type"`
	Status        BookingStatus `json:"status"`
	Provider      string        `json:"provider"`
	Price         float64       `json:"price"`
	CreatedAt     time.Time     `json:"created_at"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Reference     *string       `json:"reference,omitempty"`
}

// ─── Availability ───────────────────────────────────────────

// DateRange is an inclusive start/end pair. Start must not be after End.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Days returns the inclusive length of the range.
func (r DateRange) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Overlaps reports whether r and o share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !(r.End.Before(o.Start) || r.Start.After(o.End))
}
