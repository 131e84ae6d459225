package planner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/model"
)

const (
	// DefaultSearchWindowDays is how far ahead free dates are searched.
	DefaultSearchWindowDays = 90

	poolTopK = 5
)

// Deterministic is the local reference backend. Given the same
// preferences, collaborator state and clock it produces the same plan,
// apart from the trip id.
//
// Algorithm:
//  1. Destination: first preference the catalog knows, else the default.
//  2. Dates: fixed dates must be free for the default user; otherwise the
//     first free range of at least MinDurationDays in the search window,
//     trimmed to MaxDurationDays.
//  3. Activity pool: retrieval hits for the destination, else the catalog.
//  4. Day i gets pool[i mod len(pool)], plus a retrieval local tip.
//  5. Budget: flight + nights × nightly rate + activities, reported total
//     clamped to BudgetMax.
type Deterministic struct {
	defaultUserID string
	windowDays    int

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewDeterministic creates the backend. Availability is checked against
// defaultUserID.
func NewDeterministic(defaultUserID string, windowDays int) *Deterministic {
	if windowDays <= 0 {
		windowDays = DefaultSearchWindowDays
	}
	return &Deterministic{
		defaultUserID: defaultUserID,
		windowDays:    windowDays,
		Now:           time.Now,
		NewID:         uuid.NewString,
	}
}

func (d *Deterministic) Name() string { return "mock" }

// Generate builds the itinerary.
func (d *Deterministic) Generate(_ context.Context, pc *Context) (*model.TripPlan, error) {
	prefs := pc.Preferences

	destination := d.selectDestination(prefs, pc.Catalog)
	start, end, err := d.selectDates(prefs, pc.Calendar)
	if err != nil {
		return nil, err
	}
	dayCount := start.DaysUntil(end) + 1
	data := pc.Catalog.Lookup(destination)

	pool := retrievalPool(pc.Retrieval, destination, poolTopK)
	if len(pool) == 0 {
		pool = catalogPool(data.Activities)
	}
	tip := localTip(pc.Retrieval, destination)

	days := make([]model.DayPlan, dayCount)
	for i := range days {
		days[i] = model.DayPlan{Date: start.AddDays(i), Activities: []model.Activity{}}
		if len(pool) == 0 {
			continue
		}
		act := pool[i%len(pool)]
		if tip != "" {
			act.Description = fmt.Sprintf("%s | Local tip: %s", act.Description, tip)
		}
		days[i].Activities = append(days[i].Activities, act)
	}

	plan := &model.TripPlan{
		TripID:        d.NewID(),
		UserID:        pc.UserID,
		Destination:   destination,
		StartDate:     start,
		EndDate:       end,
		Days:          days,
		BudgetSummary: buildBudget(prefs, data, days),
	}

	log.Printf("[planner] generated plan %s for user %s to %s (%s..%s)",
		plan.TripID, plan.UserID, destination, start, end)
	return plan, nil
}

func (d *Deterministic) selectDestination(prefs model.Preferences, cat *catalog.Catalog) string {
	for _, dest := range prefs.Destinations {
		if cat.Has(dest) {
			return dest
		}
	}
	return cat.DefaultDestination()
}

func (d *Deterministic) selectDates(prefs model.Preferences, cal Availability) (model.Date, model.Date, error) {
	if prefs.HasFixedDates() {
		start, end := *prefs.StartDate, *prefs.EndDate
		if cal.IsRangeAvailable(d.defaultUserID, start, end) {
			return start, end, nil
		}
		return model.Date{}, model.Date{}, fmt.Errorf("%w: %s..%s", ErrDatesUnavailable, start, end)
	}

	today := model.DateOf(d.Now())
	for _, r := range cal.FreeRanges(d.defaultUserID, today, today.AddDays(d.windowDays)) {
		length := r.Days()
		if length < prefs.MinDurationDays {
			continue
		}
		duration := length
		if prefs.MaxDurationDays > 0 && prefs.MaxDurationDays < duration {
			duration = prefs.MaxDurationDays
		}
		return r.Start, r.Start.AddDays(duration - 1), nil
	}
	return model.Date{}, model.Date{}, fmt.Errorf("%w: need %d days within %d-day window",
		ErrNoAvailableDates, prefs.MinDurationDays, d.windowDays)
}

func buildBudget(prefs model.Preferences, data catalog.Destination, days []model.DayPlan) model.BudgetSummary {
	activities := activityTotal(days)

	nights := len(days) - 1
	if nights < 1 {
		nights = 1
	}
	hotel := float64(nights) * data.Hotel.PricePerNight
	flight := data.Flight.Price

	total := flight + hotel + activities
	if prefs.BudgetMax > 0 && total > prefs.BudgetMax {
		// Reporting clamp only; the itinerary itself is not re-planned.
		total = prefs.BudgetMax
	}

	return model.BudgetSummary{
		TotalEstimated: total,
		Breakdown: map[string]float64{
			model.CategoryFlight:     flight,
			model.CategoryHotel:      hotel,
			model.CategoryActivities: activities,
		},
	}
}

func activityTotal(days []model.DayPlan) float64 {
	var sum float64
	for _, day := range days {
		for _, a := range day.Activities {
			sum += a.CostEstimate
		}
	}
	return sum
}
