package planner

import (
	"fmt"
	"log"
	"strings"

	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/metrics"
	"github.com/shiva/tripplanner/internal/model"
)

const (
	backfillTopK = 10

	genericActivityCost = 60.0
)

// placeholderMarkers flag boilerplate an external model sometimes copies
// from the prompt instead of producing real content. Matched case-insensitively.
var placeholderMarkers = []string{
	"sample activity",
	"short description",
	"lorem ipsum",
	"placeholder",
}

// PostProcessor repairs a generated plan before it is stored.
type PostProcessor struct {
	catalog   *catalog.Catalog
	retrieval Retriever
}

// NewPostProcessor creates a post-processor. retrieval may be nil.
func NewPostProcessor(cat *catalog.Catalog, retrieval Retriever) *PostProcessor {
	return &PostProcessor{catalog: cat, retrieval: retrieval}
}

// Process returns a repaired copy of plan; the input is left untouched.
//
// Steps:
//  1. Align days to StartDate..EndDate, one entry per calendar day.
//  2. Drop placeholder activities.
//  3. Backfill empty days from retrieval, else the catalog, else a
//     generic city walk; day i takes pool[i mod len(pool)].
//  4. Rebalance: recompute the activities subtotal and set the total to
//     flight + hotel + activities. The BudgetMax clamp applied by the
//     deterministic backend is not reapplied here.
func (p *PostProcessor) Process(plan *model.TripPlan) *model.TripPlan {
	out := plan.Clone()
	out.Days = alignDays(out)

	for i := range out.Days {
		out.Days[i].Activities = dropPlaceholders(out.Days[i].Activities)
	}

	var pool []model.Activity
	filled := 0
	for i := range out.Days {
		if len(out.Days[i].Activities) > 0 {
			continue
		}
		if pool == nil {
			pool = p.backfillPool(out.Destination)
		}
		out.Days[i].Activities = []model.Activity{pool[i%len(pool)]}
		filled++
	}
	if filled > 0 {
		metrics.BackfilledDays.Add(float64(filled))
		log.Printf("[planner] backfilled %d empty day(s) in plan %s", filled, out.TripID)
	}

	out.BudgetSummary = rebalance(out.BudgetSummary, out.Days)
	return out
}

// alignDays returns exactly one DayPlan per date in the plan's range.
// Activities of duplicate dates are merged; dates outside the range are
// dropped. If the range is inverted the days are kept as they are.
func alignDays(plan *model.TripPlan) []model.DayPlan {
	if plan.EndDate.Before(plan.StartDate) {
		return plan.Days
	}

	byDate := make(map[string][]model.Activity, len(plan.Days))
	for _, d := range plan.Days {
		key := d.Date.String()
		byDate[key] = append(byDate[key], d.Activities...)
	}

	n := plan.DayCount()
	days := make([]model.DayPlan, n)
	for i := range days {
		date := plan.StartDate.AddDays(i)
		acts := byDate[date.String()]
		if acts == nil {
			acts = []model.Activity{}
		}
		days[i] = model.DayPlan{Date: date, Activities: acts}
	}
	return days
}

func dropPlaceholders(acts []model.Activity) []model.Activity {
	kept := make([]model.Activity, 0, len(acts))
	for _, a := range acts {
		if isPlaceholder(a.Title) || isPlaceholder(a.Description) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func isPlaceholder(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (p *PostProcessor) backfillPool(destination string) []model.Activity {
	if pool := retrievalPool(p.retrieval, destination, backfillTopK); len(pool) > 0 {
		return pool
	}
	if p.catalog != nil && p.catalog.Has(destination) {
		if pool := catalogPool(p.catalog.Lookup(destination).Activities); len(pool) > 0 {
			return pool
		}
	}
	return []model.Activity{genericActivity(destination)}
}

func genericActivity(destination string) model.Activity {
	return model.Activity{
		TimeOfDay:    model.Afternoon,
		Title:        fmt.Sprintf("%s city walk", destination),
		Description:  fmt.Sprintf("Self-guided walk through the highlights of %s.", destination),
		CostEstimate: genericActivityCost,
	}
}

// rebalance keeps the flight and hotel subtotals, recomputes activities
// and makes the total equal the sum of the three.
func rebalance(b model.BudgetSummary, days []model.DayPlan) model.BudgetSummary {
	flight := b.Breakdown[model.CategoryFlight]
	hotel := b.Breakdown[model.CategoryHotel]
	activities := activityTotal(days)

	return model.BudgetSummary{
		TotalEstimated: flight + hotel + activities,
		Breakdown: map[string]float64{
			model.CategoryFlight:     flight,
			model.CategoryHotel:      hotel,
			model.CategoryActivities: activities,
		},
	}
}
