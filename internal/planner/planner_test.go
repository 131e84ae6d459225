package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiva/tripplanner/internal/availability"
	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/retrieval"
)

const testUser = "demo-user"

var testNow = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

func today() model.Date { return model.DateOf(testNow) }

// fakeRetriever returns fixed hits regardless of the query.
type fakeRetriever struct {
	hits    []retrieval.Hit
	queries []string
}

func (f *fakeRetriever) Search(query string, topK int) []retrieval.Hit {
	f.queries = append(f.queries, query)
	if topK < len(f.hits) {
		return f.hits[:topK]
	}
	return f.hits
}

// failingBackend always fails with err.
type failingBackend struct{ err error }

func (f failingBackend) Name() string { return "failing" }
func (f failingBackend) Generate(context.Context, *Context) (*model.TripPlan, error) {
	return nil, f.err
}

func newDeterministic() *Deterministic {
	d := NewDeterministic(testUser, DefaultSearchWindowDays)
	d.Now = func() time.Time { return testNow }
	n := 0
	d.NewID = func() string {
		n++
		return fmt.Sprintf("trip-%d", n)
	}
	return d
}

func defaultPrefs() model.Preferences {
	return model.Preferences{
		Destinations:    []string{"Lisbon"},
		MinDurationDays: 3,
		MaxDurationDays: 5,
		BudgetMin:       800,
		BudgetMax:       2000,
		TravelStyle:     "relaxing",
	}
}

func newContext(prefs model.Preferences, cal *availability.Calendar) *Context {
	return &Context{
		UserID:      testUser,
		Preferences: prefs,
		Calendar:    cal,
		Catalog:     catalog.Default(),
	}
}

func seededCalendar() *availability.Calendar {
	cal := availability.NewCalendar()
	cal.Seed(testUser, []model.DateRange{
		{Start: today().AddDays(5), End: today().AddDays(7)},
		{Start: today().AddDays(20), End: today().AddDays(22)},
	})
	return cal
}

// ─── Deterministic ──────────────────────────────────────────

func TestDeterministic_RespectsBudgetAndDestination(t *testing.T) {
	prefs := defaultPrefs()
	prefs.BudgetMax = 900

	plan, err := newDeterministic().Generate(context.Background(), newContext(prefs, availability.NewCalendar()))
	require.NoError(t, err)

	assert.Equal(t, "Lisbon", plan.Destination)
	assert.LessOrEqual(t, plan.BudgetSummary.TotalEstimated, 900.0)
	assert.GreaterOrEqual(t, len(plan.Days), prefs.MinDurationDays)
	assert.Equal(t, 450.0, plan.BudgetSummary.Breakdown[model.CategoryFlight])
	assert.Equal(t, testUser, plan.UserID)
}

func TestDeterministic_AvoidsBusyRanges(t *testing.T) {
	plan, err := newDeterministic().Generate(context.Background(), newContext(defaultPrefs(), seededCalendar()))
	require.NoError(t, err)

	busy1Start, busy1End := today().AddDays(5), today().AddDays(7)
	startsBefore := plan.StartDate.Before(busy1Start)
	startsAfter := plan.StartDate.After(busy1End)
	assert.True(t, startsBefore || startsAfter, "start %s inside busy range", plan.StartDate)

	n := plan.DayCount()
	assert.GreaterOrEqual(t, n, 3)
	assert.LessOrEqual(t, n, 5)
	assert.Len(t, plan.Days, n)

	for _, b := range seededCalendar().BusyRanges(testUser) {
		assert.False(t, model.DateRange{Start: plan.StartDate, End: plan.EndDate}.Overlaps(b))
	}
	for i, day := range plan.Days {
		assert.True(t, day.Date.Equal(plan.StartDate.AddDays(i)))
	}
}

func TestDeterministic_SkipsShortRanges(t *testing.T) {
	prefs := defaultPrefs()
	prefs.MinDurationDays = 6
	prefs.MaxDurationDays = 8

	plan, err := newDeterministic().Generate(context.Background(), newContext(prefs, seededCalendar()))
	require.NoError(t, err)

	// today..today+4 is only 5 days; the next free range starts at today+8.
	assert.True(t, plan.StartDate.Equal(today().AddDays(8)))
	assert.Equal(t, 8, plan.DayCount())
}

func TestDeterministic_NoAvailableDates(t *testing.T) {
	prefs := defaultPrefs()
	prefs.MinDurationDays = 200
	prefs.MaxDurationDays = 200

	_, err := newDeterministic().Generate(context.Background(), newContext(prefs, seededCalendar()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAvailableDates)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestDeterministic_FixedDates(t *testing.T) {
	t.Run("free", func(t *testing.T) {
		prefs := defaultPrefs()
		start, end := today().AddDays(10), today().AddDays(12)
		prefs.StartDate, prefs.EndDate = &start, &end

		plan, err := newDeterministic().Generate(context.Background(), newContext(prefs, seededCalendar()))
		require.NoError(t, err)
		assert.True(t, plan.StartDate.Equal(start))
		assert.True(t, plan.EndDate.Equal(end))
		assert.Len(t, plan.Days, 3)
	})

	t.Run("overlapping busy range", func(t *testing.T) {
		prefs := defaultPrefs()
		start, end := today().AddDays(4), today().AddDays(6)
		prefs.StartDate, prefs.EndDate = &start, &end

		_, err := newDeterministic().Generate(context.Background(), newContext(prefs, seededCalendar()))
		assert.ErrorIs(t, err, ErrDatesUnavailable)
		assert.NotErrorIs(t, err, ErrNoAvailableDates)
	})
}

func TestDeterministic_DestinationSelection(t *testing.T) {
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"first known wins", []string{"Atlantis", "Bali", "Lisbon"}, "Bali"},
		{"none known", []string{"Atlantis"}, "Lisbon"},
		{"empty", nil, "Lisbon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := defaultPrefs()
			prefs.Destinations = tt.prefs
			plan, err := newDeterministic().Generate(context.Background(), newContext(prefs, availability.NewCalendar()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Destination)
		})
	}
}

func TestDeterministic_BudgetMath(t *testing.T) {
	prefs := defaultPrefs()
	prefs.Destinations = []string{"Bali"}
	prefs.BudgetMax = 10000
	start, end := today(), today().AddDays(3)
	prefs.StartDate, prefs.EndDate = &start, &end

	plan, err := newDeterministic().Generate(context.Background(), newContext(prefs, availability.NewCalendar()))
	require.NoError(t, err)

	// 4 days cycle two catalog activities: 80 + 55 + 80 + 55.
	b := plan.BudgetSummary
	assert.Equal(t, 900.0, b.Breakdown[model.CategoryFlight])
	assert.Equal(t, 3*120.0, b.Breakdown[model.CategoryHotel])
	assert.Equal(t, 270.0, b.Breakdown[model.CategoryActivities])
	assert.Equal(t, 900.0+360.0+270.0, b.TotalEstimated)

	assert.Equal(t, "Rice terrace sunrise", plan.Days[0].Activities[0].Title)
	assert.Equal(t, "Cooking class", plan.Days[1].Activities[0].Title)
	assert.Equal(t, "Rice terrace sunrise", plan.Days[2].Activities[0].Title)
	assert.Equal(t, model.Morning, plan.Days[0].Activities[0].TimeOfDay)
}

func TestDeterministic_SingleDayBillsOneNight(t *testing.T) {
	prefs := defaultPrefs()
	prefs.BudgetMax = 10000
	start := today()
	prefs.StartDate, prefs.EndDate = &start, &start

	plan, err := newDeterministic().Generate(context.Background(), newContext(prefs, availability.NewCalendar()))
	require.NoError(t, err)
	assert.Equal(t, 160.0, plan.BudgetSummary.Breakdown[model.CategoryHotel])
}

func TestDeterministic_UsesRetrievalPoolAndTip(t *testing.T) {
	r := &fakeRetriever{hits: []retrieval.Hit{
		{DocID: "a", Text: "Tram 28 ride | Ride the historic tram | 3.50 EUR | afternoon\nFado night | Live music in Alfama | 25 | evening"},
		{DocID: "b", Text: "Belem tower | Visit the tower | free"},
	}}
	pc := newContext(defaultPrefs(), availability.NewCalendar())
	pc.Retrieval = r

	plan, err := newDeterministic().Generate(context.Background(), pc)
	require.NoError(t, err)
	require.Len(t, plan.Days, 5)

	first := plan.Days[0].Activities[0]
	assert.Equal(t, "Tram 28 ride", first.Title)
	assert.Equal(t, 3.5, first.CostEstimate)
	assert.Equal(t, model.Afternoon, first.TimeOfDay)
	assert.Equal(t,
		"Ride the historic tram | Local tip: Tram 28 ride | Ride the historic tram | 3.50 EUR | afternoon",
		first.Description)

	assert.Equal(t, "Fado night", plan.Days[1].Activities[0].Title)
	assert.Equal(t, "Belem tower", plan.Days[2].Activities[0].Title)
	assert.Equal(t, DefaultActivityCost, plan.Days[2].Activities[0].CostEstimate)
	assert.Equal(t, "Tram 28 ride", plan.Days[3].Activities[0].Title)
	assert.Contains(t, r.queries, "Lisbon")
}

func TestDeterministic_Idempotent(t *testing.T) {
	pc := newContext(defaultPrefs(), seededCalendar())
	pc.Retrieval = &fakeRetriever{hits: []retrieval.Hit{{Text: "Tip line"}}}

	a, err := newDeterministic().Generate(context.Background(), pc)
	require.NoError(t, err)
	b, err := newDeterministic().Generate(context.Background(), pc)
	require.NoError(t, err)

	b.TripID = a.TripID
	assert.Equal(t, a, b)
}

func TestDeterministic_FreshTripIDs(t *testing.T) {
	d := NewDeterministic(testUser, 0)
	pc := newContext(defaultPrefs(), availability.NewCalendar())
	a, err := d.Generate(context.Background(), pc)
	require.NoError(t, err)
	b, err := d.Generate(context.Background(), pc)
	require.NoError(t, err)
	assert.NotEqual(t, a.TripID, b.TripID)
	assert.NotEmpty(t, a.TripID)
}

// ─── Activity parsing ───────────────────────────────────────

func TestParseActivityLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want model.Activity
	}{
		{
			line: "Tram ride | Historic tram | 3.5 | Afternoon",
			ok:   true,
			want: model.Activity{TimeOfDay: model.Afternoon, Title: "Tram ride", Description: "Historic tram", CostEstimate: 3.5},
		},
		{
			line: "Sunset cruise | On the river | about 45 euros | late evening or afternoon",
			ok:   true,
			want: model.Activity{TimeOfDay: model.Evening, Title: "Sunset cruise", Description: "On the river", CostEstimate: 45},
		},
		{
			line: "Museum | | n/a | night",
			ok:   true,
			want: model.Activity{TimeOfDay: model.Morning, Title: "Museum", Description: "Museum", CostEstimate: DefaultActivityCost},
		},
		{
			line: "  Just a heading  ",
			ok:   true,
			want: model.Activity{TimeOfDay: model.Morning, Title: "Just a heading", Description: "Just a heading", CostEstimate: DefaultActivityCost},
		},
		{line: " | no title", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseActivityLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLocalTip_TruncatesToFirstLine(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "x"
	}
	r := &fakeRetriever{hits: []retrieval.Hit{{Text: "\n  " + long + "\nsecond line"}}}
	tip := localTip(r, "Lisbon")
	assert.Len(t, tip, 200)

	r = &fakeRetriever{hits: []retrieval.Hit{{Text: "short\nsecond"}}}
	assert.Equal(t, "short", localTip(r, "Lisbon"))
	assert.Equal(t, "", localTip(&fakeRetriever{}, "Lisbon"))
	assert.Equal(t, "", localTip(nil, "Lisbon"))
}

// ─── Orchestrator ───────────────────────────────────────────

func TestOrchestrator_FallbackMatchesDirectCall(t *testing.T) {
	pc := newContext(defaultPrefs(), seededCalendar())

	direct, err := newDeterministic().Generate(context.Background(), pc)
	require.NoError(t, err)

	orch := NewOrchestrator(failingBackend{err: ErrUpstream}, newDeterministic())
	plan, err := orch.Plan(context.Background(), pc)
	require.NoError(t, err)
	assert.Equal(t, direct, plan)
}

func TestOrchestrator_PrimarySuccessSkipsFallback(t *testing.T) {
	pc := newContext(defaultPrefs(), availability.NewCalendar())
	orch := NewOrchestrator(newDeterministic(), failingBackend{err: errors.New("must not run")})
	plan, err := orch.Plan(context.Background(), pc)
	require.NoError(t, err)
	assert.Equal(t, "trip-1", plan.TripID)
}

func TestOrchestrator_NoFallbackPropagates(t *testing.T) {
	orch := NewOrchestrator(failingBackend{err: ErrMalformedResponse}, nil)
	_, err := orch.Plan(context.Background(), newContext(defaultPrefs(), availability.NewCalendar()))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestOrchestrator_FallbackFailurePropagates(t *testing.T) {
	prefs := defaultPrefs()
	prefs.MinDurationDays = 500
	orch := NewOrchestrator(failingBackend{err: ErrUpstream}, newDeterministic())
	_, err := orch.Plan(context.Background(), newContext(prefs, availability.NewCalendar()))
	assert.ErrorIs(t, err, ErrNoAvailableDates)
	assert.NotErrorIs(t, err, ErrUpstream)
}
