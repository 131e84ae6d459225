package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/planner"
	"github.com/shiva/tripplanner/internal/repository"
)

// ErrInvalidPreferences is returned when merged preferences fail validation.
var ErrInvalidPreferences = errors.New("invalid preferences")

// ─── Preference defaults ────────────────────────────────────

const (
	DefaultMinDurationDays = 3
	DefaultMaxDurationDays = 5
	DefaultBudgetMin       = 800.0
	DefaultBudgetMax       = 2000.0
	DefaultTravelStyle     = "relaxing"
)

// MergeDefaults fills zero-valued fields with the service defaults.
// The default budget floor is skipped when it would exceed the ceiling.
func MergeDefaults(p model.Preferences) model.Preferences {
	if p.MinDurationDays == 0 {
		p.MinDurationDays = DefaultMinDurationDays
	}
	if p.MaxDurationDays == 0 {
		p.MaxDurationDays = max(DefaultMaxDurationDays, p.MinDurationDays)
	}
	if p.BudgetMax == 0 {
		p.BudgetMax = DefaultBudgetMax
	}
	if p.BudgetMin == 0 && DefaultBudgetMin <= p.BudgetMax {
		p.BudgetMin = DefaultBudgetMin
	}
	if strings.TrimSpace(p.TravelStyle) == "" {
		p.TravelStyle = DefaultTravelStyle
	}
	return p
}

// ValidatePreferences checks merged preferences. Errors wrap
// ErrInvalidPreferences.
func ValidatePreferences(p model.Preferences) error {
	switch {
	case p.MinDurationDays < 1:
		return fmt.Errorf("%w: min_duration_days must be at least 1", ErrInvalidPreferences)
	case p.MaxDurationDays < p.MinDurationDays:
		return fmt.Errorf("%w: max_duration_days must not be below min_duration_days", ErrInvalidPreferences)
	case p.BudgetMax <= 0:
		return fmt.Errorf("%w: budget_max must be positive", ErrInvalidPreferences)
	case p.BudgetMin < 0 || p.BudgetMin > p.BudgetMax:
		return fmt.Errorf("%w: budget_min must be between 0 and budget_max", ErrInvalidPreferences)
	case (p.StartDate == nil) != (p.EndDate == nil):
		return fmt.Errorf("%w: start_date and end_date must be given together", ErrInvalidPreferences)
	case p.HasFixedDates() && p.EndDate.Before(*p.StartDate):
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidPreferences)
	case p.MaxFlightHours != nil && *p.MaxFlightHours <= 0:
		return fmt.Errorf("%w: max_flight_hours must be positive", ErrInvalidPreferences)
	}
	return nil
}

// ─── PlanningService ────────────────────────────────────────

// PlanningService composes the planner pipeline for one request:
// merge and validate preferences, build the context, run the orchestrator,
// post-process and persist.
type PlanningService struct {
	orchestrator  *planner.Orchestrator
	post          *planner.PostProcessor
	store         repository.Store
	calendar      planner.Availability
	catalog       *catalog.Catalog
	retrieval     planner.Retriever
	defaultUserID string

	// NewID replaces a backend-supplied trip id that is already taken.
	NewID func() string
}

// NewPlanningService wires the pipeline. retrieval may be nil; pass an
// untyped nil, not a nil pointer, when retrieval is disabled.
func NewPlanningService(
	orchestrator *planner.Orchestrator,
	post *planner.PostProcessor,
	store repository.Store,
	calendar planner.Availability,
	cat *catalog.Catalog,
	retrieval planner.Retriever,
	defaultUserID string,
) *PlanningService {
	return &PlanningService{
		orchestrator:  orchestrator,
		post:          post,
		store:         store,
		calendar:      calendar,
		catalog:       cat,
		retrieval:     retrieval,
		defaultUserID: defaultUserID,
		NewID:         uuid.NewString,
	}
}

// PlanTrip produces, stores and returns a finished itinerary. An empty
// userID plans for the default user.
func (s *PlanningService) PlanTrip(ctx context.Context, userID string, prefs model.Preferences) (*model.TripPlan, error) {
	if userID == "" {
		userID = s.defaultUserID
	}
	prefs = MergeDefaults(prefs)
	if err := ValidatePreferences(prefs); err != nil {
		return nil, err
	}

	pc := &planner.Context{
		UserID:      userID,
		Preferences: prefs,
		Calendar:    s.calendar,
		Catalog:     s.catalog,
		Retrieval:   s.retrieval,
	}

	raw, err := s.orchestrator.Plan(ctx, pc)
	if err != nil {
		return nil, err
	}
	plan := s.post.Process(raw)

	if err := s.claimTripID(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.store.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}

	log.Printf("[planning] plan %s: %s %s..%s, total %.2f",
		plan.TripID, plan.Destination, plan.StartDate, plan.EndDate, plan.BudgetSummary.TotalEstimated)
	return plan, nil
}

// claimTripID keeps the backend's trip id unless a stored plan already
// uses it, in which case the new plan gets a fresh id so the earlier plan
// and its bookings are not overwritten.
func (s *PlanningService) claimTripID(ctx context.Context, plan *model.TripPlan) error {
	_, err := s.store.GetPlan(ctx, plan.TripID)
	switch {
	case errors.Is(err, repository.ErrPlanNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("planning: check trip id: %w", err)
	}
	id := s.NewID()
	log.Printf("[planning] trip id %s already stored, reassigned to %s", plan.TripID, id)
	plan.TripID = id
	return nil
}

// GetPlan returns a stored plan or repository.ErrPlanNotFound.
func (s *PlanningService) GetPlan(ctx context.Context, tripID string) (*model.TripPlan, error) {
	return s.store.GetPlan(ctx, tripID)
}
