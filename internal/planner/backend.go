// Package planner turns traveller preferences into a complete itinerary.
//
// A Backend generates a TripPlan from a Context. Two backends exist:
// Deterministic (local, reproducible) and Ollama (delegates to a remote
// text-generation service). The Orchestrator runs a primary backend and
// retries once on an optional fallback; the PostProcessor then repairs the
// result (placeholder filtering, day backfill, budget rebalancing).
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/retrieval"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrGeneration is the root of every backend failure.
	ErrGeneration = errors.New("plan generation failed")

	// ErrNoAvailableDates: no free range in the search window is long enough.
	ErrNoAvailableDates = fmt.Errorf("%w: no available dates found", ErrGeneration)

	// ErrDatesUnavailable: the requested fixed dates overlap a busy range.
	ErrDatesUnavailable = fmt.Errorf("%w: requested dates are not available", ErrGeneration)

	// ErrUpstream: transport failure, timeout or non-success response from
	// the external service.
	ErrUpstream = fmt.Errorf("%w: upstream planner unavailable", ErrGeneration)

	// ErrMalformedResponse: the external service replied with data that is
	// not parseable or misses required fields.
	ErrMalformedResponse = fmt.Errorf("%w: malformed planner response", ErrGeneration)
)

// ─── Collaborators ──────────────────────────────────────────

// Availability answers free-date questions for a user.
type Availability interface {
	IsRangeAvailable(userID string, start, end model.Date) bool
	FreeRanges(userID string, start, end model.Date) []model.DateRange
}

// Retriever returns the stored snippets most similar to a query.
type Retriever interface {
	Search(query string, topK int) []retrieval.Hit
}

// Context is everything a backend may consult for one planning request.
// The collaborators are shared and must only be read.
type Context struct {
	UserID      string
	Preferences model.Preferences
	Calendar    Availability
	Catalog     *catalog.Catalog
	// Retrieval is optional.
	Retrieval Retriever
}

// Backend generates a complete itinerary. Failures wrap ErrGeneration.
type Backend interface {
	Name() string
	Generate(ctx context.Context, pc *Context) (*model.TripPlan, error)
}
