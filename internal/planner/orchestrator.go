package planner

import (
	"context"
	"log"

	"github.com/shiva/tripplanner/internal/metrics"
	"github.com/shiva/tripplanner/internal/model"
)

// Orchestrator runs the primary backend and, if it fails, a single attempt
// on the fallback. It is the only place planner failures are recovered.
type Orchestrator struct {
	primary  Backend
	fallback Backend
}

// NewOrchestrator creates an orchestrator. fallback may be nil.
func NewOrchestrator(primary, fallback Backend) *Orchestrator {
	return &Orchestrator{primary: primary, fallback: fallback}
}

// Plan returns the primary's plan, or the fallback's when the primary
// fails. Fallback failures are returned as is. Without a fallback the
// primary's error is returned.
func (o *Orchestrator) Plan(ctx context.Context, pc *Context) (*model.TripPlan, error) {
	plan, err := o.primary.Generate(ctx, pc)
	if err == nil {
		metrics.BackendCalls.WithLabelValues(o.primary.Name(), "ok").Inc()
		return plan, nil
	}
	metrics.BackendCalls.WithLabelValues(o.primary.Name(), "error").Inc()
	log.Printf("[planner] backend %s failed: %v", o.primary.Name(), err)

	if o.fallback == nil {
		return nil, err
	}

	log.Printf("[planner] falling back to %s", o.fallback.Name())
	metrics.Fallbacks.Inc()
	plan, err = o.fallback.Generate(ctx, pc)
	if err != nil {
		metrics.BackendCalls.WithLabelValues(o.fallback.Name(), "error").Inc()
		return nil, err
	}
	metrics.BackendCalls.WithLabelValues(o.fallback.Name(), "ok").Inc()
	return plan, nil
}
