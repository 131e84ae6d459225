package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/service"
)

// PlanHandler handles itinerary creation and lookup.
type PlanHandler struct {
	planning *service.PlanningService
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(planning *service.PlanningService) *PlanHandler {
	return &PlanHandler{planning: planning}
}

// PlanResponse wraps a newly created plan.
type PlanResponse struct {
	Plan *model.TripPlan `json:"plan"`
}

// CreatePlan handles POST /plan
//
// Body: Preferences JSON. Omitted fields take the service defaults.
// Plans are created for the configured default user.
//
// Response codes:
//
//	200  Plan created ({"plan": {...}})
//	400  Malformed body or invalid preferences
//	413  Body larger than MaxRequestBytes
//	422  No available dates / requested dates unavailable
//	502  External backend failed and no fallback succeeded
//	500  Unexpected error
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if !decodeBody(w, r, &prefs, "Request body must be a preferences JSON object.") {
		return
	}

	plan, err := h.planning.PlanTrip(r.Context(), "", prefs)
	if err != nil {
		writeServiceError(w, "create plan", err)
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse{Plan: plan})
}

// GetPlan handles GET /plan/{trip_id}
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planning.GetPlan(r.Context(), mux.Vars(r)["trip_id"])
	if err != nil {
		writeServiceError(w, "get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
