package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shiva/tripplanner/internal/availability"
	"github.com/shiva/tripplanner/internal/model"
)

// CalendarHandler ingests busy ranges from a calendar feed.
type CalendarHandler struct {
	calendar *availability.Calendar
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(calendar *availability.Calendar) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// BusyRequest is the body of PUT /calendar/{user_id}/busy.
type BusyRequest struct {
	BusyRanges []model.DateRange `json:"busy_ranges"`
}

// BusyResponse reports a user's busy ranges.
type BusyResponse struct {
	UserID     string            `json:"user_id"`
	BusyRanges []model.DateRange `json:"busy_ranges"`
}

// AddBusy handles PUT /calendar/{user_id}/busy
//
// Replaces the user's busy ranges. Every range needs start <= end.
func (h *CalendarHandler) AddBusy(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var req BusyRequest
	if !decodeBody(w, r, &req, "Body must be {\"busy_ranges\": [{\"start\", \"end\"}]}.") {
		return
	}
	for i, br := range req.BusyRanges {
		if br.Start.IsZero() || br.End.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid_range", fmt.Sprintf("busy_ranges[%d] needs start and end", i))
			return
		}
		if br.End.Before(br.Start) {
			writeError(w, http.StatusBadRequest, "invalid_range", fmt.Sprintf("busy_ranges[%d] ends before it starts", i))
			return
		}
	}

	h.calendar.Seed(userID, req.BusyRanges)
	log.Printf("[calendar] %d busy range(s) stored for %s", len(req.BusyRanges), userID)
	h.respond(w, userID)
}

// ListBusy handles GET /calendar/{user_id}/busy
func (h *CalendarHandler) ListBusy(w http.ResponseWriter, r *http.Request) {
	h.respond(w, mux.Vars(r)["user_id"])
}

func (h *CalendarHandler) respond(w http.ResponseWriter, userID string) {
	ranges := h.calendar.BusyRanges(userID)
	if ranges == nil {
		ranges = []model.DateRange{}
	}
	writeJSON(w, http.StatusOK, BusyResponse{UserID: userID, BusyRanges: ranges})
}
