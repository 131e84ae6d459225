// Package handler contains HTTP request handlers for the trip planning API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiva/tripplanner/internal/middleware"
	"github.com/shiva/tripplanner/internal/planner"
	"github.com/shiva/tripplanner/internal/repository"
	"github.com/shiva/tripplanner/internal/service"
)

// NewRouter registers every route. Instrumentation runs inside the router
// so the matched route template is available as a metric label.
func NewRouter(plans *PlanHandler, bookings *BookingHandler, calendar *CalendarHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Instrument)

	router.HandleFunc("/health", health.Check).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/plan", plans.CreatePlan).Methods(http.MethodPost)
	router.HandleFunc("/plan/{trip_id}", plans.GetPlan).Methods(http.MethodGet)
	router.HandleFunc("/plan/{trip_id}/book", bookings.BookTrip).Methods(http.MethodPost)
	router.HandleFunc("/plan/{trip_id}/bookings", bookings.ListBookings).Methods(http.MethodGet)
	router.HandleFunc("/calendar/{user_id}/busy", calendar.AddBusy).Methods(http.MethodPut)
	router.HandleFunc("/calendar/{user_id}/busy", calendar.ListBusy).Methods(http.MethodGet)

	return router
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// MaxRequestBytes caps JSON request bodies.
const MaxRequestBytes = 1 << 20

// decodeBody decodes a size-limited JSON body into v. On failure it writes
// 413 body_too_large or 400 invalid_body with usage and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, usage string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large",
			fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_body", usage)
	return false
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// writeServiceError maps planner, service and repository errors to HTTP.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPreferences):
		writeError(w, http.StatusBadRequest, "invalid_preferences", err.Error())
	case errors.Is(err, repository.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Plan not found.")
	case errors.Is(err, planner.ErrNoAvailableDates):
		writeError(w, http.StatusUnprocessableEntity, "no_available_dates",
			"No free dates in the search window fit the requested trip length.")
	case errors.Is(err, planner.ErrDatesUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "dates_unavailable",
			"The requested dates overlap a busy period.")
	case errors.Is(err, planner.ErrUpstream), errors.Is(err, planner.ErrMalformedResponse):
		log.Printf("[handler] %s upstream error: %v", op, err)
		writeError(w, http.StatusBadGateway, "upstream_error", "The planning backend is unavailable.")
	default:
		log.Printf("[handler] %s error: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal_error",
		})
	}
}
