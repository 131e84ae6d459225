package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/shiva/tripplanner/internal/model"
	"github.com/shiva/tripplanner/internal/service"
)

// BookingHandler handles booking HTTP requests.
type BookingHandler struct {
	bookingSvc *service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingSvc *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// BookingResponse lists the records of one booking call or trip.
type BookingResponse struct {
	Bookings []model.BookingRecord `json:"bookings"`
}

// BookTrip handles POST /plan/{trip_id}/book?payment_allowed=bool
//
// payment_allowed defaults to true. With false every record is failed.
//
// Response codes:
//
//	200  Booking records created ({"bookings": [...]})
//	400  payment_allowed is not a boolean
//	404  Plan not found
//	500  Persisting the batch failed
func (h *BookingHandler) BookTrip(w http.ResponseWriter, r *http.Request) {
	paymentAllowed := true
	if raw := r.URL.Query().Get("payment_allowed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payment_allowed", "payment_allowed must be true or false.")
			return
		}
		paymentAllowed = v
	}

	recs, err := h.bookingSvc.BookTrip(r.Context(), mux.Vars(r)["trip_id"], paymentAllowed)
	if err != nil {
		writeServiceError(w, "book trip", err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Bookings: recs})
}

// ListBookings handles GET /plan/{trip_id}/bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	recs, err := h.bookingSvc.ListBookings(r.Context(), mux.Vars(r)["trip_id"])
	if err != nil {
		writeServiceError(w, "list bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Bookings: recs})
}
