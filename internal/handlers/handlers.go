package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/internal/searchapi"
	"github.com/cx-tal-miterani/flight-storefront/internal/seatmap"
	"github.com/cx-tal-miterani/flight-storefront/internal/service"
	"github.com/cx-tal-miterani/flight-storefront/internal/session"
	"github.com/cx-tal-miterani/flight-storefront/internal/websocket"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
	sessions       *session.Manager
	hub            *websocket.Hub
	logger         *zap.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(bookingService service.BookingService, sessions *session.Manager, hub *websocket.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bookingService: bookingService,
		sessions:       sessions,
		hub:            hub,
		logger:         logger,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, seatmap.ErrInvalidSeat),
		errors.Is(err, service.ErrInvalidPassengers):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoSearch),
		errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrNoConfirmation),
		errors.Is(err, service.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoOfferSelected),
		errors.Is(err, service.ErrBookingFailed):
		return http.StatusConflict
	case errors.Is(err, searchapi.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		if status == http.StatusInternalServerError {
			respondError(w, status, "Internal server error")
			return
		}
	}
	respondError(w, status, err.Error())
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Load(w, r)
	if err != nil {
		h.logger.Error("failed to load session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Session unavailable")
		return nil, false
	}
	return s, true
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, s *session.Session) bool {
	if err := h.sessions.Save(r.Context(), s); err != nil {
		h.logger.Error("failed to save session", zap.String("sessionId", s.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Session unavailable")
		return false
	}
	return true
}

// passengerCount reads ?passengers=; zero means keep the session's count.
func passengerCount(r *http.Request) int {
	if !r.URL.Query().Has("passengers") {
		return 0
	}
	return seatmap.ParsePassengerCount(r.URL.Query().Get("passengers"))
}

// SearchAirports handles GET /api/airports?keyword=
func (h *Handler) SearchAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := h.bookingService.Airports(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airports)
}

// SearchFlights handles POST /api/flights/search
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var req models.SearchFlightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if len(req.Search.Segments) == 0 {
		respondError(w, http.StatusBadRequest, "At least one segment is required")
		return
	}
	if req.Search.AdultCount < 1 {
		respondError(w, http.StatusBadRequest, "At least one adult is required")
		return
	}

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	view, err := h.bookingService.Search(r.Context(), s, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// FilterFlights handles POST /api/flights/filter
func (h *Handler) FilterFlights(w http.ResponseWriter, r *http.Request) {
	var spec models.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	view, err := h.bookingService.Filter(r.Context(), s, spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SelectFlight handles POST /api/flights/select
func (h *Handler) SelectFlight(w http.ResponseWriter, r *http.Request) {
	var req models.SelectFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ResultIndex == "" {
		respondError(w, http.StatusBadRequest, "Result index is required")
		return
	}

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	offer, err := h.bookingService.SelectFlight(r.Context(), s, req.ResultIndex)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// GetFareRules handles GET /api/flights/{resultIndex}/fare-rules
func (h *Handler) GetFareRules(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	rules, err := h.bookingService.FareRules(r.Context(), s, mux.Vars(r)["resultIndex"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// SeatUpdates handles GET /api/flights/{resultIndex}/ws
func (h *Handler) SeatUpdates(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, mux.Vars(r)["resultIndex"])
}

// GetBooking handles GET /api/booking
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	bc, err := h.bookingService.BookingContext(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bc)
}

// AbandonBooking handles DELETE /api/booking
func (h *Handler) AbandonBooking(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if err := h.bookingService.Abandon(r.Context(), s); err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking abandoned"})
}

// ResetSession handles DELETE /api/session and drops the whole shopping
// session, search results included.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		h.logger.Error("failed to destroy session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Session unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Session cleared"})
}

// GetAddOns handles GET /api/booking/addons
func (h *Handler) GetAddOns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.bookingService.AddOnCatalogue(r.Context()))
}

// GetSeatMap handles GET /api/booking/seats?passengers=
func (h *Handler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	m, err := h.bookingService.SeatMap(r.Context(), s, passengerCount(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// ToggleSeat handles POST /api/booking/seats/{seatId}?passengers=
func (h *Handler) ToggleSeat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	m, err := h.bookingService.ToggleSeat(r.Context(), s, mux.Vars(r)["seatId"], passengerCount(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// ToggleAddOn handles POST /api/booking/addons/{addOn}
func (h *Handler) ToggleAddOn(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	bc, err := h.bookingService.ToggleAddOn(r.Context(), s, mux.Vars(r)["addOn"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusOK, bc)
}

// GetFare handles GET /api/booking/fare
func (h *Handler) GetFare(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	summary, err := h.bookingService.Fare(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetFareQuote handles GET /api/booking/fare-quote
func (h *Handler) GetFareQuote(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	quote, err := h.bookingService.FareQuote(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// GetSSR handles GET /api/booking/ssr
func (h *Handler) GetSSR(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	ssr, err := h.bookingService.SSR(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ssr)
}

// ConfirmBooking handles POST /api/booking/confirm
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	conf, err := h.bookingService.Confirm(r.Context(), s, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.saveSession(w, r, s) {
		return
	}
	respondJSON(w, http.StatusCreated, conf)
}

// GetConfirmation handles GET /api/booking/confirmation
func (h *Handler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	conf, err := h.bookingService.Confirmation(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conf)
}

// GetBookingStatus handles GET /api/bookings/{id}/status
func (h *Handler) GetBookingStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.bookingService.BookingStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
