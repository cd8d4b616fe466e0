package router

import (
	"net/http"

	"github.com/cx-tal-miterani/flight-storefront/internal/handlers"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures the middleware in front of the handlers.
type Options struct {
	RequestsPerMinute int
	AllowedOrigins    []string
	// TrustProxy enables X-Forwarded-For / X-Real-IP for the client address.
	TrustProxy bool
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, logger *zap.Logger, opts Options) *mux.Router {
	r := mux.NewRouter()

	r.Use(chimiddleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog(logger))
	r.Use(corsMiddleware(opts.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(newIPRateLimiter(opts.RequestsPerMinute, logger).middleware)

	api.HandleFunc("/airports", h.SearchAirports).Methods(http.MethodGet, http.MethodOptions)

	// Results
	api.HandleFunc("/flights/search", h.SearchFlights).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/filter", h.FilterFlights).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/select", h.SelectFlight).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/{resultIndex}/fare-rules", h.GetFareRules).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket for real-time seat updates
	api.HandleFunc("/flights/{resultIndex}/ws", h.SeatUpdates).Methods(http.MethodGet)

	// Booking
	api.HandleFunc("/booking", h.GetBooking).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking", h.AbandonBooking).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/booking/seats", h.GetSeatMap).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/seats/{seatId}", h.ToggleSeat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/booking/addons", h.GetAddOns).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/addons/{addOn}", h.ToggleAddOn).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/booking/fare", h.GetFare).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/fare-quote", h.GetFareQuote).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/ssr", h.GetSSR).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/booking/confirm", h.ConfirmBooking).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/booking/confirmation", h.GetConfirmation).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/session", h.ResetSession).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/bookings/{id}/status", h.GetBookingStatus).Methods(http.MethodGet, http.MethodOptions)

	return r
}
