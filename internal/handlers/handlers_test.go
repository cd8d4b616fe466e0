package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/internal/fare"
	"github.com/cx-tal-miterani/flight-storefront/internal/searchapi"
	"github.com/cx-tal-miterani/flight-storefront/internal/seatmap"
	"github.com/cx-tal-miterani/flight-storefront/internal/service"
	"github.com/cx-tal-miterani/flight-storefront/internal/service/mocks"
	"github.com/cx-tal-miterani/flight-storefront/internal/session"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/airports", h.SearchAirports).Methods(http.MethodGet)
	api.HandleFunc("/flights/search", h.SearchFlights).Methods(http.MethodPost)
	api.HandleFunc("/flights/filter", h.FilterFlights).Methods(http.MethodPost)
	api.HandleFunc("/flights/select", h.SelectFlight).Methods(http.MethodPost)
	api.HandleFunc("/flights/{resultIndex}/fare-rules", h.GetFareRules).Methods(http.MethodGet)
	api.HandleFunc("/booking", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/booking", h.AbandonBooking).Methods(http.MethodDelete)
	api.HandleFunc("/booking/seats", h.GetSeatMap).Methods(http.MethodGet)
	api.HandleFunc("/booking/seats/{seatId}", h.ToggleSeat).Methods(http.MethodPost)
	api.HandleFunc("/booking/addons", h.GetAddOns).Methods(http.MethodGet)
	api.HandleFunc("/booking/addons/{addOn}", h.ToggleAddOn).Methods(http.MethodPost)
	api.HandleFunc("/booking/fare", h.GetFare).Methods(http.MethodGet)
	api.HandleFunc("/booking/confirm", h.ConfirmBooking).Methods(http.MethodPost)
	api.HandleFunc("/booking/confirmation", h.GetConfirmation).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/status", h.GetBookingStatus).Methods(http.MethodGet)
	api.HandleFunc("/session", h.ResetSession).Methods(http.MethodDelete)
	return r
}

func setupHandler() (*mocks.MockBookingService, *session.MemoryStore, *mux.Router) {
	mockService := new(mocks.MockBookingService)
	store := session.NewMemoryStore(time.Hour)
	sessions := session.NewManager(store, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32), time.Hour, false)
	handler := NewHandler(mockService, sessions, nil, nil)
	return mockService, store, setupTestRouter(handler)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func TestHandler_HealthCheck(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandler_SearchFlights(t *testing.T) {
	validSearch := models.SearchFlightsRequest{
		Search: models.SearchRequest{
			AdultCount: 1,
			Segments:   []models.SearchSegment{{Origin: "DEL", Destination: "BOM"}},
		},
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(m *mocks.MockBookingService)
		expectedStatus int
	}{
		{
			name: "valid search",
			body: validSearch,
			setupMock: func(m *mocks.MockBookingService) {
				m.On("Search", mock.Anything, mock.Anything, validSearch).
					Return(&models.ResultsView{TraceID: "trace-1", Total: 1, Count: 1}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid json",
			body:           "not json",
			setupMock:      func(m *mocks.MockBookingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing segments",
			body:           models.SearchFlightsRequest{Search: models.SearchRequest{AdultCount: 1}},
			setupMock:      func(m *mocks.MockBookingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no adults",
			body: models.SearchFlightsRequest{Search: models.SearchRequest{
				Segments: []models.SearchSegment{{Origin: "DEL", Destination: "BOM"}},
			}},
			setupMock:      func(m *mocks.MockBookingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "upstream failure",
			body: validSearch,
			setupMock: func(m *mocks.MockBookingService) {
				m.On("Search", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("failed to search flights: %w: status 503", searchapi.ErrUpstream))
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, _, router := setupHandler()
			tt.setupMock(mockService)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/flights/search", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_SessionCarriesStateBetweenRequests(t *testing.T) {
	mockService, store, router := setupHandler()

	mockService.On("SelectFlight", mock.Anything, mock.Anything, "OB2").
		Run(func(args mock.Arguments) {
			s := args.Get(1).(*session.Session)
			s.SelectOffer(models.FlightOffer{ResultIndex: "OB2"})
		}).
		Return(&models.FlightOffer{ResultIndex: "OB2"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/flights/select", bytes.NewBufferString(`{"resultIndex":"OB2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)

	mockService.On("BookingContext", mock.Anything, mock.MatchedBy(func(s *session.Session) bool {
		return s.Selected != nil && s.Selected.ResultIndex == "OB2"
	})).Return(&models.BookingContext{Flight: &models.FlightOffer{ResultIndex: "OB2"}, Passengers: 1}, nil)

	req = httptest.NewRequest(http.MethodGet, "/api/booking", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var bc models.BookingContext
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&bc))
	assert.Equal(t, "OB2", bc.Flight.ResultIndex)
	assert.Equal(t, 1, store.Len())

	mockService.AssertExpectations(t)
}

func TestHandler_ToggleSeat(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		passengers     int
		err            error
		expectedStatus int
	}{
		{name: "with passenger count", path: "/api/booking/seats/1A?passengers=2", passengers: 2, expectedStatus: http.StatusOK},
		{name: "keeps session count", path: "/api/booking/seats/1A", passengers: 0, expectedStatus: http.StatusOK},
		{name: "bad passenger count", path: "/api/booking/seats/1A?passengers=abc", passengers: 1, expectedStatus: http.StatusOK},
		{name: "invalid seat", path: "/api/booking/seats/1A", passengers: 0, err: fmt.Errorf("%w: 99Z", seatmap.ErrInvalidSeat), expectedStatus: http.StatusBadRequest},
		{name: "no offer selected", path: "/api/booking/seats/1A", passengers: 0, err: service.ErrNoOfferSelected, expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, _, router := setupHandler()

			if tt.err != nil {
				mockService.On("ToggleSeat", mock.Anything, mock.Anything, "1A", tt.passengers).Return(nil, tt.err)
			} else {
				mockService.On("ToggleSeat", mock.Anything, mock.Anything, "1A", tt.passengers).
					Return(&models.SeatMap{ResultIndex: "OB1", Selected: []string{"1A"}}, nil)
			}

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		setupMock      func(m *mocks.MockBookingService)
		expectedStatus int
	}{
		{
			name: "fare rules upstream error", method: http.MethodGet, path: "/api/flights/OB1/fare-rules",
			setupMock: func(m *mocks.MockBookingService) {
				m.On("FareRules", mock.Anything, mock.Anything, "OB1").Return(nil, fmt.Errorf("failed to get fare rules: %w", searchapi.ErrUpstream))
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name: "filter without search", method: http.MethodPost, path: "/api/flights/filter",
			setupMock: func(m *mocks.MockBookingService) {
				m.On("Filter", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrNoSearch)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "no confirmation", method: http.MethodGet, path: "/api/booking/confirmation",
			setupMock: func(m *mocks.MockBookingService) {
				m.On("Confirmation", mock.Anything, mock.Anything).Return(nil, service.ErrNoConfirmation)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "fare without offer", method: http.MethodGet, path: "/api/booking/fare",
			setupMock: func(m *mocks.MockBookingService) {
				m.On("Fare", mock.Anything, mock.Anything).Return(nil, service.ErrNoOfferSelected)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "unexpected error", method: http.MethodGet, path: "/api/booking/seats",
			setupMock: func(m *mocks.MockBookingService) {
				m.On("SeatMap", mock.Anything, mock.Anything, 0).Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "unknown booking", method: http.MethodGet, path: "/api/bookings/nope/status",
			setupMock: func(m *mocks.MockBookingService) {
				m.On("BookingStatus", mock.Anything, "nope").Return(nil, service.ErrBookingNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, _, router := setupHandler()
			tt.setupMock(mockService)

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(`{}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_InternalErrorsAreNotLeaked(t *testing.T) {
	mockService, _, router := setupHandler()
	mockService.On("SeatMap", mock.Anything, mock.Anything, 0).Return(nil, errors.New("pq: password authentication failed"))

	req := httptest.NewRequest(http.MethodGet, "/api/booking/seats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandler_ToggleAddOn(t *testing.T) {
	mockService, _, router := setupHandler()
	mockService.On("ToggleAddOn", mock.Anything, mock.Anything, "fast-forward").
		Return(&models.BookingContext{AddOns: []string{"fast-forward"}, Fare: &models.FareSummary{Total: 6750}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/booking/addons/fast-forward", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var bc models.BookingContext
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&bc))
	assert.Equal(t, 6750.0, bc.Fare.Total)
}

func TestHandler_ConfirmBooking(t *testing.T) {
	request := models.ConfirmBookingRequest{
		Passengers: []models.Passenger{{Title: "Mr", FirstName: "Arjun", LastName: "Rao", Email: "arjun@example.com", Mobile: "9876543210"}},
		City:       "Mumbai",
	}

	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
	}{
		{name: "confirmed", expectedStatus: http.StatusCreated},
		{name: "invalid body", body: "{", expectedStatus: http.StatusBadRequest},
		{name: "invalid passengers", err: fmt.Errorf("%w: passenger 1: mobile is required", service.ErrInvalidPassengers), expectedStatus: http.StatusBadRequest},
		{name: "workflow failed", err: fmt.Errorf("%w: seats_unavailable", service.ErrBookingFailed), expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, _, router := setupHandler()

			body := tt.body
			if body == "" {
				raw, _ := json.Marshal(request)
				body = string(raw)
				if tt.err != nil {
					mockService.On("Confirm", mock.Anything, mock.Anything, request).Return(nil, tt.err)
				} else {
					mockService.On("Confirm", mock.Anything, mock.Anything, request).
						Return(&models.BookingConfirmation{BookingID: "b1", PNR: "PNR123", Status: models.BookingStatusConfirmed}, nil)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/booking/confirm", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusCreated {
				var conf models.BookingConfirmation
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&conf))
				assert.Equal(t, "PNR123", conf.PNR)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_AbandonBooking(t *testing.T) {
	mockService, _, router := setupHandler()
	mockService.On("Abandon", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/booking", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

func TestHandler_ResetSession(t *testing.T) {
	mockService, store, router := setupHandler()
	mockService.On("Abandon", mock.Anything, mock.Anything).Return(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/booking", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.Len())

	req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	req.AddCookie(sessionCookie(t, rec))
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)

	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, -1, sessionCookie(t, out).MaxAge)
}

func TestHandler_GetAddOns(t *testing.T) {
	mockService, _, router := setupHandler()
	mockService.On("AddOnCatalogue", mock.Anything).Return(fare.Catalogue())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/booking/addons", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var addOns []fare.AddOn
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&addOns))
	require.Len(t, addOns, 1)
	assert.Equal(t, fare.AddOnFastForward, addOns[0].Code)
}

func TestHandler_SearchAirports(t *testing.T) {
	mockService, _, router := setupHandler()
	mockService.On("Airports", mock.Anything, "mum").
		Return([]models.AirportInfo{{AirportCode: "BOM", CityName: "Mumbai"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/airports?keyword=mum", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var airports []models.AirportInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&airports))
	require.Len(t, airports, 1)
	assert.Equal(t, "BOM", airports[0].AirportCode)
}
