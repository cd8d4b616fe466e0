package mocks

import (
	"context"
	"encoding/json"

	"github.com/cx-tal-miterani/flight-storefront/internal/fare"
	"github.com/cx-tal-miterani/flight-storefront/internal/session"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/stretchr/testify/mock"
)

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Search(ctx context.Context, s *session.Session, req models.SearchFlightsRequest) (*models.ResultsView, error) {
	args := m.Called(ctx, s, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResultsView), args.Error(1)
}

func (m *MockBookingService) Filter(ctx context.Context, s *session.Session, spec models.FilterSpec) (*models.ResultsView, error) {
	args := m.Called(ctx, s, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResultsView), args.Error(1)
}

func (m *MockBookingService) SelectFlight(ctx context.Context, s *session.Session, resultIndex string) (*models.FlightOffer, error) {
	args := m.Called(ctx, s, resultIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlightOffer), args.Error(1)
}

func (m *MockBookingService) FareRules(ctx context.Context, s *session.Session, resultIndex string) (json.RawMessage, error) {
	args := m.Called(ctx, s, resultIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBookingService) FareQuote(ctx context.Context, s *session.Session) (json.RawMessage, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBookingService) SSR(ctx context.Context, s *session.Session) (json.RawMessage, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBookingService) Airports(ctx context.Context, keyword string) ([]models.AirportInfo, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AirportInfo), args.Error(1)
}

func (m *MockBookingService) AddOnCatalogue(ctx context.Context) []fare.AddOn {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]fare.AddOn)
}

func (m *MockBookingService) BookingContext(ctx context.Context, s *session.Session) (*models.BookingContext, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingContext), args.Error(1)
}

func (m *MockBookingService) SeatMap(ctx context.Context, s *session.Session, passengers int) (*models.SeatMap, error) {
	args := m.Called(ctx, s, passengers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatMap), args.Error(1)
}

func (m *MockBookingService) ToggleSeat(ctx context.Context, s *session.Session, seatID string, passengers int) (*models.SeatMap, error) {
	args := m.Called(ctx, s, seatID, passengers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatMap), args.Error(1)
}

func (m *MockBookingService) ToggleAddOn(ctx context.Context, s *session.Session, code string) (*models.BookingContext, error) {
	args := m.Called(ctx, s, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingContext), args.Error(1)
}

func (m *MockBookingService) Fare(ctx context.Context, s *session.Session) (*models.FareSummary, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FareSummary), args.Error(1)
}

func (m *MockBookingService) Confirm(ctx context.Context, s *session.Session, req models.ConfirmBookingRequest) (*models.BookingConfirmation, error) {
	args := m.Called(ctx, s, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingConfirmation), args.Error(1)
}

func (m *MockBookingService) Confirmation(ctx context.Context, s *session.Session) (*models.BookingConfirmation, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingConfirmation), args.Error(1)
}

func (m *MockBookingService) BookingStatus(ctx context.Context, bookingID string) (*models.BookingWorkflowState, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingWorkflowState), args.Error(1)
}

func (m *MockBookingService) Abandon(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
