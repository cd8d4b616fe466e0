package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/internal/database"
	"github.com/cx-tal-miterani/flight-storefront/internal/fare"
	"github.com/cx-tal-miterani/flight-storefront/internal/search"
	"github.com/cx-tal-miterani/flight-storefront/internal/seatmap"
	"github.com/cx-tal-miterani/flight-storefront/internal/session"
	"github.com/cx-tal-miterani/flight-storefront/internal/workflows"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

var (
	ErrNoSearch          = errors.New("no search results in session")
	ErrOfferNotFound     = errors.New("offer not found")
	ErrNoOfferSelected   = errors.New("no offer selected")
	ErrNoConfirmation    = errors.New("no booking confirmation")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidPassengers = errors.New("invalid passengers")
	ErrBookingFailed     = errors.New("booking failed")
)

// SearchAPI is the part of the upstream search API the storefront calls.
type SearchAPI interface {
	SearchFlights(ctx context.Context, req models.SearchRequest) (string, []models.FlightOffer, error)
	FareRules(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error)
	FareQuote(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error)
	SSR(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error)
	SearchAirports(ctx context.Context, keyword string) ([]models.AirportInfo, error)
}

// SeatReader reports seats already held or booked for an offer.
type SeatReader interface {
	GetOccupiedSeats(ctx context.Context, resultIndex string) ([]string, error)
}

// BookingReader looks up bookings recorded by the worker.
type BookingReader interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*database.Booking, error)
}

// SeatNotifier pushes seat changes to shoppers viewing the same offer.
type SeatNotifier interface {
	BroadcastBookingConfirmed(resultIndex string, seatIDs []string)
	BroadcastSeatsReleased(resultIndex string, seatIDs []string)
}

// BookingService defines the storefront operations. Every call works on the
// shopper's session; callers persist the session afterwards.
type BookingService interface {
	Search(ctx context.Context, s *session.Session, req models.SearchFlightsRequest) (*models.ResultsView, error)
	Filter(ctx context.Context, s *session.Session, spec models.FilterSpec) (*models.ResultsView, error)
	SelectFlight(ctx context.Context, s *session.Session, resultIndex string) (*models.FlightOffer, error)
	FareRules(ctx context.Context, s *session.Session, resultIndex string) (json.RawMessage, error)
	FareQuote(ctx context.Context, s *session.Session) (json.RawMessage, error)
	SSR(ctx context.Context, s *session.Session) (json.RawMessage, error)
	Airports(ctx context.Context, keyword string) ([]models.AirportInfo, error)
	AddOnCatalogue(ctx context.Context) []fare.AddOn
	BookingContext(ctx context.Context, s *session.Session) (*models.BookingContext, error)
	SeatMap(ctx context.Context, s *session.Session, passengers int) (*models.SeatMap, error)
	ToggleSeat(ctx context.Context, s *session.Session, seatID string, passengers int) (*models.SeatMap, error)
	ToggleAddOn(ctx context.Context, s *session.Session, code string) (*models.BookingContext, error)
	Fare(ctx context.Context, s *session.Session) (*models.FareSummary, error)
	Confirm(ctx context.Context, s *session.Session, req models.ConfirmBookingRequest) (*models.BookingConfirmation, error)
	Confirmation(ctx context.Context, s *session.Session) (*models.BookingConfirmation, error)
	BookingStatus(ctx context.Context, bookingID string) (*models.BookingWorkflowState, error)
	Abandon(ctx context.Context, s *session.Session) error
}

// bookingServiceImpl implements BookingService
type bookingServiceImpl struct {
	searchAPI      SearchAPI
	seats          SeatReader
	bookings       BookingReader
	notifier       SeatNotifier
	temporalClient client.Client
	taskQueue      string
	logger         *zap.Logger
	now            func() time.Time
}

// Deps groups the collaborators of the booking service. Seats, Bookings and
// Notifier may be nil.
type Deps struct {
	SearchAPI      SearchAPI
	Seats          SeatReader
	Bookings       BookingReader
	Notifier       SeatNotifier
	TemporalClient client.Client
	TaskQueue      string
	Logger         *zap.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(deps Deps) BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bookingServiceImpl{
		searchAPI:      deps.SearchAPI,
		seats:          deps.Seats,
		bookings:       deps.Bookings,
		notifier:       deps.Notifier,
		temporalClient: deps.TemporalClient,
		taskQueue:      deps.TaskQueue,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *bookingServiceImpl) Search(ctx context.Context, sess *session.Session, req models.SearchFlightsRequest) (*models.ResultsView, error) {
	traceID, offers, err := s.searchAPI.SearchFlights(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to search flights: %w", err)
	}

	searchReq := req.Search
	sess.Search = &searchReq
	sess.TraceID = traceID
	sess.Results = offers
	sess.Filters = models.FilterSpec{}
	if req.Filters != nil {
		sess.Filters = *req.Filters
	}
	if n := searchReq.Passengers(); n > 0 {
		sess.Passengers = n
	}
	sess.ClearBooking()

	s.logger.Info("flight search completed",
		zap.String("sessionId", sess.ID),
		zap.String("traceId", traceID),
		zap.Int("results", len(offers)))

	return resultsView(sess), nil
}

func (s *bookingServiceImpl) Filter(ctx context.Context, sess *session.Session, spec models.FilterSpec) (*models.ResultsView, error) {
	if sess.Search == nil {
		return nil, ErrNoSearch
	}
	sess.Filters = spec
	return resultsView(sess), nil
}

func resultsView(sess *session.Session) *models.ResultsView {
	flights := search.FilterAndSort(sess.Results, sess.Filters)
	return &models.ResultsView{
		TraceID: sess.TraceID,
		Total:   len(sess.Results),
		Count:   len(flights),
		Filters: sess.Filters,
		Facets:  search.BuildFacets(sess.Results),
		Flights: search.Describe(flights),
	}
}

func (s *bookingServiceImpl) SelectFlight(ctx context.Context, sess *session.Session, resultIndex string) (*models.FlightOffer, error) {
	if sess.Search == nil {
		return nil, ErrNoSearch
	}
	offer, ok := search.FindOffer(sess.Results, resultIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOfferNotFound, resultIndex)
	}
	sess.SelectOffer(offer)
	sess.Confirmation = nil
	return &offer, nil
}

func (s *bookingServiceImpl) FareRules(ctx context.Context, sess *session.Session, resultIndex string) (json.RawMessage, error) {
	if sess.TraceID == "" {
		return nil, ErrNoSearch
	}
	if _, ok := search.FindOffer(sess.Results, resultIndex); !ok {
		return nil, fmt.Errorf("%w: %s", ErrOfferNotFound, resultIndex)
	}
	rules, err := s.searchAPI.FareRules(ctx, sess.TraceID, resultIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get fare rules: %w", err)
	}
	return rules, nil
}

func (s *bookingServiceImpl) FareQuote(ctx context.Context, sess *session.Session) (json.RawMessage, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	quote, err := s.searchAPI.FareQuote(ctx, sess.TraceID, sess.Selected.ResultIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get fare quote: %w", err)
	}
	return quote, nil
}

func (s *bookingServiceImpl) SSR(ctx context.Context, sess *session.Session) (json.RawMessage, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	ssr, err := s.searchAPI.SSR(ctx, sess.TraceID, sess.Selected.ResultIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get SSR: %w", err)
	}
	return ssr, nil
}

func (s *bookingServiceImpl) Airports(ctx context.Context, keyword string) ([]models.AirportInfo, error) {
	airports, err := s.searchAPI.SearchAirports(ctx, strings.TrimSpace(keyword))
	if err != nil {
		return nil, fmt.Errorf("failed to search airports: %w", err)
	}
	return airports, nil
}

func (s *bookingServiceImpl) AddOnCatalogue(ctx context.Context) []fare.AddOn {
	return fare.Catalogue()
}

func (s *bookingServiceImpl) BookingContext(ctx context.Context, sess *session.Session) (*models.BookingContext, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	summary, err := fare.Summarize(sess.Selected.Fare, sess.Seats, sess.AddOns)
	if err != nil {
		return nil, err
	}
	return &models.BookingContext{
		Flight:     sess.Selected,
		Passengers: sess.Passengers,
		Seats:      nonNil(sess.Seats),
		AddOns:     nonNil(sess.AddOns),
		Fare:       summary,
	}, nil
}

// occupied merges the demo rows with seats held or booked in storage.
func (s *bookingServiceImpl) occupied(ctx context.Context, resultIndex string) (seatmap.SeatSet, error) {
	set := seatmap.DemoOccupied()
	if s.seats == nil {
		return set, nil
	}
	taken, err := s.seats.GetOccupiedSeats(ctx, resultIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupied seats: %w", err)
	}
	set.Add(taken...)
	return set, nil
}

func (s *bookingServiceImpl) SeatMap(ctx context.Context, sess *session.Session, passengers int) (*models.SeatMap, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	setPassengers(sess, passengers)
	occupied, err := s.occupied(ctx, sess.Selected.ResultIndex)
	if err != nil {
		return nil, err
	}
	return seatMap(sess, occupied), nil
}

func (s *bookingServiceImpl) ToggleSeat(ctx context.Context, sess *session.Session, seatID string, passengers int) (*models.SeatMap, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	setPassengers(sess, passengers)
	occupied, err := s.occupied(ctx, sess.Selected.ResultIndex)
	if err != nil {
		return nil, err
	}

	next, err := seatmap.Toggle(sess.Seats, seatID, sess.Passengers, occupied)
	if err != nil {
		return nil, err
	}
	sess.Seats = next
	return seatMap(sess, occupied), nil
}

// setPassengers applies a new passenger count and drops the oldest picks
// beyond it.
func setPassengers(sess *session.Session, passengers int) {
	if passengers > 0 {
		sess.Passengers = passengers
	}
	if sess.Passengers > 0 && len(sess.Seats) > sess.Passengers {
		sess.Seats = append([]string(nil), sess.Seats[len(sess.Seats)-sess.Passengers:]...)
	}
}

func seatMap(sess *session.Session, occupied seatmap.SeatSet) *models.SeatMap {
	return &models.SeatMap{
		ResultIndex: sess.Selected.ResultIndex,
		MaxSeats:    sess.Passengers,
		Selected:    nonNil(sess.Seats),
		Rows:        seatmap.Generate(sess.Seats, occupied),
	}
}

func (s *bookingServiceImpl) ToggleAddOn(ctx context.Context, sess *session.Session, code string) (*models.BookingContext, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	sess.AddOns = fare.ToggleAddOn(sess.AddOns, code)
	return s.BookingContext(ctx, sess)
}

func (s *bookingServiceImpl) Fare(ctx context.Context, sess *session.Session) (*models.FareSummary, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	return fare.Summarize(sess.Selected.Fare, sess.Seats, sess.AddOns)
}

// Confirm runs the booking workflow for the selected offer and waits for its
// outcome.
func (s *bookingServiceImpl) Confirm(ctx context.Context, sess *session.Session, req models.ConfirmBookingRequest) (*models.BookingConfirmation, error) {
	if sess.Selected == nil {
		return nil, ErrNoOfferSelected
	}
	if err := ValidatePassengers(req.Passengers, sess.Passengers); err != nil {
		return nil, err
	}

	offer := *sess.Selected
	total, err := fare.Total(offer.Fare, sess.Seats, sess.AddOns)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.NewString()
	input := models.BookingWorkflowInput{
		BookingID:   bookingID,
		TraceID:     sess.TraceID,
		Flight:      offer,
		SeatIDs:     sess.Seats,
		AddOns:      sess.AddOns,
		Contact:     req,
		TotalAmount: total,
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(bookingID),
		TaskQueue: s.taskQueue,
	}

	run, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.BookingWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}
	s.logger.Info("booking workflow started",
		zap.String("bookingId", bookingID),
		zap.String("workflowId", run.GetID()),
		zap.String("resultIndex", offer.ResultIndex))

	var state models.BookingWorkflowState
	if err := run.Get(ctx, &state); err != nil {
		return nil, fmt.Errorf("failed to get workflow result: %w", err)
	}
	if state.Status != models.BookingStatusConfirmed {
		s.logger.Warn("booking not confirmed",
			zap.String("bookingId", bookingID),
			zap.String("status", string(state.Status)),
			zap.String("reason", state.FailureReason))
		if s.notifier != nil && len(state.ReleasedSeats) > 0 {
			s.notifier.BroadcastSeatsReleased(offer.ResultIndex, state.ReleasedSeats)
		}
		return nil, fmt.Errorf("%w: %s", ErrBookingFailed, state.FailureReason)
	}

	confirmation := &models.BookingConfirmation{
		BookingID:   bookingID,
		PNR:         state.PNR,
		Status:      state.Status,
		ResultIndex: offer.ResultIndex,
		Flight:      offer,
		Seats:       nonNil(sess.Seats),
		AddOns:      nonNil(sess.AddOns),
		Passengers:  req.Passengers,
		TotalAmount: state.TotalAmount,
		ConfirmedAt: s.now(),
	}

	if s.notifier != nil && len(sess.Seats) > 0 {
		s.notifier.BroadcastBookingConfirmed(offer.ResultIndex, sess.Seats)
	}

	sess.Confirmation = confirmation
	sess.ClearBooking()
	return confirmation, nil
}

func (s *bookingServiceImpl) Confirmation(ctx context.Context, sess *session.Session) (*models.BookingConfirmation, error) {
	if sess.Confirmation == nil {
		return nil, ErrNoConfirmation
	}
	return sess.Confirmation, nil
}

func (s *bookingServiceImpl) BookingStatus(ctx context.Context, bookingID string) (*models.BookingWorkflowState, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}

	response, err := s.temporalClient.QueryWorkflow(ctx, workflows.WorkflowID(bookingID), "", models.QueryGetState)
	if err == nil {
		var state models.BookingWorkflowState
		if err := response.Get(&state); err != nil {
			return nil, fmt.Errorf("failed to decode workflow state: %w", err)
		}
		return &state, nil
	}

	// Workflows past retention are only found in storage
	if s.bookings != nil {
		return s.storedStatus(ctx, id)
	}
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	return nil, fmt.Errorf("failed to query workflow: %w", err)
}

func (s *bookingServiceImpl) storedStatus(ctx context.Context, id uuid.UUID) (*models.BookingWorkflowState, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	state := &models.BookingWorkflowState{
		BookingID:   b.ID.String(),
		Status:      b.Status,
		SeatIDs:     nonNil(b.Seats),
		TotalAmount: b.TotalAmount,
		LastUpdated: b.UpdatedAt,
	}
	if b.PNR != nil {
		state.PNR = *b.PNR
	}
	if b.FailureReason != nil {
		state.FailureReason = *b.FailureReason
	}
	return state, nil
}

func (s *bookingServiceImpl) Abandon(ctx context.Context, sess *session.Session) error {
	sess.ClearBooking()
	return nil
}

// ValidatePassengers checks the traveller list collected before booking: at
// least one and at most maxPassengers entries, each with a name, a valid
// email and a mobile number.
func ValidatePassengers(passengers []models.Passenger, maxPassengers int) error {
	if len(passengers) == 0 {
		return fmt.Errorf("%w: at least one passenger is required", ErrInvalidPassengers)
	}
	if maxPassengers > 0 && len(passengers) > maxPassengers {
		return fmt.Errorf("%w: expected at most %d passengers, got %d", ErrInvalidPassengers, maxPassengers, len(passengers))
	}
	for i, p := range passengers {
		n := i + 1
		switch {
		case strings.TrimSpace(p.FirstName) == "":
			return fmt.Errorf("%w: passenger %d: first name is required", ErrInvalidPassengers, n)
		case strings.TrimSpace(p.LastName) == "":
			return fmt.Errorf("%w: passenger %d: last name is required", ErrInvalidPassengers, n)
		case strings.TrimSpace(p.Mobile) == "":
			return fmt.Errorf("%w: passenger %d: mobile is required", ErrInvalidPassengers, n)
		}
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: passenger %d: invalid email", ErrInvalidPassengers, n)
		}
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
