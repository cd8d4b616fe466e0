package activities

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/internal/database"
	"github.com/cx-tal-miterani/flight-storefront/internal/searchapi"
	"github.com/cx-tal-miterani/flight-storefront/internal/seatmap"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

const SeatHoldDuration = 15 * time.Minute

// Application error types the workflow can branch on.
const (
	ErrTypeInvalidInput     = "InvalidInput"
	ErrTypeSeatNotAvailable = "SeatNotAvailable"
	ErrTypeProviderRejected = "ProviderRejected"
)

// SeatStore persists seat holds and bookings.
type SeatStore interface {
	HoldSeats(ctx context.Context, bookingID uuid.UUID, resultIndex, traceID string, seats []database.SeatHold, holdUntil time.Time) error
	ConfirmBooking(ctx context.Context, in database.ConfirmInput) error
	ReleaseSeats(ctx context.Context, bookingID uuid.UUID, reason string) error
	SetWorkflowID(ctx context.Context, bookingID uuid.UUID, workflowID string) error
}

// Provider places bookings with the upstream booking API.
type Provider interface {
	Book(ctx context.Context, req models.ProviderBookingRequest) (*models.ProviderBookingResult, error)
}

// Activities holds the dependencies of the booking activities
type Activities struct {
	store    SeatStore
	provider Provider
	now      func() time.Time
}

// NewActivities creates a new Activities instance
func NewActivities(store SeatStore, provider Provider) *Activities {
	return &Activities{store: store, provider: provider, now: time.Now}
}

// HoldSeats activity - holds the selected seats for the booking
func (a *Activities) HoldSeats(ctx context.Context, input models.HoldSeatsInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Holding seats", "bookingID", input.BookingID, "resultIndex", input.ResultIndex, "seats", input.SeatIDs)

	bookingID, err := uuid.Parse(input.BookingID)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid booking id", ErrTypeInvalidInput, err)
	}

	holds := make([]database.SeatHold, 0, len(input.SeatIDs))
	for _, id := range input.SeatIDs {
		price, err := seatmap.Price(id)
		if err != nil {
			return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		}
		if blocked, _ := seatmap.Blocked(id); blocked {
			return temporal.NewNonRetryableApplicationError("seat "+id+" cannot be booked", ErrTypeSeatNotAvailable, nil)
		}
		holds = append(holds, database.SeatHold{SeatID: id, Price: price})
	}

	holdUntil := a.now().Add(SeatHoldDuration)
	err = a.store.HoldSeats(ctx, bookingID, input.ResultIndex, input.TraceID, holds, holdUntil)
	if errors.Is(err, database.ErrSeatNotAvailable) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeSeatNotAvailable, err)
	}
	if err != nil {
		return err
	}

	if err := a.store.SetWorkflowID(ctx, bookingID, activity.GetInfo(ctx).WorkflowExecution.ID); err != nil {
		logger.Warn("Failed to record workflow id", "bookingID", input.BookingID, "error", err)
	}

	logger.Info("Seats held", "bookingID", input.BookingID, "until", holdUntil)
	return nil
}

// BookWithProvider activity - places the booking with the upstream API
func (a *Activities) BookWithProvider(ctx context.Context, input models.BookingWorkflowInput) (*models.ProviderBookingResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Booking with provider", "bookingID", input.BookingID, "resultIndex", input.Flight.ResultIndex)

	result, err := a.provider.Book(ctx, ProviderRequest(input))
	if errors.Is(err, searchapi.ErrUpstream) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProviderRejected, err)
	}
	if err != nil {
		return nil, err
	}
	if result.PNR == "" {
		return nil, temporal.NewNonRetryableApplicationError("provider returned no PNR", ErrTypeProviderRejected, nil)
	}

	logger.Info("Provider booking placed", "bookingID", input.BookingID, "pnr", result.PNR)
	return result, nil
}

// ConfirmBooking activity - marks held seats as booked and stores the PNR
func (a *Activities) ConfirmBooking(ctx context.Context, input models.ConfirmBookingInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Confirming booking", "bookingID", input.BookingID, "pnr", input.PNR)

	bookingID, err := uuid.Parse(input.BookingID)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid booking id", ErrTypeInvalidInput, err)
	}

	err = a.store.ConfirmBooking(ctx, database.ConfirmInput{
		BookingID:         bookingID,
		PNR:               input.PNR,
		ProviderBookingID: input.ProviderBookingID,
		Passengers:        input.Passengers,
		TotalAmount:       input.TotalAmount,
	})
	if errors.Is(err, database.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError("booking not found", ErrTypeInvalidInput, err)
	}
	return err
}

// ReleaseSeats activity - drops the booking's seat holds
func (a *Activities) ReleaseSeats(ctx context.Context, input models.ReleaseSeatsInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Releasing seats", "bookingID", input.BookingID, "reason", input.Reason)

	bookingID, err := uuid.Parse(input.BookingID)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid booking id", ErrTypeInvalidInput, err)
	}
	return a.store.ReleaseSeats(ctx, bookingID, input.Reason)
}

// ProviderRequest maps the collected passengers onto the upstream booking
// request. The first passenger is the lead passenger and carries the GST number.
func ProviderRequest(input models.BookingWorkflowInput) models.ProviderBookingRequest {
	passengers := make([]models.BookingPassenger, 0, len(input.Contact.Passengers))
	for i, p := range input.Contact.Passengers {
		gender := 2
		if p.Title == "Mr" {
			gender = 1
		}
		bp := models.BookingPassenger{
			Title:           p.Title,
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			PaxType:         1,
			DateOfBirth:     "1990-01-01T00:00:00",
			Gender:          gender,
			Fare:            input.Flight.Fare,
			City:            input.Contact.City,
			CountryCode:     "IN",
			CellCountryCode: strings.TrimPrefix(p.CountryCode, "+"),
			ContactNo:       p.Mobile,
			Nationality:     "IN",
			Email:           p.Email,
			IsLeadPax:       i == 0,
		}
		if i == 0 {
			bp.GSTNumber = input.Contact.GSTNumber
		}
		passengers = append(passengers, bp)
	}

	return models.ProviderBookingRequest{
		TraceID:     input.TraceID,
		ResultIndex: input.Flight.ResultIndex,
		Passengers:  passengers,
	}
}

var _ SeatStore = (*database.Repository)(nil)
