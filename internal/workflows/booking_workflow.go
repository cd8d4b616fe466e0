package workflows

import (
	"errors"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// ProviderTimeout bounds a single call to the upstream booking endpoint
	ProviderTimeout = time.Minute
	// ActivityMaxAttempts applies to the storage activities
	ActivityMaxAttempts = 3
)

// WorkflowID is the Temporal workflow id used for a booking.
func WorkflowID(bookingID string) string {
	return "booking-" + bookingID
}

// BookingWorkflow holds the selected seats, books with the provider and
// confirms the booking. A failure after the hold releases the seats again.
func BookingWorkflow(ctx workflow.Context, input models.BookingWorkflowInput) (*models.BookingWorkflowState, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Booking workflow started", "bookingId", input.BookingID, "resultIndex", input.Flight.ResultIndex)

	state := &models.BookingWorkflowState{
		BookingID:   input.BookingID,
		Status:      models.BookingStatusPending,
		SeatIDs:     input.SeatIDs,
		TotalAmount: input.TotalAmount,
		LastUpdated: workflow.Now(ctx),
	}

	if err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (*models.BookingWorkflowState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	setStatus := func(status models.BookingStatus) {
		state.Status = status
		state.LastUpdated = workflow.Now(ctx)
	}

	// Activity options
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    ActivityMaxAttempts,
		},
	})

	// Booking with the provider is not idempotent, so it is never retried
	providerCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ProviderTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	fail := func(reason string, cause error) (*models.BookingWorkflowState, error) {
		logger.Warn("Booking failed", "bookingId", input.BookingID, "reason", reason, "error", cause)

		// Compensation must run even if the workflow was cancelled
		releaseCtx, _ := workflow.NewDisconnectedContext(ctx)
		err := workflow.ExecuteActivity(releaseCtx, models.ActivityReleaseSeats, models.ReleaseSeatsInput{
			BookingID: input.BookingID,
			Reason:    reason,
		}).Get(releaseCtx, nil)
		if err != nil {
			logger.Error("Failed to release seats", "bookingId", input.BookingID, "error", err)
		}

		if state.Status == models.BookingStatusHeld {
			state.ReleasedSeats = input.SeatIDs
		}
		state.FailureReason = failureMessage(reason, cause)
		setStatus(models.BookingStatusFailed)
		return state, nil
	}

	err := workflow.ExecuteActivity(ctx, models.ActivityHoldSeats, models.HoldSeatsInput{
		BookingID:   input.BookingID,
		TraceID:     input.TraceID,
		ResultIndex: input.Flight.ResultIndex,
		SeatIDs:     input.SeatIDs,
	}).Get(ctx, nil)
	if err != nil {
		return fail("seats_unavailable", err)
	}
	setStatus(models.BookingStatusHeld)

	var provider models.ProviderBookingResult
	err = workflow.ExecuteActivity(providerCtx, models.ActivityBookWithProvider, input).Get(ctx, &provider)
	if err != nil {
		return fail("provider_failed", err)
	}
	state.PNR = provider.PNR

	err = workflow.ExecuteActivity(ctx, models.ActivityConfirmBooking, models.ConfirmBookingInput{
		BookingID:         input.BookingID,
		ResultIndex:       input.Flight.ResultIndex,
		PNR:               provider.PNR,
		ProviderBookingID: provider.ProviderBookingID,
		Passengers:        input.Contact.Passengers,
		TotalAmount:       input.TotalAmount,
	}).Get(ctx, nil)
	if err != nil {
		return fail("confirm_failed", err)
	}

	setStatus(models.BookingStatusConfirmed)
	logger.Info("Booking confirmed", "bookingId", input.BookingID, "pnr", provider.PNR)
	return state, nil
}

// failureMessage prefers the application error message over the wrapped
// activity error text.
func failureMessage(reason string, err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Error() != "" {
		return reason + ": " + appErr.Error()
	}
	if err != nil {
		return reason + ": " + err.Error()
	}
	return reason
}
