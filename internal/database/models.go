package database

import (
	"time"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/google/uuid"
)

// SeatHoldStatus is the state of one row in booking_seats
type SeatHoldStatus string

const (
	SeatHoldHeld   SeatHoldStatus = "held"
	SeatHoldBooked SeatHoldStatus = "booked"
)

// Booking represents a booking in the database
type Booking struct {
	ID                uuid.UUID            `json:"id"`
	ResultIndex       string               `json:"resultIndex"`
	TraceID           string               `json:"traceId"`
	Status            models.BookingStatus `json:"status"`
	PNR               *string              `json:"pnr,omitempty"`
	ProviderBookingID *int64               `json:"providerBookingId,omitempty"`
	LeadName          string               `json:"leadName"`
	LeadEmail         string               `json:"leadEmail"`
	Passengers        []models.Passenger   `json:"passengers"`
	TotalAmount       float64              `json:"totalAmount"`
	FailureReason     *string              `json:"failureReason,omitempty"`
	WorkflowID        *string              `json:"workflowId,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
	Seats             []string             `json:"seats,omitempty"`
}
