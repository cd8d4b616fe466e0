package models

import "time"

// BookingWorkflowInput represents input for the booking workflow
type BookingWorkflowInput struct {
	BookingID   string                `json:"bookingId"`
	TraceID     string                `json:"traceId"`
	Flight      FlightOffer           `json:"flight"`
	SeatIDs     []string              `json:"seatIds,omitempty"`
	AddOns      []string              `json:"addOns,omitempty"`
	Contact     ConfirmBookingRequest `json:"contact"`
	TotalAmount float64               `json:"totalAmount"`
}

// BookingWorkflowState represents the current state of the booking workflow
type BookingWorkflowState struct {
	BookingID     string        `json:"bookingId"`
	Status        BookingStatus `json:"status"`
	SeatIDs       []string      `json:"seatIds"`
	PNR           string        `json:"pnr,omitempty"`
	TotalAmount   float64       `json:"totalAmount"`
	FailureReason string        `json:"failureReason,omitempty"`
	ReleasedSeats []string      `json:"releasedSeats,omitempty"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// Activity names
const (
	ActivityHoldSeats        = "HoldSeats"
	ActivityBookWithProvider = "BookWithProvider"
	ActivityConfirmBooking   = "ConfirmBooking"
	ActivityReleaseSeats     = "ReleaseSeats"
)

// Activity inputs and results
type HoldSeatsInput struct {
	BookingID   string   `json:"bookingId"`
	TraceID     string   `json:"traceId"`
	ResultIndex string   `json:"resultIndex"`
	SeatIDs     []string `json:"seatIds"`
}

type ProviderBookingResult struct {
	PNR               string `json:"pnr"`
	ProviderBookingID int64  `json:"providerBookingId"`
}

type ConfirmBookingInput struct {
	BookingID         string      `json:"bookingId"`
	ResultIndex       string      `json:"resultIndex"`
	PNR               string      `json:"pnr"`
	ProviderBookingID int64       `json:"providerBookingId"`
	Passengers        []Passenger `json:"passengers"`
	TotalAmount       float64     `json:"totalAmount"`
}

type ReleaseSeatsInput struct {
	BookingID string `json:"bookingId"`
	Reason    string `json:"reason"`
}
