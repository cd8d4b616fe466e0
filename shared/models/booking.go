package models

import "time"

// Passenger is the traveller information collected before booking
type Passenger struct {
	Title       string `json:"title"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Mobile      string `json:"mobile"`
}

// ConfirmBookingRequest represents a request to book the selected offer
type ConfirmBookingRequest struct {
	Passengers []Passenger `json:"passengers"`
	City       string      `json:"city"`
	State      string      `json:"state"`
	GSTNumber  string      `json:"gstNumber,omitempty"`
}

// BookingPassenger is one passenger entry of the upstream booking request
type BookingPassenger struct {
	Title           string  `json:"Title"`
	FirstName       string  `json:"FirstName"`
	LastName        string  `json:"LastName"`
	PaxType         int     `json:"PaxType"`
	DateOfBirth     string  `json:"DateOfBirth"`
	Gender          int     `json:"Gender"`
	PassportNo      string  `json:"PassportNo"`
	PassportExpiry  string  `json:"PassportExpiry"`
	AddressLine1    string  `json:"AddressLine1"`
	AddressLine2    string  `json:"AddressLine2"`
	Fare            Fare    `json:"Fare"`
	City            string  `json:"City"`
	CountryCode     string  `json:"CountryCode"`
	CellCountryCode string  `json:"CellCountryCode"`
	ContactNo       string  `json:"ContactNo"`
	Nationality     string  `json:"Nationality"`
	Email           string  `json:"Email"`
	IsLeadPax       bool    `json:"IsLeadPax"`
	FFAirlineCode   *string `json:"FFAirlineCode"`
	FFNumber        string  `json:"FFNumber"`
	GSTNumber       string  `json:"GSTNumber"`
}

// ProviderBookingRequest is the body sent to the upstream booking endpoint
type ProviderBookingRequest struct {
	TraceID     string             `json:"traceId"`
	ResultIndex string             `json:"resultIndex"`
	Passengers  []BookingPassenger `json:"passengers"`
}

// ProviderBookingResponse is the upstream booking result
type ProviderBookingResponse struct {
	Response struct {
		Error    *UpstreamError `json:"Error,omitempty"`
		Response struct {
			PNR       string `json:"PNR"`
			BookingID int64  `json:"BookingId"`
			Status    int    `json:"Status"`
		} `json:"Response"`
	} `json:"Response"`
}

// FareRuleRequest identifies an offer for fare rule / quote / SSR lookups
type FareRuleRequest struct {
	TraceID     string `json:"traceId"`
	ResultIndex string `json:"resultIndex"`
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusHeld      BookingStatus = "held"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
)

// BookingConfirmation is the handoff payload shown after a successful booking
type BookingConfirmation struct {
	BookingID         string        `json:"bookingId"`
	PNR               string        `json:"pnr"`
	ProviderBookingID int64         `json:"providerBookingId"`
	Status            BookingStatus `json:"status"`
	ResultIndex       string        `json:"resultIndex"`
	Flight            FlightOffer   `json:"flight"`
	Seats             []string      `json:"seats"`
	AddOns            []string      `json:"addOns"`
	Passengers        []Passenger   `json:"passengers"`
	TotalAmount       float64       `json:"totalAmount"`
	ConfirmedAt       time.Time     `json:"confirmedAt"`
}

// FareLine is one line of a fare summary
type FareLine struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

// FareSummary is the itemised fare for the current booking
type FareSummary struct {
	Currency string     `json:"currency"`
	BaseFare float64    `json:"baseFare"`
	Tax      float64    `json:"tax"`
	Seats    []FareLine `json:"seats"`
	AddOns   []FareLine `json:"addOns"`
	Total    float64    `json:"total"`
}

// BookingContext is the current state of a booking session
type BookingContext struct {
	Flight     *FlightOffer `json:"flight"`
	Passengers int          `json:"passengers"`
	Seats      []string     `json:"seats"`
	AddOns     []string     `json:"addOns"`
	Fare       *FareSummary `json:"fare,omitempty"`
}

// SelectFlightRequest represents a request to choose an offer from the results
type SelectFlightRequest struct {
	ResultIndex string `json:"resultIndex"`
}
