package models

import (
	"fmt"
	"time"
)

// FlightOffer is one bookable itinerary returned by the search API.
// Field names follow the upstream contract verbatim.
type FlightOffer struct {
	ResultIndex   string           `json:"ResultIndex"`
	Source        int              `json:"Source"`
	IsLCC         bool             `json:"IsLCC"`
	IsRefundable  bool             `json:"IsRefundable"`
	Fare          Fare             `json:"Fare"`
	Segments      [][]Segment      `json:"Segments"`
	MiniFareRules [][]MiniFareRule `json:"MiniFareRules,omitempty"`
}

// Legs returns the itinerary's ordered leg list (Segments[0]).
func (o *FlightOffer) Legs() []Segment {
	if len(o.Segments) == 0 {
		return nil
	}
	return o.Segments[0]
}

// FirstLeg returns the first leg, or false when the offer has none.
func (o *FlightOffer) FirstLeg() (Segment, bool) {
	legs := o.Legs()
	if len(legs) == 0 {
		return Segment{}, false
	}
	return legs[0], true
}

// LastLeg returns the last leg, or false when the offer has none.
func (o *FlightOffer) LastLeg() (Segment, bool) {
	legs := o.Legs()
	if len(legs) == 0 {
		return Segment{}, false
	}
	return legs[len(legs)-1], true
}

// Fare carries the upstream fare breakdown for one offer.
type Fare struct {
	Currency             string  `json:"Currency"`
	BaseFare             float64 `json:"BaseFare"`
	Tax                  float64 `json:"Tax"`
	YQTax                float64 `json:"YQTax,omitempty"`
	AdditionalTxnFeePub  float64 `json:"AdditionalTxnFeePub,omitempty"`
	AdditionalTxnFeeOfrd float64 `json:"AdditionalTxnFeeOfrd,omitempty"`
	PublishedFare        float64 `json:"PublishedFare"`
	OfferedFare          float64 `json:"OfferedFare,omitempty"`
}

// Segment is one flown leg of an itinerary.
type Segment struct {
	Baggage      string      `json:"Baggage"`
	CabinBaggage string      `json:"CabinBaggage"`
	CabinClass   int         `json:"CabinClass,omitempty"`
	Airline      Airline     `json:"Airline"`
	Origin       Origin      `json:"Origin"`
	Destination  Destination `json:"Destination"`
	Duration     int         `json:"Duration"`
	GroundTime   int         `json:"GroundTime"`
}

type Airline struct {
	AirlineCode      string `json:"AirlineCode"`
	AirlineName      string `json:"AirlineName"`
	FlightNumber     string `json:"FlightNumber"`
	FareClass        string `json:"FareClass,omitempty"`
	OperatingCarrier string `json:"OperatingCarrier,omitempty"`
}

type Airport struct {
	AirportCode string `json:"AirportCode"`
	AirportName string `json:"AirportName"`
	Terminal    string `json:"Terminal,omitempty"`
	CityCode    string `json:"CityCode"`
	CityName    string `json:"CityName"`
	CountryCode string `json:"CountryCode"`
}

type Origin struct {
	Airport Airport `json:"Airport"`
	DepTime string  `json:"DepTime"`
}

type Destination struct {
	Airport Airport `json:"Airport"`
	ArrTime string  `json:"ArrTime"`
}

// MiniFareRule is a condensed cancellation/reissue rule shown with an offer.
type MiniFareRule struct {
	JourneyPoints string `json:"JourneyPoints"`
	Type          string `json:"Type"`
	From          string `json:"From"`
	To            string `json:"To"`
	Unit          string `json:"Unit"`
	Details       string `json:"Details"`
}

// Upstream timestamps carry no zone; the wall clock is the airport's local time.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
}

// ParseTimestamp parses an upstream departure/arrival timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp: %q", s)
}

// DepartureTime returns the leg's parsed departure timestamp.
func (s Segment) DepartureTime() (time.Time, error) {
	return ParseTimestamp(s.Origin.DepTime)
}

// ArrivalTime returns the leg's parsed arrival timestamp.
func (s Segment) ArrivalTime() (time.Time, error) {
	return ParseTimestamp(s.Destination.ArrTime)
}

// AirportInfo is one entry of the upstream airport directory.
type AirportInfo struct {
	ID          string `json:"_id,omitempty"`
	CityName    string `json:"CITYNAME"`
	CityCode    string `json:"CITYCODE"`
	CountryCode string `json:"COUNTRYCODE"`
	CountryName string `json:"COUNTRYNAME"`
	AirportCode string `json:"AIRPORTCODE"`
	AirportName string `json:"AIRPORTNAME"`
}

// FilterSpec narrows and orders a result list. Every field is optional.
type FilterSpec struct {
	PriceRange    *PriceRange `json:"priceRange,omitempty"`
	Stops         []string    `json:"stops,omitempty"`
	Airlines      []string    `json:"airlines,omitempty"`
	DepartureTime []string    `json:"departureTime,omitempty"`
	ArrivalTime   []string    `json:"arrivalTime,omitempty"`
	SortBy        string      `json:"sortBy,omitempty"`
}

// PriceRange is an inclusive [Min, Max] bound on PublishedFare.
// It marshals as a two-element array.
type PriceRange [2]float64

func (p PriceRange) Min() float64 { return p[0] }
func (p PriceRange) Max() float64 { return p[1] }

const (
	StopsNonStop = "non-stop"
	StopsOneStop = "one-stop"

	SortCheapest = "cheapest"
	SortDuration = "duration"

	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeNight     = "night"
)

// SearchSegment is one requested origin/destination pair.
type SearchSegment struct {
	Origin                 string `json:"Origin"`
	Destination            string `json:"Destination"`
	FlightCabinClass       string `json:"FlightCabinClass"`
	PreferredDepartureTime string `json:"PreferredDepartureTime"`
	PreferredArrivalTime   string `json:"PreferredArrivalTime"`
}

// SearchRequest is the body sent to the upstream flight search.
type SearchRequest struct {
	AdultCount        int             `json:"adultCount"`
	ChildCount        int             `json:"childCount"`
	InfantCount       int             `json:"infantCount"`
	DirectFlight      bool            `json:"directFlight"`
	OneStopFlight     bool            `json:"oneStopFlight"`
	JourneyType       int             `json:"journeyType"`
	PreferredAirlines []string        `json:"preferredAirlines"`
	Segments          []SearchSegment `json:"segments"`
	Sources           []string        `json:"sources"`
}

// Passengers returns the number of seat-holding travellers (infants sit on laps).
func (r SearchRequest) Passengers() int {
	return r.AdultCount + r.ChildCount
}

// SearchFlightsRequest is what the storefront posts to start a search.
type SearchFlightsRequest struct {
	Search  SearchRequest `json:"search"`
	Filters *FilterSpec   `json:"filters,omitempty"`
}

// SearchResponse is the upstream search response envelope.
type SearchResponse struct {
	Response struct {
		TraceID string          `json:"TraceId"`
		Error   *UpstreamError  `json:"Error,omitempty"`
		Results [][]FlightOffer `json:"Results"`
	} `json:"Response"`
}

// UpstreamError is the error block the search API embeds in its responses.
type UpstreamError struct {
	ErrorCode    int    `json:"ErrorCode"`
	ErrorMessage string `json:"ErrorMessage"`
}

// Facets seed the filter controls for a result list.
type Facets struct {
	PriceRange   *PriceRange `json:"priceRange,omitempty"`
	Airlines     []string    `json:"airlines"`
	CheapestFare float64     `json:"cheapestFare"`
}

// ResultsView is a filtered/sorted result page returned to the storefront.
type ResultsView struct {
	TraceID string         `json:"traceId"`
	Total   int            `json:"total"`
	Count   int            `json:"count"`
	Filters FilterSpec     `json:"filters"`
	Facets  Facets         `json:"facets"`
	Flights []ResultFlight `json:"flights"`
}

// ResultFlight is an offer with the display fields the results list shows.
type ResultFlight struct {
	FlightOffer
	TotalDuration int    `json:"totalDuration"`
	DurationText  string `json:"durationText"`
	Stops         int    `json:"stops"`
	StopCategory  string `json:"stopCategory"`
}
