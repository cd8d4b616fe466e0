// Package search filters, sorts and summarises flight search results.
package search

import (
	"fmt"
	"sort"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
)

// filterContext holds the filter's value sets so membership checks don't rescan slices
type filterContext struct {
	spec          models.FilterSpec
	stops         map[string]bool
	airlines      map[string]bool
	departureTime map[string]bool
	arrivalTime   map[string]bool
}

var (
	stopValues = map[string]bool{models.StopsNonStop: true, models.StopsOneStop: true}
	timeValues = map[string]bool{
		models.TimeMorning:   true,
		models.TimeAfternoon: true,
		models.TimeEvening:   true,
		models.TimeNight:     true,
	}
)

func newFilterContext(spec models.FilterSpec) *filterContext {
	return &filterContext{
		spec:          spec,
		stops:         toSet(spec.Stops, stopValues),
		airlines:      toSet(spec.Airlines, nil),
		departureTime: toSet(spec.DepartureTime, timeValues),
		arrivalTime:   toSet(spec.ArrivalTime, timeValues),
	}
}

// toSet keeps the values found in known (any value when known is nil).
// A set left empty disables that dimension.
func toSet(values []string, known map[string]bool) map[string]bool {
	var set map[string]bool
	for _, v := range values {
		if known != nil && !known[v] {
			continue
		}
		if set == nil {
			set = make(map[string]bool, len(values))
		}
		set[v] = true
	}
	return set
}

// FilterAndSort returns the offers that satisfy spec, ordered by spec.SortBy.
// The input slice is never modified and equal sort keys keep their input order.
func FilterAndSort(offers []models.FlightOffer, spec models.FilterSpec) []models.FlightOffer {
	fc := newFilterContext(spec)

	filtered := make([]models.FlightOffer, 0, len(offers))
	for _, o := range offers {
		if fc.matches(o) {
			filtered = append(filtered, o)
		}
	}

	sortOffers(filtered, spec.SortBy)
	return filtered
}

// matches returns true only if ALL active filters pass
func (fc *filterContext) matches(o models.FlightOffer) bool {
	if r := fc.spec.PriceRange; r != nil {
		price := o.Fare.PublishedFare
		if price < r.Min() || price > r.Max() {
			return false
		}
	}

	if fc.stops != nil && !fc.stops[StopCategory(o)] {
		return false
	}

	first, hasFirst := o.FirstLeg()

	if fc.airlines != nil {
		if !hasFirst || !fc.airlines[first.Airline.AirlineName] {
			return false
		}
	}

	if fc.departureTime != nil {
		if !hasFirst {
			return false
		}
		bucket, err := DepartureBucket(first)
		if err != nil || !fc.departureTime[bucket] {
			return false
		}
	}

	if fc.arrivalTime != nil {
		last, ok := o.LastLeg()
		if !ok {
			return false
		}
		bucket, err := ArrivalBucket(last)
		if err != nil || !fc.arrivalTime[bucket] {
			return false
		}
	}

	return true
}

func sortOffers(offers []models.FlightOffer, sortBy string) {
	switch sortBy {
	case models.SortCheapest:
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].Fare.PublishedFare < offers[j].Fare.PublishedFare
		})
	case models.SortDuration:
		sort.SliceStable(offers, func(i, j int) bool {
			return TotalDuration(offers[i]) < TotalDuration(offers[j])
		})
	}
}

// StopCount is the number of intermediate stops (legs - 1).
func StopCount(o models.FlightOffer) int {
	n := len(o.Legs())
	if n == 0 {
		return 0
	}
	return n - 1
}

// StopCategory buckets an offer as "non-stop" (one leg) or "one-stop" (anything else).
// Itineraries with two or more stops also land in "one-stop".
func StopCategory(o models.FlightOffer) string {
	if len(o.Legs()) == 1 {
		return models.StopsNonStop
	}
	return models.StopsOneStop
}

// TotalDuration is the itinerary time in minutes: flown minutes of every leg plus
// the ground time before each connecting leg.
func TotalDuration(o models.FlightOffer) int {
	total := 0
	for i, leg := range o.Legs() {
		total += leg.Duration
		if i > 0 {
			total += leg.GroundTime
		}
	}
	return total
}

// FormatDuration renders minutes as "2h 5m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Describe adds the derived display fields to each offer.
func Describe(offers []models.FlightOffer) []models.ResultFlight {
	out := make([]models.ResultFlight, len(offers))
	for i, o := range offers {
		minutes := TotalDuration(o)
		out[i] = models.ResultFlight{
			FlightOffer:   o,
			TotalDuration: minutes,
			DurationText:  FormatDuration(minutes),
			Stops:         StopCount(o),
			StopCategory:  StopCategory(o),
		}
	}
	return out
}
