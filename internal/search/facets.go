package search

import "github.com/cx-tal-miterani/flight-storefront/shared/models"

// DefaultPriceRange spans the cheapest to the most expensive PublishedFare.
// It returns nil for an empty list.
func DefaultPriceRange(offers []models.FlightOffer) *models.PriceRange {
	if len(offers) == 0 {
		return nil
	}
	r := models.PriceRange{offers[0].Fare.PublishedFare, offers[0].Fare.PublishedFare}
	for _, o := range offers[1:] {
		if o.Fare.PublishedFare < r[0] {
			r[0] = o.Fare.PublishedFare
		}
		if o.Fare.PublishedFare > r[1] {
			r[1] = o.Fare.PublishedFare
		}
	}
	return &r
}

// Airlines lists the distinct first-leg airline names in first-seen order.
func Airlines(offers []models.FlightOffer) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, o := range offers {
		leg, ok := o.FirstLeg()
		if !ok || leg.Airline.AirlineName == "" || seen[leg.Airline.AirlineName] {
			continue
		}
		seen[leg.Airline.AirlineName] = true
		names = append(names, leg.Airline.AirlineName)
	}
	return names
}

// CheapestFare is the lowest PublishedFare, or 0 for an empty list.
func CheapestFare(offers []models.FlightOffer) float64 {
	if r := DefaultPriceRange(offers); r != nil {
		return r.Min()
	}
	return 0
}

// BuildFacets collects the filter control seeds for offers.
func BuildFacets(offers []models.FlightOffer) models.Facets {
	return models.Facets{
		PriceRange:   DefaultPriceRange(offers),
		Airlines:     Airlines(offers),
		CheapestFare: CheapestFare(offers),
	}
}

// FindOffer looks up an offer by its result index.
func FindOffer(offers []models.FlightOffer, resultIndex string) (models.FlightOffer, bool) {
	for _, o := range offers {
		if o.ResultIndex == resultIndex {
			return o, true
		}
	}
	return models.FlightOffer{}, false
}
