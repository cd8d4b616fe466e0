package search

import (
	"testing"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type legSpec struct {
	airline    string
	dep        string
	arr        string
	duration   int
	groundTime int
}

func newOffer(index string, price float64, legs ...legSpec) models.FlightOffer {
	segments := make([]models.Segment, 0, len(legs))
	for _, l := range legs {
		segments = append(segments, models.Segment{
			Airline:     models.Airline{AirlineCode: l.airline[:2], AirlineName: l.airline, FlightNumber: "101"},
			Origin:      models.Origin{Airport: models.Airport{AirportCode: "DEL", CityName: "Delhi"}, DepTime: l.dep},
			Destination: models.Destination{Airport: models.Airport{AirportCode: "BOM", CityName: "Mumbai"}, ArrTime: l.arr},
			Duration:    l.duration,
			GroundTime:  l.groundTime,
		})
	}
	return models.FlightOffer{
		ResultIndex: index,
		Fare:        models.Fare{Currency: "INR", BaseFare: price * 0.8, Tax: price * 0.2, PublishedFare: price},
		Segments:    [][]models.Segment{segments},
	}
}

func leg(airline, dep string, duration int) legSpec {
	return legSpec{airline: airline, dep: dep, arr: dep, duration: duration}
}

func indexes(offers []models.FlightOffer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.ResultIndex)
	}
	return out
}

func priceRange(min, max float64) *models.PriceRange {
	r := models.PriceRange{min, max}
	return &r
}

func sampleOffers() []models.FlightOffer {
	return []models.FlightOffer{
		newOffer("OB1", 5200, leg("IndiGo", "2025-03-10T07:15:00", 130)),
		newOffer("OB2", 4100, leg("Air India", "2025-03-10T13:40:00", 140)),
		newOffer("OB3", 6100,
			leg("Vistara", "2025-03-10T19:05:00", 90),
			legSpec{airline: "Vistara", dep: "2025-03-10T22:00:00", arr: "2025-03-10T23:30:00", duration: 90, groundTime: 85},
		),
		newOffer("OB4", 4100, leg("IndiGo", "2025-03-10T02:30:00", 125)),
	}
}

func TestFilterAndSort_EmptyInput(t *testing.T) {
	result := FilterAndSort(nil, models.FilterSpec{SortBy: models.SortCheapest})
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestFilterAndSort_NoFiltersIsIdentity(t *testing.T) {
	offers := sampleOffers()
	result := FilterAndSort(offers, models.FilterSpec{})
	assert.Equal(t, indexes(offers), indexes(result))
}

func TestFilterAndSort_PriceRange(t *testing.T) {
	tests := []struct {
		name     string
		r        *models.PriceRange
		expected []string
	}{
		{name: "boundaries are inclusive", r: priceRange(4100, 5200), expected: []string{"OB1", "OB2", "OB4"}},
		{name: "exact single price", r: priceRange(6100, 6100), expected: []string{"OB3"}},
		{name: "inverted range filters everything", r: priceRange(9000, 1000), expected: []string{}},
		{name: "nil range does not filter", r: nil, expected: []string{"OB1", "OB2", "OB3", "OB4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterAndSort(sampleOffers(), models.FilterSpec{PriceRange: tt.r})
			assert.Equal(t, tt.expected, indexes(result))
		})
	}
}

func TestStopCategory(t *testing.T) {
	one := newOffer("A", 1, leg("IndiGo", "2025-03-10T07:00:00", 60))
	two := newOffer("B", 1, leg("IndiGo", "2025-03-10T07:00:00", 60), leg("IndiGo", "2025-03-10T09:00:00", 60))
	three := newOffer("C", 1,
		leg("IndiGo", "2025-03-10T07:00:00", 60),
		leg("IndiGo", "2025-03-10T09:00:00", 60),
		leg("IndiGo", "2025-03-10T11:00:00", 60),
	)

	assert.Equal(t, models.StopsNonStop, StopCategory(one))
	assert.Equal(t, models.StopsOneStop, StopCategory(two))
	// Two stops are not distinguished from one stop.
	assert.Equal(t, models.StopsOneStop, StopCategory(three))
	assert.Equal(t, 2, StopCount(three))

	result := FilterAndSort([]models.FlightOffer{one, two, three}, models.FilterSpec{Stops: []string{models.StopsOneStop}})
	assert.Equal(t, []string{"B", "C"}, indexes(result))

	result = FilterAndSort([]models.FlightOffer{one, two, three}, models.FilterSpec{Stops: []string{models.StopsNonStop}})
	assert.Equal(t, []string{"A"}, indexes(result))
}

func TestFilterAndSort_Airlines(t *testing.T) {
	result := FilterAndSort(sampleOffers(), models.FilterSpec{Airlines: []string{"IndiGo", "Vistara"}})
	assert.Equal(t, []string{"OB1", "OB3", "OB4"}, indexes(result))

	result = FilterAndSort(sampleOffers(), models.FilterSpec{Airlines: []string{"SpiceJet"}})
	assert.Empty(t, result)
}

func TestFilterAndSort_DepartureTime(t *testing.T) {
	tests := []struct {
		buckets  []string
		expected []string
	}{
		{buckets: []string{models.TimeMorning}, expected: []string{"OB1"}},
		{buckets: []string{models.TimeAfternoon}, expected: []string{"OB2"}},
		{buckets: []string{models.TimeEvening}, expected: []string{"OB3"}},
		{buckets: []string{models.TimeNight}, expected: []string{"OB4"}},
		{buckets: []string{models.TimeMorning, models.TimeNight}, expected: []string{"OB1", "OB4"}},
	}

	for _, tt := range tests {
		result := FilterAndSort(sampleOffers(), models.FilterSpec{DepartureTime: tt.buckets})
		assert.Equal(t, tt.expected, indexes(result), "buckets %v", tt.buckets)
	}
}

func TestFilterAndSort_ArrivalTimeUsesLastLeg(t *testing.T) {
	result := FilterAndSort(sampleOffers(), models.FilterSpec{ArrivalTime: []string{models.TimeEvening}})
	// OB3 departs at 19:05 but its last leg lands at 23:30.
	assert.Equal(t, []string{"OB3"}, indexes(result))
}

func TestFilterAndSort_UnknownValuesAreNoOps(t *testing.T) {
	offers := sampleOffers()
	all := indexes(offers)

	tests := []struct {
		name string
		spec models.FilterSpec
	}{
		{name: "sort", spec: models.FilterSpec{SortBy: "best-value"}},
		{name: "stops", spec: models.FilterSpec{Stops: []string{"two-stop"}}},
		{name: "departure", spec: models.FilterSpec{DepartureTime: []string{"dawn"}}},
		{name: "arrival", spec: models.FilterSpec{ArrivalTime: []string{"late", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterAndSort(offers, tt.spec)
			assert.Equal(t, all, indexes(result))
		})
	}
}

func TestFilterAndSort_UnknownValuesIgnoredBesideKnownOnes(t *testing.T) {
	result := FilterAndSort(sampleOffers(), models.FilterSpec{
		Stops:         []string{"two-stop", models.StopsNonStop},
		DepartureTime: []string{"dawn", models.TimeMorning},
	})
	assert.Equal(t, []string{"OB1"}, indexes(result))
}

func TestFilterAndSort_UnknownAirlineFiltersEverything(t *testing.T) {
	result := FilterAndSort(sampleOffers(), models.FilterSpec{Airlines: []string{"Nowhere Air"}})
	assert.Empty(t, result)
}

func TestFilterAndSort_CheapestIsStable(t *testing.T) {
	result := FilterAndSort(sampleOffers(), models.FilterSpec{SortBy: models.SortCheapest})
	// OB2 and OB4 share a fare; input order is kept.
	assert.Equal(t, []string{"OB2", "OB4", "OB1", "OB3"}, indexes(result))
}

func TestFilterAndSort_Duration(t *testing.T) {
	result := FilterAndSort(sampleOffers(), models.FilterSpec{SortBy: models.SortDuration})
	// OB4=125, OB1=130, OB2=140, OB3=90+85+90=265
	assert.Equal(t, []string{"OB4", "OB1", "OB2", "OB3"}, indexes(result))
}

func TestTotalDuration_IgnoresFirstGroundTime(t *testing.T) {
	o := newOffer("X", 1,
		legSpec{airline: "IndiGo", dep: "2025-03-10T07:00:00", duration: 60, groundTime: 999},
		legSpec{airline: "IndiGo", dep: "2025-03-10T09:00:00", duration: 45, groundTime: 30},
	)
	assert.Equal(t, 135, TotalDuration(o))
	assert.Equal(t, "2h 15m", FormatDuration(TotalDuration(o)))
}

func TestFilterAndSort_Idempotent(t *testing.T) {
	spec := models.FilterSpec{
		PriceRange:    priceRange(4000, 7000),
		Stops:         []string{models.StopsNonStop},
		Airlines:      []string{"IndiGo", "Air India"},
		DepartureTime: []string{models.TimeMorning, models.TimeAfternoon, models.TimeNight},
		SortBy:        models.SortCheapest,
	}
	once := FilterAndSort(sampleOffers(), spec)
	twice := FilterAndSort(once, spec)
	require.NotEmpty(t, once)
	assert.Equal(t, once, twice)
}

func TestFilterAndSort_DoesNotMutateInput(t *testing.T) {
	offers := sampleOffers()
	before := indexes(offers)
	_ = FilterAndSort(offers, models.FilterSpec{SortBy: models.SortCheapest})
	assert.Equal(t, before, indexes(offers))
}

func TestFilterAndSort_OfferWithoutLegs(t *testing.T) {
	broken := models.FlightOffer{ResultIndex: "EMPTY", Fare: models.Fare{PublishedFare: 100}}
	offers := append(sampleOffers(), broken)

	assert.Contains(t, indexes(FilterAndSort(offers, models.FilterSpec{})), "EMPTY")
	assert.NotContains(t, indexes(FilterAndSort(offers, models.FilterSpec{Airlines: []string{"IndiGo"}})), "EMPTY")
	assert.NotContains(t, indexes(FilterAndSort(offers, models.FilterSpec{DepartureTime: []string{models.TimeNight}})), "EMPTY")
}

func TestTimeOfDay(t *testing.T) {
	expected := map[int]string{
		0: models.TimeNight, 5: models.TimeNight, 6: models.TimeMorning, 11: models.TimeMorning,
		12: models.TimeAfternoon, 17: models.TimeAfternoon, 18: models.TimeEvening, 23: models.TimeEvening,
	}
	for hour, bucket := range expected {
		assert.Equal(t, bucket, TimeOfDay(hour), "hour %d", hour)
	}
}

func TestBuildFacets(t *testing.T) {
	facets := BuildFacets(sampleOffers())
	require.NotNil(t, facets.PriceRange)
	assert.Equal(t, 4100.0, facets.PriceRange.Min())
	assert.Equal(t, 6100.0, facets.PriceRange.Max())
	assert.Equal(t, []string{"IndiGo", "Air India", "Vistara"}, facets.Airlines)
	assert.Equal(t, 4100.0, facets.CheapestFare)

	empty := BuildFacets(nil)
	assert.Nil(t, empty.PriceRange)
	assert.Empty(t, empty.Airlines)
	assert.Zero(t, empty.CheapestFare)
}

func TestDescribe(t *testing.T) {
	result := Describe(sampleOffers())
	require.Len(t, result, 4)

	assert.Equal(t, "OB1", result[0].ResultIndex)
	assert.Equal(t, 130, result[0].TotalDuration)
	assert.Equal(t, "2h 10m", result[0].DurationText)
	assert.Equal(t, 0, result[0].Stops)
	assert.Equal(t, models.StopsNonStop, result[0].StopCategory)

	assert.Equal(t, 265, result[2].TotalDuration)
	assert.Equal(t, "4h 25m", result[2].DurationText)
	assert.Equal(t, 1, result[2].Stops)
	assert.Equal(t, models.StopsOneStop, result[2].StopCategory)
}

func TestDescribe_EmptyIsNotNil(t *testing.T) {
	result := Describe(nil)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}
