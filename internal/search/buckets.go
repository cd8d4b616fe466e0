package search

import (
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
)

// TimeOfDay maps a local hour to its bucket:
// [6,12) morning, [12,18) afternoon, [18,24) evening, otherwise night.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return models.TimeMorning
	case hour >= 12 && hour < 18:
		return models.TimeAfternoon
	case hour >= 18 && hour < 24:
		return models.TimeEvening
	default:
		return models.TimeNight
	}
}

// DepartureBucket buckets a leg by its local departure hour.
func DepartureBucket(leg models.Segment) (string, error) {
	t, err := leg.DepartureTime()
	if err != nil {
		return "", err
	}
	return TimeOfDay(t.Hour()), nil
}

// ArrivalBucket buckets a leg by its local arrival hour.
func ArrivalBucket(leg models.Segment) (string, error) {
	t, err := leg.ArrivalTime()
	if err != nil {
		return "", err
	}
	return TimeOfDay(t.Hour()), nil
}
