// Package fare totals the price of a booking: the offer fare plus chosen
// seats and add-ons.
package fare

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-storefront/internal/seatmap"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
)

const AddOnFastForward = "fast-forward"

// AddOn is a purchasable extra offered during booking.
type AddOn struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

var catalogue = []AddOn{
	{
		Code:        AddOnFastForward,
		Label:       "Fast Forward",
		Description: "Priority Check-in + Boarding",
		Price:       500,
	},
}

// Catalogue lists the add-ons available for purchase.
func Catalogue() []AddOn {
	out := make([]AddOn, len(catalogue))
	copy(out, catalogue)
	return out
}

// LookupAddOn finds an add-on by code.
func LookupAddOn(code string) (AddOn, bool) {
	for _, a := range catalogue {
		if a.Code == code {
			return a, true
		}
	}
	return AddOn{}, false
}

// AddOnPrice returns the price of an add-on; unknown codes cost nothing.
func AddOnPrice(code string) float64 {
	a, ok := LookupAddOn(code)
	if !ok {
		return 0
	}
	return a.Price
}

// Total is BaseFare + Tax + the price of every selected seat + every add-on.
func Total(f models.Fare, selection []string, addOns []string) (float64, error) {
	total := f.BaseFare + f.Tax
	for _, id := range selection {
		price, err := seatmap.Price(id)
		if err != nil {
			return 0, fmt.Errorf("failed to price seat: %w", err)
		}
		total += price
	}
	for _, code := range addOns {
		total += AddOnPrice(code)
	}
	return total, nil
}

// Summarize itemises the same total as Total.
func Summarize(f models.Fare, selection []string, addOns []string) (*models.FareSummary, error) {
	summary := &models.FareSummary{
		Currency: f.Currency,
		BaseFare: f.BaseFare,
		Tax:      f.Tax,
		Seats:    make([]models.FareLine, 0, len(selection)),
		AddOns:   make([]models.FareLine, 0, len(addOns)),
		Total:    f.BaseFare + f.Tax,
	}

	for _, id := range selection {
		price, err := seatmap.Price(id)
		if err != nil {
			return nil, fmt.Errorf("failed to price seat: %w", err)
		}
		summary.Seats = append(summary.Seats, models.FareLine{Code: id, Label: "Seat " + id, Amount: price})
		summary.Total += price
	}

	for _, code := range addOns {
		line := models.FareLine{Code: code, Label: code}
		if a, ok := LookupAddOn(code); ok {
			line.Label = a.Label
			line.Description = a.Description
			line.Amount = a.Price
		}
		summary.AddOns = append(summary.AddOns, line)
		summary.Total += line.Amount
	}

	return summary, nil
}

// ToggleAddOn adds code when absent and removes it when present. Unknown
// codes are ignored. The input slice is not modified.
func ToggleAddOn(addOns []string, code string) []string {
	next := make([]string, 0, len(addOns)+1)
	found := false
	for _, a := range addOns {
		if a == code {
			found = true
			continue
		}
		next = append(next, a)
	}
	if !found {
		if _, ok := LookupAddOn(code); ok {
			next = append(next, code)
		}
	}
	return next
}
