// Package session carries one shopper's booking context between requests:
// the search and its results, the chosen offer, seats, add-ons and the final
// confirmation.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is everything the storefront remembers about one visitor.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Search     *models.SearchRequest `json:"search,omitempty"`
	TraceID    string                `json:"traceId,omitempty"`
	Results    []models.FlightOffer  `json:"results,omitempty"`
	Filters    models.FilterSpec     `json:"filters"`
	Selected   *models.FlightOffer   `json:"selected,omitempty"`
	Passengers int                   `json:"passengers"`
	Seats      []string              `json:"seats,omitempty"`
	AddOns     []string              `json:"addOns,omitempty"`

	Confirmation *models.BookingConfirmation `json:"confirmation,omitempty"`
}

// New returns an empty session for id.
func New(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now, Passengers: 1}
}

// SelectOffer hands an offer over to the booking step and resets any
// selection made for a previous offer.
func (s *Session) SelectOffer(offer models.FlightOffer) {
	s.Selected = &offer
	s.Seats = nil
	s.AddOns = nil
}

// ClearBooking drops the in-progress booking but keeps search results.
func (s *Session) ClearBooking() {
	s.Selected = nil
	s.Seats = nil
	s.AddOns = nil
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
