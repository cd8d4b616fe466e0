// Package seatmap prices seats, derives their status and manages the per-session
// seat selection for the simulated 30-row, six-abreast aircraft.
package seatmap

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
)

const (
	Rows    = 30
	Columns = "ABCDEF"
	// AisleAfter is the number of cells left of the aisle (between C and D).
	AisleAfter = 3

	PricePremium  = 450.0
	PriceStandard = 200.0
	PriceFree     = 0.0

	NonRecliningRow = 30
)

var ErrInvalidSeat = errors.New("invalid seat")

// Position is a parsed seat id.
type Position struct {
	Row int
	// Col is the zero-based column index, A=0 ... F=5.
	Col int
}

// ID renders the position back to its "{row}{letter}" form.
func (p Position) ID() string {
	return strconv.Itoa(p.Row) + string(Columns[p.Col])
}

func (p Position) Letter() string {
	return string(Columns[p.Col])
}

// Parse validates a seat id such as "12C".
func Parse(seatID string) (Position, error) {
	if len(seatID) < 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidSeat, seatID)
	}
	digits, letter := seatID[:len(seatID)-1], seatID[len(seatID)-1]

	col := -1
	for i := 0; i < len(Columns); i++ {
		if Columns[i] == letter {
			col = i
			break
		}
	}
	if col < 0 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidSeat, seatID)
	}

	// Leading zeros and signs are rejected so every cell has exactly one id.
	if digits[0] < '1' || digits[0] > '9' {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidSeat, seatID)
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 || row > Rows {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidSeat, seatID)
	}

	return Position{Row: row, Col: col}, nil
}

func (p Position) price() float64 {
	if p.Row >= 16 && p.Row <= 19 && (p.Col == 1 || p.Col == 4) {
		return PriceFree
	}
	if p.Row <= 4 || p.Row == 12 || p.Row == 13 {
		return PricePremium
	}
	return PriceStandard
}

// exitBlocked reports the outermost seats of the emergency exit rows.
func (p Position) exitBlocked() bool {
	return (p.Row == 12 || p.Row == 13) && (p.Col == 0 || p.Col == len(Columns)-1)
}

func (p Position) seatType() models.SeatType {
	switch {
	case p.Row == 12 || p.Row == 13:
		return models.SeatTypeExit
	case p.Row == NonRecliningRow:
		return models.SeatTypeNonReclining
	default:
		return models.SeatTypeStandard
	}
}

// Price returns the seat's price: free for B/E in rows 16-19, premium for rows 1-4
// and the exit rows 12-13, standard otherwise.
func Price(seatID string) (float64, error) {
	p, err := Parse(seatID)
	if err != nil {
		return 0, err
	}
	return p.price(), nil
}

// Blocked reports whether a seat can never be selected (exit-row window seats).
func Blocked(seatID string) (bool, error) {
	p, err := Parse(seatID)
	if err != nil {
		return false, err
	}
	return p.exitBlocked(), nil
}

// StatusOf derives a seat's display status from the occupied set and the
// caller's current selection.
func StatusOf(seatID string, selection []string, occupied SeatSet) (models.SeatStatus, error) {
	p, err := Parse(seatID)
	if err != nil {
		return "", err
	}
	return status(p.ID(), p.price(), selection, occupied), nil
}

func status(id string, price float64, selection []string, occupied SeatSet) models.SeatStatus {
	switch {
	case occupied.Has(id):
		return models.SeatStatusOccupied
	case contains(selection, id):
		return models.SeatStatusSelected
	case price == PriceFree:
		return models.SeatStatusFree
	default:
		return models.SeatStatusAvailable
	}
}

func contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}
