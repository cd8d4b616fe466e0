package seatmap

import (
	"strconv"
)

// SeatSet is a set of seat ids, typically the seats already taken on a flight.
type SeatSet map[string]struct{}

func NewSeatSet(ids ...string) SeatSet {
	s := make(SeatSet, len(ids))
	s.Add(ids...)
	return s
}

func (s SeatSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has is safe on a nil set.
func (s SeatSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// demoOccupiedRows are pre-seeded as fully taken on every flight.
var demoOccupiedRows = []int{21, 26, 28}

// DemoOccupied returns the deterministic demo occupancy (every seat in rows 21, 26, 28).
func DemoOccupied() SeatSet {
	s := make(SeatSet, len(demoOccupiedRows)*len(Columns))
	for _, row := range demoOccupiedRows {
		for col := 0; col < len(Columns); col++ {
			s.Add(Position{Row: row, Col: col}.ID())
		}
	}
	return s
}

// Toggle applies one seat click to selection and returns the new selection.
// The input slice is not modified.
//
//  1. occupied or exit-blocked seat: selection unchanged
//  2. seat already selected: removed
//  3. room left (len < maxSeats): appended
//  4. full: the oldest pick is evicted and the seat appended
//
// maxSeats below 1 is treated as 1.
func Toggle(selection []string, seatID string, maxSeats int, occupied SeatSet) ([]string, error) {
	p, err := Parse(seatID)
	if err != nil {
		return nil, err
	}
	id := p.ID()
	if maxSeats < 1 {
		maxSeats = 1
	}

	next := make([]string, 0, maxSeats)

	if occupied.Has(id) || p.exitBlocked() {
		return append(next, selection...), nil
	}

	if contains(selection, id) {
		for _, s := range selection {
			if s != id {
				next = append(next, s)
			}
		}
		return next, nil
	}

	if len(selection) < maxSeats {
		next = append(next, selection...)
		return append(next, id), nil
	}

	// Evict from the head until there is room for one more.
	keep := selection[len(selection)-maxSeats+1:]
	next = append(next, keep...)
	return append(next, id), nil
}

// ParsePassengerCount reads the passenger-count query parameter; missing or
// unparsable values, and counts below 1, mean a single passenger.
func ParsePassengerCount(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
