package activities

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/internal/database"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/google/uuid"
)

type seatKey struct {
	resultIndex string
	seatID      string
}

type seatHold struct {
	bookingID uuid.UUID
	status    database.SeatHoldStatus
	expiry    time.Time
}

// MemoryInventory is a SeatStore kept in process memory. The worker uses it
// when no database is configured.
type MemoryInventory struct {
	mu       sync.RWMutex
	holds    map[seatKey]*seatHold
	bookings map[uuid.UUID]*database.Booking
	now      func() time.Time
}

// NewMemoryInventory creates an empty inventory
func NewMemoryInventory() *MemoryInventory {
	return &MemoryInventory{
		holds:    make(map[seatKey]*seatHold),
		bookings: make(map[uuid.UUID]*database.Booking),
		now:      time.Now,
	}
}

func (m *MemoryInventory) taken(h *seatHold, now time.Time) bool {
	return h.status == database.SeatHoldBooked || now.Before(h.expiry)
}

// HoldSeats holds every seat or none of them.
func (m *MemoryInventory) HoldSeats(ctx context.Context, bookingID uuid.UUID, resultIndex, traceID string, seats []database.SeatHold, holdUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	// First check all seats are available
	for _, s := range seats {
		h, exists := m.holds[seatKey{resultIndex, s.SeatID}]
		if exists && h.bookingID != bookingID && m.taken(h, now) {
			return fmt.Errorf("%w: %s", database.ErrSeatNotAvailable, s.SeatID)
		}
	}

	b, exists := m.bookings[bookingID]
	if !exists {
		b = &database.Booking{ID: bookingID, ResultIndex: resultIndex, TraceID: traceID, CreatedAt: now}
		m.bookings[bookingID] = b
	}
	b.Status = models.BookingStatusHeld
	b.UpdatedAt = now

	for _, s := range seats {
		m.holds[seatKey{resultIndex, s.SeatID}] = &seatHold{
			bookingID: bookingID,
			status:    database.SeatHoldHeld,
			expiry:    holdUntil,
		}
	}
	return nil
}

func (m *MemoryInventory) ConfirmBooking(ctx context.Context, in database.ConfirmInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.bookings[in.BookingID]
	if !exists {
		return database.ErrNotFound
	}

	pnr, providerID := in.PNR, in.ProviderBookingID
	b.Status = models.BookingStatusConfirmed
	b.PNR = &pnr
	b.ProviderBookingID = &providerID
	b.Passengers = in.Passengers
	b.TotalAmount = in.TotalAmount
	b.UpdatedAt = m.now()

	for _, h := range m.holds {
		if h.bookingID == in.BookingID {
			h.status = database.SeatHoldBooked
			h.expiry = time.Time{}
		}
	}
	return nil
}

func (m *MemoryInventory) ReleaseSeats(ctx context.Context, bookingID uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Only release seats still held by this booking
	for k, h := range m.holds {
		if h.bookingID == bookingID && h.status == database.SeatHoldHeld {
			delete(m.holds, k)
		}
	}

	if b, exists := m.bookings[bookingID]; exists && b.Status != models.BookingStatusConfirmed {
		b.Status = models.BookingStatusFailed
		b.FailureReason = &reason
		b.UpdatedAt = m.now()
	}
	return nil
}

func (m *MemoryInventory) SetWorkflowID(ctx context.Context, bookingID uuid.UUID, workflowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.bookings[bookingID]
	if !exists {
		return database.ErrNotFound
	}
	b.WorkflowID = &workflowID
	return nil
}

// GetOccupiedSeats returns booked and unexpired held seats for an offer.
func (m *MemoryInventory) GetOccupiedSeats(ctx context.Context, resultIndex string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	seats := make([]string, 0)
	for k, h := range m.holds {
		if k.resultIndex == resultIndex && m.taken(h, now) {
			seats = append(seats, k.seatID)
		}
	}
	sort.Strings(seats)
	return seats, nil
}

// GetBooking returns a copy of the booking with its seats.
func (m *MemoryInventory) GetBooking(ctx context.Context, id uuid.UUID) (*database.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, exists := m.bookings[id]
	if !exists {
		return nil, database.ErrNotFound
	}
	out := *b
	out.Seats = nil
	for k, h := range m.holds {
		if h.bookingID == id {
			out.Seats = append(out.Seats, k.seatID)
		}
	}
	sort.Strings(out.Seats)
	return &out, nil
}

var _ SeatStore = (*MemoryInventory)(nil)
