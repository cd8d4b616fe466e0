package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSeatNotAvailable = errors.New("seat not available")
)

// SeatHold is one seat to hold together with its price at hold time.
type SeatHold struct {
	SeatID string
	Price  float64
}

// ConfirmInput carries the provider outcome recorded on confirmation.
type ConfirmInput struct {
	BookingID         uuid.UUID
	PNR               string
	ProviderBookingID int64
	Passengers        []models.Passenger
	TotalAmount       float64
}

// Repository handles all database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Seat Operations ---

// GetOccupiedSeats returns the seat ids booked, or held and not yet expired,
// for an offer.
func (r *Repository) GetOccupiedSeats(ctx context.Context, resultIndex string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seat_id FROM booking_seats
		WHERE result_index = $1
		  AND (status = 'booked' OR held_until > NOW())
		ORDER BY seat_id
	`, resultIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied seats: %w", err)
	}
	defer rows.Close()

	seats := make([]string, 0)
	for rows.Next() {
		var seatID string
		if err := rows.Scan(&seatID); err != nil {
			return nil, fmt.Errorf("failed to scan seat id: %w", err)
		}
		seats = append(seats, seatID)
	}
	return seats, rows.Err()
}

// HoldSeats creates the booking row if needed and holds seats for it until
// holdUntil. Seats already held by the same booking are refreshed, so the
// call is safe to retry.
func (r *Repository) HoldSeats(ctx context.Context, bookingID uuid.UUID, resultIndex, traceID string, seats []SeatHold, holdUntil time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (id, result_index, trace_id, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (id) DO NOTHING
	`, bookingID, resultIndex, traceID)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	// Expired holds from abandoned bookings no longer block anyone
	_, err = tx.Exec(ctx, `
		DELETE FROM booking_seats
		WHERE result_index = $1 AND status = 'held' AND held_until <= NOW()
	`, resultIndex)
	if err != nil {
		return fmt.Errorf("failed to clear expired holds: %w", err)
	}

	for _, s := range seats {
		result, err := tx.Exec(ctx, `
			INSERT INTO booking_seats (booking_id, result_index, seat_id, price, status, held_until)
			VALUES ($1, $2, $3, $4, 'held', $5)
			ON CONFLICT (result_index, seat_id) DO UPDATE
			SET held_until = EXCLUDED.held_until
			WHERE booking_seats.booking_id = EXCLUDED.booking_id
		`, bookingID, resultIndex, s.SeatID, s.Price, holdUntil)
		if err != nil {
			return fmt.Errorf("failed to hold seat: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrSeatNotAvailable, s.SeatID)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, models.BookingStatusHeld, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	return tx.Commit(ctx)
}

// ConfirmBooking turns the booking's holds into permanent seats and records
// the provider reference.
func (r *Repository) ConfirmBooking(ctx context.Context, in ConfirmInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var leadName, leadEmail string
	if len(in.Passengers) > 0 {
		lead := in.Passengers[0]
		leadName = lead.FirstName + " " + lead.LastName
		leadEmail = lead.Email
	}

	result, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $1, pnr = $2, provider_booking_id = $3, passengers = $4,
		    lead_name = $5, lead_email = $6, total_amount = $7, failure_reason = NULL
		WHERE id = $8
	`, models.BookingStatusConfirmed, in.PNR, in.ProviderBookingID, in.Passengers,
		leadName, leadEmail, in.TotalAmount, in.BookingID)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE booking_seats
		SET status = 'booked', held_until = NULL
		WHERE booking_id = $1
	`, in.BookingID)
	if err != nil {
		return fmt.Errorf("failed to book seats: %w", err)
	}

	return tx.Commit(ctx)
}

// ReleaseSeats drops the booking's holds and marks it failed. Booked seats
// are left alone.
func (r *Repository) ReleaseSeats(ctx context.Context, bookingID uuid.UUID, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM booking_seats WHERE booking_id = $1 AND status = 'held'
	`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings SET status = $1, failure_reason = $2
		WHERE id = $3 AND status <> $4
	`, models.BookingStatusFailed, reason, bookingID, models.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	return tx.Commit(ctx)
}

// --- Booking Operations ---

// GetBooking returns a booking by ID with its seats
func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.pool.QueryRow(ctx, `
		SELECT id, result_index, trace_id, status, pnr, provider_booking_id,
		       lead_name, lead_email, passengers, total_amount, failure_reason,
		       workflow_id, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(
		&b.ID, &b.ResultIndex, &b.TraceID, &b.Status, &b.PNR, &b.ProviderBookingID,
		&b.LeadName, &b.LeadEmail, &b.Passengers, &b.TotalAmount, &b.FailureReason,
		&b.WorkflowID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT seat_id FROM booking_seats WHERE booking_id = $1 ORDER BY seat_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking seats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seatID string
		if err := rows.Scan(&seatID); err != nil {
			return nil, fmt.Errorf("failed to scan seat id: %w", err)
		}
		b.Seats = append(b.Seats, seatID)
	}

	return &b, rows.Err()
}

// SetWorkflowID records the Temporal workflow driving a booking
func (r *Repository) SetWorkflowID(ctx context.Context, id uuid.UUID, workflowID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE bookings SET workflow_id = $1 WHERE id = $2`, workflowID, id)
	if err != nil {
		return fmt.Errorf("failed to set workflow id: %w", err)
	}
	return nil
}
