package postgres

import (
	"context"
	"errors"
	"strings"

	"ride-track/internal/ports"

	"github.com/jackc/pgx/v5"
)

// BookingRepo persists booking-reference/ride correlations using pgx and plain SQL.
type BookingRepo struct{}

// NewBookingRepo constructs a new BookingRepo.
func NewBookingRepo() ports.BookingRepository {
	return &BookingRepo{}
}

// RideIDForRef resolves a booking reference to its ride id.
func (repo *BookingRepo) RideIDForRef(ctx context.Context, bookingRef string) (string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return "", err
	}

	var rideID string
	err = tx.QueryRow(ctx, `
		SELECT ride_id
		FROM bookings
		WHERE booking_ref = $1
	`, strings.TrimSpace(bookingRef)).Scan(&rideID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ports.ErrBookingNotFound
	}
	if err != nil {
		return "", err
	}

	return rideID, nil
}

// RefForRide resolves a ride id back to its booking reference.
func (repo *BookingRepo) RefForRide(ctx context.Context, rideID string) (string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return "", err
	}

	var ref string
	err = tx.QueryRow(ctx, `
		SELECT booking_ref
		FROM bookings
		WHERE ride_id = $1
	`, rideID).Scan(&ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ports.ErrBookingNotFound
	}
	if err != nil {
		return "", err
	}

	return ref, nil
}

// Create inserts a bookings row. Used when the dispatch engine first reports
// a ride this service has not seen yet.
func (repo *BookingRepo) Create(ctx context.Context, bookingRef, rideID, passengerID string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (booking_ref, ride_id, passenger_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (booking_ref) DO NOTHING
	`, strings.TrimSpace(bookingRef), rideID, passengerID)
	return err
}
