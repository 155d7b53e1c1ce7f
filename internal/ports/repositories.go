package ports

import (
	"context"
	"errors"
	"time"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	ErrBookingNotFound = errors.New("booking not found")
)

// StoredEvent is a persisted ride lifecycle event row.
type StoredEvent struct {
	ID         string
	RideID     string
	Type       string
	OccurredAt time.Time
	Data       map[string]any
}

// BookingRepository correlates booking references (the identifier passengers
// hold) with ride identifiers (the identifier the dispatch engine emits).
type BookingRepository interface {
	RideIDForRef(ctx context.Context, bookingRef string) (string, error)
	RefForRide(ctx context.Context, rideID string) (string, error)
	Create(ctx context.Context, bookingRef, rideID, passengerID string) error
}

// RideEventRepository defines the methods for managing ride event data.
type RideEventRepository interface {
	Append(ctx context.Context, event *StoredEvent) error
	ListByRide(ctx context.Context, rideID string) ([]StoredEvent, error)
}
