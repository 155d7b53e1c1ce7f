package tracking

import (
	"errors"
	"strings"
)

// Status is a derived ride lifecycle status as shown to the passenger.
type Status string

const (
	StatusBooked           Status = "BOOKED"
	StatusDispatched       Status = "DISPATCHED"
	StatusVehicleArrived   Status = "VEHICLE_ARRIVED"
	StatusPassengerOnBoard Status = "PASSENGER_ON_BOARD"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
)

// Milestones is the canonical forward order of the ride lifecycle.
// CANCELLED sits outside the sequence and overrides it.
var Milestones = []Status{
	StatusBooked,
	StatusDispatched,
	StatusVehicleArrived,
	StatusPassengerOnBoard,
	StatusCompleted,
}

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusBooked, StatusDispatched, StatusVehicleArrived, StatusPassengerOnBoard, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Rank returns the milestone rank used for monotonic comparison.
// CANCELLED has no rank and returns -1.
func (status Status) Rank() int {
	for i, m := range Milestones {
		if m == status {
			return i
		}
	}
	return -1
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}

// Label returns a human-readable form for timeline and log rendering.
func (status Status) Label() string {
	switch status {
	case StatusBooked:
		return "Booking confirmed"
	case StatusDispatched:
		return "Driver on the way"
	case StatusVehicleArrived:
		return "Vehicle arrived"
	case StatusPassengerOnBoard:
		return "Ride in progress"
	case StatusCompleted:
		return "Ride completed"
	case StatusCancelled:
		return "Ride cancelled"
	default:
		return string(status)
	}
}
