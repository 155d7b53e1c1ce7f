package contracts

import "time"

// RideStatusMessage is published by the dispatch engine on every status
// change. Routing key: "ride.status.{status}" on ExchangeRideTopic.
type RideStatusMessage struct {
	RideID        string         `json:"ride_id"`
	BookingRef    string         `json:"booking_ref,omitempty"`
	Status        string         `json:"status"` // BOOKED|DISPATCHED|VEHICLE_ARRIVED|PASSENGER_ON_BOARD|COMPLETED|CANCELLED
	Timestamp     time.Time      `json:"timestamp"`
	DriverDetails *DriverDetails `json:"driver_details,omitempty"`
	Envelope
}
