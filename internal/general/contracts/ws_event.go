package contracts

import "time"

// Push message type tags.
const (
	PushTypeStatusUpdate   = "ride_status_update"
	PushTypeLocationUpdate = "driver_location_update"
)

// Client frame actions on the tracking WebSocket.
const (
	ActionJoinRoom  = "join_room"
	ActionLeaveRoom = "leave_room"
)

// PushStatusMessage mirrors status updates sent over the tracking WebSocket.
// DriverDetails is optional; the tracker keeps its previously captured
// record when the field is absent.
type PushStatusMessage struct {
	Type          string         `json:"type"` // PushTypeStatusUpdate
	RideID        string         `json:"ride_id"`
	BookingRef    string         `json:"booking_ref,omitempty"`
	Status        string         `json:"status"`
	DriverDetails *DriverDetails `json:"driver_details,omitempty"`
	Envelope
}

// PushLocationMessage carries raw driver location updates. Consumed only
// for map display; it never feeds status derivation.
type PushLocationMessage struct {
	Type      string    `json:"type"` // PushTypeLocationUpdate
	RideID    string    `json:"ride_id"`
	Location  GeoPoint  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}

// ClientFrame is an inbound frame from a tracking client: room management
// keyed by ride ID (falling back to booking reference).
type ClientFrame struct {
	Action string `json:"action"` // ActionJoinRoom | ActionLeaveRoom
	Room   string `json:"room"`
}
