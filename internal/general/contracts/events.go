package contracts

// EventRecord is one ride lifecycle event row as served by the
// events-history API. Timestamp stays a string on the wire; parsing (and
// the unparseable-timestamp policy) is the tracking domain's job.
type EventRecord struct {
	ID        string         `json:"id,omitempty"`
	EventType string         `json:"event_type"`
	Timestamp string         `json:"timestamp"` // ISO-8601
	EventData map[string]any `json:"event_data,omitempty"`
}

// EventsHistoryResponse is the payload of GET /tracking/{booking_ref}/events.
type EventsHistoryResponse struct {
	Success    bool          `json:"success"`
	BookingRef string        `json:"booking_ref"`
	RideID     string        `json:"ride_id,omitempty"`
	Events     []EventRecord `json:"events"`
}
