package tracking

import (
	"strings"
	"time"
)

// EventType tags a single ride lifecycle occurrence as delivered by the
// events-history API or the push channel.
type EventType string

const (
	EventRideBooked       EventType = "RIDE_BOOKED"
	EventDriverDispatched EventType = "DRIVER_DISPATCHED"
	EventVehicleArrived   EventType = "VEHICLE_ARRIVED"
	EventPassengerOnBoard EventType = "PASSENGER_ON_BOARD"
	EventRideCompleted    EventType = "RIDE_COMPLETED"
	EventRideCancelled    EventType = "RIDE_CANCELLED"

	// EventOther marks event types we do not recognize. They carry no
	// status meaning but still show up in the recent-events log.
	EventOther EventType = "OTHER"
)

// ParseEventType normalizes an event type string. Unrecognized tags map to
// EventOther rather than failing: the tracker tolerates types added by the
// backend before this client learns about them.
func ParseEventType(input string) EventType {
	eventType := EventType(strings.ToUpper(strings.TrimSpace(input)))
	switch eventType {
	case EventRideBooked, EventDriverDispatched, EventVehicleArrived,
		EventPassengerOnBoard, EventRideCompleted, EventRideCancelled:
		return eventType
	default:
		return EventOther
	}
}

// StatusFor maps a status-changing event type to its milestone status.
// The second return is false for non status-changing types.
func (eventType EventType) StatusFor() (Status, bool) {
	switch eventType {
	case EventRideBooked:
		return StatusBooked, true
	case EventDriverDispatched:
		return StatusDispatched, true
	case EventVehicleArrived:
		return StatusVehicleArrived, true
	case EventPassengerOnBoard:
		return StatusPassengerOnBoard, true
	case EventRideCompleted:
		return StatusCompleted, true
	case EventRideCancelled:
		return StatusCancelled, true
	default:
		return "", false
	}
}

// EventTypeForStatus is the inverse of StatusFor: the event type recorded
// when the dispatch engine reports the given status.
func EventTypeForStatus(status Status) (EventType, bool) {
	switch status {
	case StatusBooked:
		return EventRideBooked, true
	case StatusDispatched:
		return EventDriverDispatched, true
	case StatusVehicleArrived:
		return EventVehicleArrived, true
	case StatusPassengerOnBoard:
		return EventPassengerOnBoard, true
	case StatusCompleted:
		return EventRideCompleted, true
	case StatusCancelled:
		return EventRideCancelled, true
	default:
		return "", false
	}
}

// DispatchClass reports whether the event type indicates driver
// assignment/arrival/boarding, i.e. may carry a driver payload.
func (eventType EventType) DispatchClass() bool {
	switch eventType {
	case EventDriverDispatched, EventVehicleArrived, EventPassengerOnBoard:
		return true
	default:
		return false
	}
}

// Event is one immutable lifecycle occurrence. The tracker never mutates a
// received event; all state is derived from the ordered set.
type Event struct {
	Type    EventType
	RawType string // original tag, kept for dedupe and the recent-events log

	// Timestamp ordering. When the wire timestamp cannot be parsed the
	// event is stamped with the batch fetch time, ParsedTS is false and
	// the event sorts after every parseable one (arrival order preserved).
	Timestamp    time.Time
	RawTimestamp string
	ParsedTS     bool

	Data map[string]any
}

// EventFromWire builds a domain Event from raw wire fields. The second
// return is false for malformed events (no usable type tag); such events
// are skipped, not failed on.
func EventFromWire(typeTag, timestamp string, data map[string]any, fetchedAt time.Time) (Event, bool) {
	typeTag = strings.TrimSpace(typeTag)
	if typeTag == "" {
		return Event{}, false
	}

	event := Event{
		Type:         ParseEventType(typeTag),
		RawType:      strings.ToUpper(typeTag),
		RawTimestamp: strings.TrimSpace(timestamp),
		Data:         data,
	}

	if ts, err := time.Parse(time.RFC3339, event.RawTimestamp); err == nil {
		event.Timestamp = ts.UTC()
		event.ParsedTS = true
	} else {
		event.Timestamp = fetchedAt.UTC()
	}

	return event, true
}

// Label returns a human-readable description of the event.
func (event Event) Label() string {
	if status, ok := event.Type.StatusFor(); ok {
		return status.Label()
	}
	// fall back to a cleaned-up version of the raw tag
	return strings.ReplaceAll(strings.ToLower(event.RawType), "_", " ")
}

// dedupeKey identifies exact duplicates (same type + same wire timestamp),
// the signature of a poll/push double delivery.
func (event Event) dedupeKey() string {
	return event.RawType + "|" + event.RawTimestamp
}
