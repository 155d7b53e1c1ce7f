package tracking

import (
	"testing"
	"time"
)

func wireEvent(t *testing.T, typeTag, ts string, fetchedAt time.Time) Event {
	t.Helper()
	event, ok := EventFromWire(typeTag, ts, nil, fetchedAt)
	if !ok {
		t.Fatalf("EventFromWire(%q, %q) rejected a well-formed event", typeTag, ts)
	}
	return event
}

func TestNormalizeSortsAndDeduplicates(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []Event{
		wireEvent(t, "VEHICLE_ARRIVED", "2025-06-01T10:10:00Z", fetched),
		wireEvent(t, "RIDE_BOOKED", "2025-06-01T10:00:00Z", fetched),
		wireEvent(t, "DRIVER_DISPATCHED", "2025-06-01T10:05:00Z", fetched),
		// exact duplicate of the arrival event, delivered again via push replay
		wireEvent(t, "VEHICLE_ARRIVED", "2025-06-01T10:10:00Z", fetched),
	}

	got := Normalize(events)
	if len(got) != 3 {
		t.Fatalf("expected 3 events after dedupe, got %d", len(got))
	}

	want := []EventType{EventRideBooked, EventDriverDispatched, EventVehicleArrived}
	for i, w := range want {
		if got[i].Type != w {
			t.Errorf("position %d: got %s, want %s", i, got[i].Type, w)
		}
	}
}

// Normalization must be order-independent: every permutation of the same
// event set yields the same sorted, deduplicated sequence.
func TestNormalizeOrderIndependent(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := wireEvent(t, "RIDE_BOOKED", "2025-06-01T10:00:00Z", fetched)
	b := wireEvent(t, "DRIVER_DISPATCHED", "2025-06-01T10:05:00Z", fetched)
	c := wireEvent(t, "PASSENGER_ON_BOARD", "2025-06-01T10:20:00Z", fetched)

	perms := [][]Event{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}

	for _, perm := range perms {
		got := Normalize(perm)
		if len(got) != 3 {
			t.Fatalf("got %d events, want 3", len(got))
		}
		if got[0].Type != EventRideBooked || got[1].Type != EventDriverDispatched || got[2].Type != EventPassengerOnBoard {
			t.Errorf("permutation not normalized to canonical order: %v %v %v",
				got[0].Type, got[1].Type, got[2].Type)
		}
	}
}

// Events with unparseable timestamps are stamped with fetch time and sort
// after every parseable event, preserving arrival order among themselves.
// This is a documented policy choice, not a derived fact.
func TestNormalizeUnparseableTimestampsSortLast(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) // before the parseable events

	bad1 := wireEvent(t, "FARE_ADJUSTED", "not-a-timestamp", fetched)
	bad2 := wireEvent(t, "SURGE_APPLIED", "", fetched)
	good := wireEvent(t, "RIDE_BOOKED", "2025-06-01T10:00:00Z", fetched)

	got := Normalize([]Event{bad1, good, bad2})
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].Type != EventRideBooked {
		t.Fatalf("parseable event must sort first, got %s", got[0].RawType)
	}
	if got[1].RawType != "FARE_ADJUSTED" || got[2].RawType != "SURGE_APPLIED" {
		t.Errorf("unparseable events must keep arrival order, got %s then %s",
			got[1].RawType, got[2].RawType)
	}
	if !got[1].Timestamp.Equal(fetched) {
		t.Errorf("unparseable event should be stamped with fetch time, got %v", got[1].Timestamp)
	}
}

func TestEventFromWireSkipsMalformed(t *testing.T) {
	if _, ok := EventFromWire("", "2025-06-01T10:00:00Z", nil, time.Now()); ok {
		t.Error("event without a type tag must be rejected")
	}
	if _, ok := EventFromWire("   ", "", nil, time.Now()); ok {
		t.Error("blank type tag must be rejected")
	}
}
