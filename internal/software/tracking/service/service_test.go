package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ride-track/internal/general/contracts"
	"ride-track/internal/general/logger"
	"ride-track/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ----- fakes -----

type fakeUow struct{}

func (fakeUow) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBookings struct {
	refToRide map[string]string
}

func (f *fakeBookings) RideIDForRef(_ context.Context, ref string) (string, error) {
	if rideID, ok := f.refToRide[ref]; ok {
		return rideID, nil
	}
	return "", ports.ErrBookingNotFound
}

func (f *fakeBookings) RefForRide(_ context.Context, rideID string) (string, error) {
	for ref, id := range f.refToRide {
		if id == rideID {
			return ref, nil
		}
	}
	return "", ports.ErrBookingNotFound
}

func (f *fakeBookings) Create(_ context.Context, ref, rideID, _ string) error {
	if f.refToRide == nil {
		f.refToRide = map[string]string{}
	}
	if _, exists := f.refToRide[ref]; !exists {
		f.refToRide[ref] = rideID
	}
	return nil
}

type fakeEvents struct {
	rows []ports.StoredEvent
}

func (f *fakeEvents) Append(_ context.Context, event *ports.StoredEvent) error {
	event.ID = "evt-1"
	f.rows = append(f.rows, *event)
	return nil
}

func (f *fakeEvents) ListByRide(_ context.Context, rideID string) ([]ports.StoredEvent, error) {
	var out []ports.StoredEvent
	for _, row := range f.rows {
		if row.RideID == rideID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeHub struct {
	broadcasts map[string]int
}

func (f *fakeHub) Broadcast(room string, _ any) int {
	if f.broadcasts == nil {
		f.broadcasts = map[string]int{}
	}
	f.broadcasts[room]++
	return 1
}

type noopQueue struct{}

func (noopQueue) Consume(context.Context, string, string, int, func(context.Context, amqp.Delivery) error) error {
	return nil
}

func newTestService(bookings *fakeBookings, events *fakeEvents, hub *fakeHub) *trackingService {
	return &trackingService{
		logger:   logger.New("tracking-test"),
		uow:      fakeUow{},
		bookings: bookings,
		events:   events,
		hub:      hub,
		queue:    noopQueue{},
	}
}

// ----- tests -----

func TestHistoryServesStoredEvents(t *testing.T) {
	bookings := &fakeBookings{refToRide: map[string]string{"BK-1001": "ride-1"}}
	events := &fakeEvents{rows: []ports.StoredEvent{
		{ID: "e1", RideID: "ride-1", Type: "RIDE_BOOKED", OccurredAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "e2", RideID: "ride-2", Type: "RIDE_BOOKED", OccurredAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(bookings, events, &fakeHub{})

	resp, err := svc.History(context.Background(), "BK-1001")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if !resp.Success || resp.RideID != "ride-1" {
		t.Errorf("unexpected response header: %+v", resp)
	}
	if len(resp.Events) != 1 || resp.Events[0].EventType != "RIDE_BOOKED" {
		t.Errorf("unexpected events: %+v", resp.Events)
	}
	if resp.Events[0].Timestamp != "2025-06-01T10:00:00Z" {
		t.Errorf("timestamp not RFC3339: %q", resp.Events[0].Timestamp)
	}
}

func TestHistoryUnknownBooking(t *testing.T) {
	svc := newTestService(&fakeBookings{}, &fakeEvents{}, &fakeHub{})
	if _, err := svc.History(context.Background(), "BK-NOPE"); err != ports.ErrBookingNotFound {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestHandleStatusDeliveryAppendsAndBroadcasts(t *testing.T) {
	bookings := &fakeBookings{refToRide: map[string]string{"BK-1001": "ride-1"}}
	events := &fakeEvents{}
	hub := &fakeHub{}
	svc := newTestService(bookings, events, hub)

	body, _ := json.Marshal(contracts.RideStatusMessage{
		RideID:     "ride-1",
		BookingRef: "BK-1001",
		Status:     "DISPATCHED",
		Timestamp:  time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC),
		DriverDetails: &contracts.DriverDetails{
			Name:  "Alex",
			Phone: "+447700900123",
		},
	})

	if err := svc.handleStatusDelivery(context.Background(), body); err != nil {
		t.Fatalf("handleStatusDelivery: %v", err)
	}

	if len(events.rows) != 1 {
		t.Fatalf("appended %d events, want 1", len(events.rows))
	}
	row := events.rows[0]
	if row.Type != "DRIVER_DISPATCHED" {
		t.Errorf("event type = %s", row.Type)
	}
	driver, _ := row.Data["driver"].(map[string]any)
	if driver == nil || driver["name"] != "Alex" {
		t.Errorf("driver payload not persisted: %+v", row.Data)
	}

	if hub.broadcasts["ride-1"] != 1 || hub.broadcasts["BK-1001"] != 1 {
		t.Errorf("broadcasts = %+v, want ride room and booking-ref fallback room", hub.broadcasts)
	}
}

func TestHandleStatusDeliveryIgnoresUnknowns(t *testing.T) {
	bookings := &fakeBookings{}
	events := &fakeEvents{}
	svc := newTestService(bookings, events, &fakeHub{})

	// unknown status: ack and ignore
	body, _ := json.Marshal(contracts.RideStatusMessage{RideID: "ride-1", BookingRef: "BK-1", Status: "TELEPORTED"})
	if err := svc.handleStatusDelivery(context.Background(), body); err != nil {
		t.Fatalf("unknown status should be acked: %v", err)
	}
	if len(events.rows) != 0 {
		t.Error("unknown status must not append events")
	}

	// ride with no booking correlation at all: ack and ignore
	body, _ = json.Marshal(contracts.RideStatusMessage{RideID: "ride-ghost", Status: "DISPATCHED"})
	if err := svc.handleStatusDelivery(context.Background(), body); err != nil {
		t.Fatalf("uncorrelated ride should be acked: %v", err)
	}
	if len(events.rows) != 0 {
		t.Error("uncorrelated ride must not append events")
	}

	// malformed body: nack
	if err := svc.handleStatusDelivery(context.Background(), []byte("{not json")); err == nil {
		t.Error("malformed body must be rejected")
	}
}
