package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ride-track/internal/domain/tracking"
	"ride-track/internal/general/contracts"
)

// ----- fakes -----

type fakeSource struct {
	mu    sync.Mutex
	resp  *contracts.EventsHistoryResponse
	err   error
	calls int
}

func (f *fakeSource) FetchEvents(context.Context, string) (*contracts.EventsHistoryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.resp, f.err
}

func (f *fakeSource) set(resp *contracts.EventsHistoryResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resp, f.err = resp, err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePush struct {
	mu     sync.Mutex
	sink   func(contracts.PushStatusMessage)
	rooms  map[string]struct{}
	closed bool
}

func newFakePush() *fakePush {
	return &fakePush{rooms: map[string]struct{}{}}
}

func (f *fakePush) Start(_ context.Context, sink func(contracts.PushStatusMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
	return nil
}

func (f *fakePush) Join(room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room] = struct{}{}
}

func (f *fakePush) Leave(room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, room)
}

func (f *fakePush) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePush) inject(msg contracts.PushStatusMessage) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink != nil {
		sink(msg)
	}
}

func (f *fakePush) roomCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rooms)
}

func (f *fakePush) hasRoom(room string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[room]
	return ok
}

// ----- helpers -----

func historyResponse(rideID string, events ...contracts.EventRecord) *contracts.EventsHistoryResponse {
	return &contracts.EventsHistoryResponse{
		Success:    true,
		BookingRef: "BK-1001",
		RideID:     rideID,
		Events:     events,
	}
}

func record(eventType, ts string) contracts.EventRecord {
	return contracts.EventRecord{EventType: eventType, Timestamp: ts}
}

func startTracker(t *testing.T, source EventSource, push PushChannel, onCompleted func()) (*Tracker, chan Snapshot) {
	t.Helper()

	updates := make(chan Snapshot, 64)
	tr, err := New(Config{
		BookingRef:   "BK-1001",
		Source:       source,
		Push:         push,
		PollInterval: time.Hour, // polls only via Refresh in tests
		OnUpdate:     func(s Snapshot) { updates <- s },
		OnCompleted:  onCompleted,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr, updates
}

func waitSnapshot(t *testing.T, updates chan Snapshot, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

// ----- tests -----

func TestTrackerPollDerivesState(t *testing.T) {
	source := &fakeSource{}
	source.set(historyResponse("ride-1",
		record("RIDE_BOOKED", "2025-06-01T10:00:00Z"),
		contracts.EventRecord{
			EventType: "DRIVER_DISPATCHED",
			Timestamp: "2025-06-01T10:02:00Z",
			EventData: map[string]any{"driver": map[string]any{"name": "Alex", "phone": "+447700900123"}},
		},
	), nil)
	push := newFakePush()

	_, updates := startTracker(t, source, push, nil)

	snap := waitSnapshot(t, updates, func(s Snapshot) bool {
		return s.State.Status == tracking.StatusDispatched
	})
	if snap.RideID != "ride-1" {
		t.Errorf("ride id = %q", snap.RideID)
	}
	if snap.State.Driver == nil || snap.State.Driver.Name != "Alex" {
		t.Errorf("driver not captured: %+v", snap.State.Driver)
	}
	if !push.hasRoom("BK-1001") || !push.hasRoom("ride-1") {
		t.Error("tracker should join the booking-ref room and the ride room")
	}
}

func TestTrackerPushCancelSticksThroughLaggingPoll(t *testing.T) {
	source := &fakeSource{}
	source.set(historyResponse("ride-1", record("RIDE_BOOKED", "2025-06-01T10:00:00Z")), nil)
	push := newFakePush()

	_, updates := startTracker(t, source, push, nil)
	waitSnapshot(t, updates, func(s Snapshot) bool {
		return s.State.Status == tracking.StatusBooked && s.RideID == "ride-1"
	})

	calls := source.callCount()
	push.inject(contracts.PushStatusMessage{
		Type:   contracts.PushTypeStatusUpdate,
		RideID: "ride-1",
		Status: "CANCELLED",
	})

	// the cancel applies immediately and survives the confirming poll,
	// which still serves a history with no cancellation row
	snap := waitSnapshot(t, updates, func(s Snapshot) bool {
		return s.State.Status == tracking.StatusCancelled && source.callCount() > calls
	})
	if snap.State.Status != tracking.StatusCancelled {
		t.Errorf("status = %s after lagging poll", snap.State.Status)
	}
}

func TestTrackerCompletionFiresOnce(t *testing.T) {
	source := &fakeSource{}
	source.set(historyResponse("ride-1",
		record("RIDE_BOOKED", "2025-06-01T10:00:00Z"),
		record("RIDE_COMPLETED", "2025-06-01T10:30:00Z"),
	), nil)
	push := newFakePush()

	var completions atomic.Int32
	tr, updates := startTracker(t, source, push, func() { completions.Add(1) })

	waitSnapshot(t, updates, func(s Snapshot) bool { return s.State.Completed })

	// a redundant push completion and another poll must not re-fire
	push.inject(contracts.PushStatusMessage{Type: contracts.PushTypeStatusUpdate, RideID: "ride-1", Status: "COMPLETED"})
	tr.Refresh()
	waitSnapshot(t, updates, func(s Snapshot) bool { return s.State.Completed })

	if got := completions.Load(); got != 1 {
		t.Errorf("completion callback fired %d times, want 1", got)
	}
}

func TestTrackerFailedPollRetainsState(t *testing.T) {
	source := &fakeSource{}
	source.set(historyResponse("ride-1",
		record("RIDE_BOOKED", "2025-06-01T10:00:00Z"),
		record("DRIVER_DISPATCHED", "2025-06-01T10:02:00Z"),
	), nil)

	tr, updates := startTracker(t, source, nil, nil)
	waitSnapshot(t, updates, func(s Snapshot) bool {
		return s.State.Status == tracking.StatusDispatched
	})

	source.set(nil, errors.New("gateway timeout"))
	tr.Refresh()

	snap := waitSnapshot(t, updates, func(s Snapshot) bool { return s.LastErr != nil })
	if snap.State.Status != tracking.StatusDispatched {
		t.Errorf("failed poll changed status to %s", snap.State.Status)
	}

	// a later successful poll clears the error
	source.set(historyResponse("ride-1",
		record("RIDE_BOOKED", "2025-06-01T10:00:00Z"),
		record("DRIVER_DISPATCHED", "2025-06-01T10:02:00Z"),
	), nil)
	tr.Refresh()
	waitSnapshot(t, updates, func(s Snapshot) bool { return s.LastErr == nil })
}

func TestTrackerSingleUse(t *testing.T) {
	source := &fakeSource{}
	source.set(historyResponse(""), nil)

	tr, _ := startTracker(t, source, nil, nil)
	if err := tr.Start(context.Background()); !errors.Is(err, ErrTrackerRunning) {
		t.Errorf("second Start = %v, want ErrTrackerRunning", err)
	}

	tr.Close()
	if err := tr.Start(context.Background()); !errors.Is(err, ErrTrackerClosed) {
		t.Errorf("Start after Close = %v, want ErrTrackerClosed", err)
	}
}

func TestTrackerCloseLeavesNoResidual(t *testing.T) {
	for i := 0; i < 5; i++ {
		source := &fakeSource{}
		source.set(historyResponse("ride-1", record("RIDE_BOOKED", "2025-06-01T10:00:00Z")), nil)
		push := newFakePush()

		tr, updates := startTracker(t, source, push, nil)
		waitSnapshot(t, updates, func(s Snapshot) bool { return s.RideID == "ride-1" })
		tr.Close()

		if push.roomCount() != 0 {
			t.Fatalf("cycle %d: %d rooms still joined after Close", i, push.roomCount())
		}
		push.mu.Lock()
		closed := push.closed
		push.mu.Unlock()
		if !closed {
			t.Fatalf("cycle %d: push channel not closed", i)
		}
	}
}

// gatedSource blocks every fetch until released, to observe overlap behavior.
type gatedSource struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedSource) FetchEvents(context.Context, string) (*contracts.EventsHistoryResponse, error) {
	g.calls.Add(1)
	<-g.release
	return historyResponse("ride-1", record("RIDE_BOOKED", "2025-06-01T10:00:00Z")), nil
}

func TestTrackerRefreshWhileInFlightIsNoOp(t *testing.T) {
	source := &gatedSource{release: make(chan struct{})}
	tr, updates := startTracker(t, source, nil, nil)

	// hammer refresh while the first poll is stuck; at most one extra poll
	// (the single queued request) may follow once it completes
	for i := 0; i < 10; i++ {
		tr.Refresh()
	}
	time.Sleep(50 * time.Millisecond)
	close(source.release)

	waitSnapshot(t, updates, func(s Snapshot) bool { return s.RideID == "ride-1" })
	if got := source.calls.Load(); got > 2 {
		t.Errorf("overlapping refreshes started %d polls, want at most 2", got)
	}
}

// A poll result arriving after Close is dropped, never folded into state.
func TestTrackerCloseAbandonsInFlightPoll(t *testing.T) {
	source := &gatedSource{release: make(chan struct{})}
	tr, _ := startTracker(t, source, nil, nil)

	deadline := time.Now().Add(2 * time.Second)
	for source.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial poll never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	tr.Close()
	close(source.release)
	time.Sleep(50 * time.Millisecond)

	if snap := tr.Snapshot(); snap.RideID != "" {
		t.Errorf("late poll result mutated state after Close: %+v", snap)
	}
}

func TestTrackerIgnoresForeignPush(t *testing.T) {
	source := &fakeSource{}
	source.set(historyResponse("ride-1", record("RIDE_BOOKED", "2025-06-01T10:00:00Z")), nil)
	push := newFakePush()

	tr, updates := startTracker(t, source, push, nil)
	waitSnapshot(t, updates, func(s Snapshot) bool { return s.RideID == "ride-1" })

	push.inject(contracts.PushStatusMessage{Type: contracts.PushTypeStatusUpdate, RideID: "ride-other", Status: "CANCELLED"})

	// the foreign message must not have touched state
	tr.Refresh()
	snap := waitSnapshot(t, updates, func(s Snapshot) bool { return s.LastErr == nil })
	if snap.State.Status != tracking.StatusBooked {
		t.Errorf("foreign push changed status to %s", snap.State.Status)
	}
}
