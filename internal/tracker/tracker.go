package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"ride-track/internal/domain/tracking"
	"ride-track/internal/general/contracts"
	"ride-track/internal/general/logger"
)

// EventSource fetches the full event history for a booking.
type EventSource interface {
	FetchEvents(ctx context.Context, bookingRef string) (*contracts.EventsHistoryResponse, error)
}

// PushChannel is the out-of-band status feed. Start must not block; the
// channel delivers decoded status messages to the sink from its own
// goroutine and keeps joined rooms alive across reconnects.
type PushChannel interface {
	Start(ctx context.Context, sink func(contracts.PushStatusMessage)) error
	Join(room string)
	Leave(room string)
	Close() error
}

var (
	// ErrTrackerRunning is returned by Start when the tracker loop is
	// already mounted.
	ErrTrackerRunning = errors.New("tracker: already started")

	// ErrTrackerClosed is returned by Start after Close; a tracker is
	// single-use.
	ErrTrackerClosed = errors.New("tracker: closed")
)

const defaultPollInterval = 10 * time.Second

// Snapshot is the tracker's externally visible state.
type Snapshot struct {
	State  tracking.DerivedState
	RideID string

	// LastErr holds the most recent poll failure. A failed poll never
	// discards derived state; it only surfaces here until the next
	// successful fetch clears it.
	LastErr error
}

// Config wires a Tracker. Source is required; Push is optional (poll-only
// tracking still works, just with higher latency).
type Config struct {
	BookingRef   string
	Source       EventSource
	Push         PushChannel
	PollInterval time.Duration
	Logger       *logger.Logger

	// OnUpdate fires after every state change and after failed polls.
	// Called from the tracker goroutine; keep it fast.
	OnUpdate func(Snapshot)

	// OnCompleted fires exactly once, on the first transition into the
	// completed state, no matter how many completion signals arrive.
	OnCompleted func()
}

// Tracker follows one ride: it polls the events-history API, folds push
// status messages in between polls, and exposes a consistent snapshot.
// All state transitions happen on a single goroutine; Snapshot is safe to
// call from anywhere.
type Tracker struct {
	cfg  Config
	log  *logger.Logger
	now  func() time.Time
	push PushChannel

	mu   sync.Mutex
	snap Snapshot

	refreshCh  chan struct{}
	pushCh     chan contracts.PushStatusMessage
	pollResult chan pollOutcome
	done       chan struct{}

	running   bool
	closed    bool
	closeOnce sync.Once
	doneOnce  sync.Once

	// loop-goroutine only
	pollInFlight bool
	joinedRide   bool
}

type pollOutcome struct {
	resp      *contracts.EventsHistoryResponse
	fetchedAt time.Time
	err       error
}

// New builds a Tracker for one booking reference.
func New(cfg Config) (*Tracker, error) {
	if cfg.BookingRef == "" {
		return nil, errors.New("tracker: booking reference is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("tracker: event source is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	log := cfg.Logger
	if log == nil {
		log = logger.New("ride-tracker")
	}

	return &Tracker{
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		push:       cfg.Push,
		snap:       Snapshot{State: tracking.NewDerivedState()},
		refreshCh:  make(chan struct{}, 1),
		pushCh:     make(chan contracts.PushStatusMessage, 16),
		pollResult: make(chan pollOutcome, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start mounts the tracker: joins the push room, kicks off the first poll
// and runs the event loop until ctx is cancelled or Close is called.
// A tracker starts at most once.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTrackerClosed
	}
	if t.running {
		t.mu.Unlock()
		return ErrTrackerRunning
	}
	t.running = true
	t.mu.Unlock()

	if t.push != nil {
		if err := t.push.Start(ctx, t.deliverPush); err != nil {
			t.log.Error(ctx, "tracker_push_start_failed",
				"Push channel unavailable, tracking by poll only", err,
				map[string]any{"booking_ref": t.cfg.BookingRef})
		} else {
			t.push.Join(t.cfg.BookingRef)
		}
	}

	go t.loop(ctx)
	t.Refresh()
	return nil
}

// Refresh requests an immediate poll. Requests collapse: while a poll is
// running or already queued, further calls are no-ops.
func (t *Tracker) Refresh() {
	select {
	case t.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the current tracking state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Close unmounts the tracker: stops the loop, leaves push rooms and drops
// any poll still in flight. Idempotent.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		rideID := t.snap.RideID
		t.mu.Unlock()

		close(t.done)

		if t.push != nil {
			t.push.Leave(t.cfg.BookingRef)
			if rideID != "" && rideID != t.cfg.BookingRef {
				t.push.Leave(rideID)
			}
			_ = t.push.Close()
		}
	})
	return nil
}

// deliverPush hands a push message to the loop. Drops when the buffer is
// full or the tracker is closed; the poll path recovers anything missed.
func (t *Tracker) deliverPush(msg contracts.PushStatusMessage) {
	select {
	case <-t.done:
	case t.pushCh <- msg:
	default:
		t.Refresh()
	}
}

func (t *Tracker) loop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ticker.C:
			t.Refresh()
		case <-t.refreshCh:
			t.startPoll(ctx)
		case res := <-t.pollResult:
			t.applyPoll(res)
		case msg := <-t.pushCh:
			t.applyPush(msg)
		}
	}
}

// startPoll launches one fetch unless a poll is already in flight.
func (t *Tracker) startPoll(ctx context.Context) {
	if t.pollInFlight {
		return
	}
	t.pollInFlight = true

	go func() {
		fetchedAt := t.now().UTC()
		resp, err := t.cfg.Source.FetchEvents(ctx, t.cfg.BookingRef)
		select {
		case t.pollResult <- pollOutcome{resp: resp, fetchedAt: fetchedAt, err: err}:
		case <-t.done:
		}
	}()
}

func (t *Tracker) applyPoll(res pollOutcome) {
	t.pollInFlight = false

	if res.err != nil {
		t.mu.Lock()
		t.snap.LastErr = res.err
		snap := t.snap
		t.mu.Unlock()

		t.log.Error(context.Background(), "tracker_poll_failed",
			"Event history fetch failed, keeping last known state", res.err,
			map[string]any{"booking_ref": t.cfg.BookingRef})
		t.notify(snap)
		return
	}

	events := eventsFromRecords(res.resp.Events, res.fetchedAt)

	t.mu.Lock()
	t.snap.State = tracking.Derive(t.snap.State, events)
	t.snap.LastErr = nil
	if res.resp.RideID != "" {
		t.snap.RideID = res.resp.RideID
	}
	snap := t.snap
	t.mu.Unlock()

	t.joinRideRoom(snap.RideID)
	t.notify(snap)
}

func (t *Tracker) applyPush(msg contracts.PushStatusMessage) {
	if msg.BookingRef != "" && msg.BookingRef != t.cfg.BookingRef {
		return
	}

	t.mu.Lock()
	if msg.RideID != "" && t.snap.RideID != "" && msg.RideID != t.snap.RideID {
		t.mu.Unlock()
		return
	}
	t.snap.State = tracking.ApplyOverride(
		t.snap.State, msg.Status, driverFromContract(msg.DriverDetails), t.now().UTC())
	if msg.RideID != "" && t.snap.RideID == "" {
		t.snap.RideID = msg.RideID
	}
	snap := t.snap
	t.mu.Unlock()

	t.joinRideRoom(snap.RideID)
	t.notify(snap)

	// confirm the asserted status against the event store
	t.Refresh()
}

// joinRideRoom upgrades from the booking-reference room to the ride room
// once the ride id is known. Loop-goroutine only.
func (t *Tracker) joinRideRoom(rideID string) {
	if t.push == nil || t.joinedRide || rideID == "" || rideID == t.cfg.BookingRef {
		return
	}
	t.push.Join(rideID)
	t.joinedRide = true
}

func (t *Tracker) notify(snap Snapshot) {
	if t.cfg.OnUpdate != nil {
		t.cfg.OnUpdate(snap)
	}
	if snap.State.Completed && t.cfg.OnCompleted != nil {
		t.doneOnce.Do(t.cfg.OnCompleted)
	}
}
