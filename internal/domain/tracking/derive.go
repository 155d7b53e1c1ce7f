package tracking

import "time"

// RecentEventLimit bounds the recent-events log shown to the passenger.
const RecentEventLimit = 5

// LogEntry is one line of the recent-events log.
type LogEntry struct {
	At          time.Time
	Description string
}

// DerivedState is the tracker's output: a pure function of the normalized
// event list plus any out-of-band push override. Downstream UI renders from
// this only; it never inspects raw events.
type DerivedState struct {
	Status Status
	Driver *DriverDetails

	// Completed latches true the first time COMPLETED is derived and never
	// resets. The tracker turns the false->true edge into its one-shot
	// completion callback.
	Completed bool

	// Recent is the bounded recent-events log, newest first.
	Recent []LogEntry
}

// NewDerivedState returns the initial state for a freshly booked ride.
func NewDerivedState() DerivedState {
	return DerivedState{Status: StatusBooked}
}

// Derive folds a full, normalized event history into the next state.
//
// Status is monotonic-forward: one scan tracks the highest milestone rank
// observed, and the result never regresses below prev.Status even when an
// out-of-order earlier milestone arrives after a later one. A CANCELLED
// event anywhere in the batch overrides forward progress unconditionally.
//
// A push-asserted cancellation (prev.Status == CANCELLED) is kept even when
// the fetched history carries no cancellation row; only an explicit
// RIDE_COMPLETED event replaces it. Backend lag must not flip a ride the
// passenger was already told is cancelled back to an active state.
func Derive(prev DerivedState, events []Event) DerivedState {
	next := prev

	cancelled := false
	completed := false
	highest := -1

	for _, event := range events {
		status, changes := event.Type.StatusFor()
		if changes {
			if status == StatusCancelled {
				cancelled = true
			} else {
				if status == StatusCompleted {
					completed = true
				}
				if r := status.Rank(); r > highest {
					highest = r
				}
			}
		}

		// sticky driver details: overwrite only on dispatch-class events
		// that actually carry a driver payload
		if event.Type.DispatchClass() {
			if details, ok := DriverFromData(event.Data); ok {
				next.Driver = details
			}
		}
	}

	switch {
	case cancelled:
		next.Status = StatusCancelled
	case prev.Status == StatusCancelled && !completed:
		// keep the override; see note above
	default:
		if prevRank := prev.Status.Rank(); prevRank > highest {
			highest = prevRank
		}
		if highest >= 0 {
			next.Status = Milestones[highest]
		} else {
			next.Status = StatusBooked
		}
	}

	if next.Status == StatusCompleted {
		next.Completed = true
	}

	next.Recent = recentLog(events)
	return next
}

// ApplyOverride applies an explicit out-of-band status signal from the push
// channel without waiting for a matching event record. The override obeys
// the same monotonic rule: it is ignored when it would move the status to an
// earlier milestone, except for CANCELLED which always applies.
func ApplyOverride(prev DerivedState, rawStatus string, details *DriverDetails, at time.Time) DerivedState {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return prev
	}

	next := prev
	if details != nil {
		next.Driver = details
	}

	switch {
	case status == StatusCancelled:
		next.Status = StatusCancelled
	case prev.Status == StatusCancelled:
		// only event-derived completion revokes a cancellation
	case status.Rank() >= prev.Status.Rank():
		next.Status = status
	}

	if next.Status == StatusCompleted {
		next.Completed = true
	}

	if next.Status != prev.Status {
		next.Recent = prependLog(prev.Recent, LogEntry{At: at, Description: next.Status.Label()})
	}

	return next
}

// recentLog rebuilds the bounded newest-first log from a full history.
func recentLog(events []Event) []LogEntry {
	out := make([]LogEntry, 0, RecentEventLimit)
	for i := len(events) - 1; i >= 0 && len(out) < RecentEventLimit; i-- {
		out = append(out, LogEntry{At: events[i].Timestamp, Description: events[i].Label()})
	}
	return out
}

// prependLog pushes one entry onto the log, keeping the bound.
func prependLog(log []LogEntry, entry LogEntry) []LogEntry {
	out := make([]LogEntry, 0, RecentEventLimit)
	out = append(out, entry)
	for _, e := range log {
		if len(out) == RecentEventLimit {
			break
		}
		out = append(out, e)
	}
	return out
}
