package follow

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"ride-track/internal/domain/tracking"
	"ride-track/internal/general/logger"
	"ride-track/internal/tracker"
)

// Options configures one follow session.
type Options struct {
	BookingRef   string
	BaseURL      string // tracking service base URL, e.g. http://localhost:3002
	Token        string // passenger JWT
	PollInterval time.Duration
}

// Run follows a booking from the terminal: it mounts a tracker against the
// live service and re-renders the timeline on every update until the ride
// reaches a terminal state or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	log := logger.New("follow")

	source := tracker.NewHTTPEventSource(opts.BaseURL, opts.Token)
	push := tracker.NewWSPushChannel(wsURL(opts.BaseURL), opts.Token, log)

	terminal := make(chan struct{}, 1)
	tr, err := tracker.New(tracker.Config{
		BookingRef:   opts.BookingRef,
		Source:       source,
		Push:         push,
		PollInterval: opts.PollInterval,
		Logger:       log,
		OnUpdate: func(snap tracker.Snapshot) {
			render(os.Stdout, opts.BookingRef, snap, time.Now())
			if snap.LastErr == nil && snap.State.Status == tracking.StatusCancelled {
				select {
				case terminal <- struct{}{}:
				default:
				}
			}
		},
		OnCompleted: func() {
			fmt.Println("\nRide completed. Thanks for riding!")
			select {
			case terminal <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return err
	}

	if err := tr.Start(ctx); err != nil {
		return err
	}
	defer tr.Close()

	select {
	case <-ctx.Done():
	case <-terminal:
	}
	return nil
}

// render prints one full tracking frame: timeline, driver card, recent log.
func render(w *os.File, bookingRef string, snap tracker.Snapshot, now time.Time) {
	state := snap.State

	fmt.Fprintf(w, "\n=== %s", bookingRef)
	if snap.RideID != "" {
		fmt.Fprintf(w, " (ride %s)", snap.RideID)
	}
	fmt.Fprintln(w, " ===")

	if snap.LastErr != nil {
		fmt.Fprintf(w, "  ! update failed, showing last known state: %v\n", snap.LastErr)
	}

	for _, entry := range tracking.Timeline(state.Status) {
		fmt.Fprintf(w, "  %s %s\n", marker(entry.State), entry.Label)
	}

	if d := state.Driver; d != nil {
		fmt.Fprintf(w, "  Driver: %s", d.Name)
		if d.Phone != "" {
			fmt.Fprintf(w, " (%s)", d.Phone)
		}
		fmt.Fprintln(w)
		if vehicle := vehicleLine(d); vehicle != "" {
			fmt.Fprintf(w, "  Vehicle: %s\n", vehicle)
		}
		if d.EstimatedArrival != nil && state.Status == tracking.StatusDispatched {
			fmt.Fprintf(w, "  %s\n", tracking.FormatEstimatedArrival(now, *d.EstimatedArrival))
		}
	}

	if len(state.Recent) > 0 {
		fmt.Fprintln(w, "  Recent:")
		for _, entry := range state.Recent {
			fmt.Fprintf(w, "    %s (%s)\n", entry.Description, tracking.FormatRelativeTime(now, entry.At))
		}
	}
}

func marker(state tracking.MilestoneState) string {
	switch state {
	case tracking.MilestoneDone:
		return "[x]"
	case tracking.MilestoneCurrent:
		return "[>]"
	case tracking.MilestoneAlert:
		return "[!]"
	default:
		return "[ ]"
	}
}

func vehicleLine(d *tracking.DriverDetails) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{d.VehicleColor, d.VehicleMake, d.VehicleModel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	line := strings.Join(parts, " ")
	if d.LicensePlate != "" {
		if line != "" {
			line += ", "
		}
		line += d.LicensePlate
	}
	return line
}

// wsURL derives the WebSocket endpoint from the HTTP base URL.
func wsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/tracking"
}
