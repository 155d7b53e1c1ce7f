package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	follow "ride-track/cmd/follow"
	simulatedispatch "ride-track/cmd/simulate_dispatch"
	trackingservice "ride-track/cmd/tracking_service"
	"ride-track/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the mode
	switch mode {

	case cli.ModeTracking:
		fs := flag.NewFlagSet(cli.ModeTracking, flag.ContinueOnError)
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		prefetch := fs.Int("prefetch", 8, "RabbitMQ prefetch count for the status consumer")
		cli.AttachUsage(fs, cli.ModeTracking)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}
		if err := trackingservice.Run(ctx, *maxConc, *prefetch); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeFollow:
		fs := flag.NewFlagSet(cli.ModeFollow, flag.ContinueOnError)
		bookingRef := fs.String("booking-ref", "", "Booking reference to follow")
		baseURL := fs.String("url", "http://localhost:3002", "Tracking service base URL")
		token := fs.String("token", "", "Passenger JWT (also read from RIDE_TRACK_TOKEN)")
		pollEvery := fs.Duration("poll-every", 10*time.Second, "Poll interval for the events-history API")
		cli.AttachUsage(fs, cli.ModeFollow)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *token == "" {
			*token = os.Getenv("RIDE_TRACK_TOKEN")
		}
		if *bookingRef == "" || *token == "" {
			fmt.Fprintln(os.Stderr, "Error: --booking-ref and --token are required")
			fs.Usage()
			os.Exit(2)
		}
		if err := follow.Run(ctx, follow.Options{
			BookingRef:   *bookingRef,
			BaseURL:      *baseURL,
			Token:        *token,
			PollInterval: *pollEvery,
		}); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeSimulate:
		fs := flag.NewFlagSet(cli.ModeSimulate, flag.ContinueOnError)
		rideID := fs.String("ride-id", "", "Ride ID to simulate")
		bookingRef := fs.String("booking-ref", "", "Booking reference to attach to the ride")
		stepDelay := fs.Duration("step-delay", 5*time.Second, "Pause between published statuses")
		cli.AttachUsage(fs, cli.ModeSimulate)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *rideID == "" || *bookingRef == "" {
			fmt.Fprintln(os.Stderr, "Error: --ride-id and --booking-ref are required")
			fs.Usage()
			os.Exit(2)
		}
		if err := simulatedispatch.Run(ctx, *rideID, *bookingRef, *stepDelay); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
