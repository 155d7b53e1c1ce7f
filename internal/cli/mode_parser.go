package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeTracking = "tracking-service"
	ModeFollow   = "follow"
	ModeSimulate = "simulate-dispatch"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeTracking, "tracking", "t":
		return ModeTracking, true
	case ModeFollow, "f":
		return ModeFollow, true
	case ModeSimulate, "simulate", "sd":
		return ModeSimulate, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `follow --booking-ref=BK-1001`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<mode>")
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./ride-track --mode=<mode> [flags]

Modes:
  tracking-service     Events-history API, status consumer and push channel
  follow               Follow one booking from the terminal (client mode)
  simulate-dispatch    Publish a scripted ride-status sequence (dev only)

Examples:
  ./ride-track --mode=tracking-service --max-concurrent=100 --prefetch=8
  ./ride-track --mode=follow --booking-ref=BK-1001 --token=$TOKEN
  ./ride-track --mode=simulate-dispatch --ride-id=ride-1 --booking-ref=BK-1001`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./ride-track --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
