package tracking

import (
	"fmt"
	"time"
)

// FormatEstimatedArrival renders an ETA relative to now using whole-minute
// difference: "Arriving now" at or past the ETA (and inside the final
// minute), otherwise "Arriving in N min".
func FormatEstimatedArrival(now, eta time.Time) string {
	mins := int(eta.Sub(now).Minutes())
	if mins <= 0 {
		return "Arriving now"
	}
	return fmt.Sprintf("Arriving in %d min", mins)
}

// FormatRelativeTime renders how long ago t was relative to now, for the
// recent-events log.
func FormatRelativeTime(now, t time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

// plural renders "1 minute" / "2 minutes".
func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
